package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/azafe/MyPhone-Backend/pkg/db"
	"github.com/azafe/MyPhone-Backend/pkg/db/models"
	"github.com/azafe/MyPhone-Backend/pkg/errors"
	"github.com/azafe/MyPhone-Backend/pkg/logger"
	"github.com/azafe/MyPhone-Backend/pkg/redis"
)

const cacheTTL = 5 * time.Minute

// Store is the subset of the redis client the catalog needs. Tests
// substitute an in-memory fake.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Service answers read-only stock lookups, fronted by a read-through
// cache. The cache is best effort; a broken store degrades to plain
// database reads.
type Service struct {
	client *db.Client
	cache  Store
}

func NewService(client *db.Client, cache Store) *Service {
	return &Service{client: client, cache: cache}
}

// GetByIMEI returns the stock unit for an IMEI, serving from cache
// when possible.
func (s *Service) GetByIMEI(ctx context.Context, imei string) (*models.StockItem, error) {
	key := redis.CatalogKey("imei", imei)

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil {
			var unit models.StockItem
			if err := json.Unmarshal([]byte(raw), &unit); err == nil {
				return &unit, nil
			}
		}
	}

	var unit models.StockItem
	err := s.client.Gorm().WithContext(ctx).Where("imei = ?", imei).First(&unit).Error
	if db.IsNotFound(err) {
		return nil, errors.New(errors.CodeNotFound, "stock unit not found").
			WithDetails(map[string]string{"imei": imei})
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "lookup stock unit")
	}

	if s.cache != nil {
		if raw, err := json.Marshal(unit); err == nil {
			if err := s.cache.Set(ctx, key, string(raw), cacheTTL); err != nil {
				logger.Warn(ctx, "catalog cache set failed", map[string]any{"imei": imei})
			}
		}
	}
	return &unit, nil
}

// Invalidate drops cached entries after a unit changes state. Called by
// the sale orchestrator after claims and releases commit.
func (s *Service) Invalidate(ctx context.Context, imeis ...string) {
	if s.cache == nil || len(imeis) == 0 {
		return
	}
	keys := make([]string, len(imeis))
	for i, imei := range imeis {
		keys[i] = redis.CatalogKey("imei", imei)
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		logger.Warn(ctx, "catalog cache invalidation failed", map[string]any{"keys": len(keys)})
	}
}
