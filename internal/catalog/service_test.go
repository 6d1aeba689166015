package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/azafe/MyPhone-Backend/pkg/db/dbtest"
	"github.com/azafe/MyPhone-Backend/pkg/db/models"
	"github.com/azafe/MyPhone-Backend/pkg/enums"
	"github.com/azafe/MyPhone-Backend/pkg/errors"
	"github.com/azafe/MyPhone-Backend/pkg/redis"
)

type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
	sets int
	gets int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	v, ok := f.data[key]
	if !ok {
		return "", redis.ErrMiss
	}
	return v, nil
}

func (f *fakeStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.data[key] = value
	return nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func TestGetByIMEIReadsThroughCache(t *testing.T) {
	client := dbtest.Open(t)
	store := newFakeStore()
	svc := NewService(client, store)
	ctx := context.Background()

	unit := models.StockItem{
		IMEI:      "359871234567890",
		Brand:     "Samsung",
		Model:     "Galaxy S22",
		Status:    enums.StockAvailable,
		CostPrice: decimal.NewFromInt(300),
		ListPrice: decimal.NewFromInt(500),
	}
	if err := client.Gorm().Create(&unit).Error; err != nil {
		t.Fatalf("seed unit: %v", err)
	}

	first, err := svc.GetByIMEI(ctx, unit.IMEI)
	if err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	if first.ID != unit.ID {
		t.Fatal("unexpected unit")
	}
	if store.sets != 1 {
		t.Fatalf("expected cache fill, got %d sets", store.sets)
	}

	// Remove the row; a cached lookup must still answer.
	if err := client.Gorm().Delete(&models.StockItem{}, "id = ?", unit.ID).Error; err != nil {
		t.Fatalf("delete unit: %v", err)
	}
	second, err := svc.GetByIMEI(ctx, unit.IMEI)
	if err != nil {
		t.Fatalf("cached lookup: %v", err)
	}
	if second.ID != unit.ID {
		t.Fatal("expected cached unit")
	}
}

func TestGetByIMEIUnknownIsNotFound(t *testing.T) {
	client := dbtest.Open(t)
	svc := NewService(client, newFakeStore())

	_, err := svc.GetByIMEI(context.Background(), "000000000000000")
	typed := errors.As(err)
	if typed == nil || typed.Code() != errors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestInvalidateDropsCachedEntry(t *testing.T) {
	client := dbtest.Open(t)
	store := newFakeStore()
	svc := NewService(client, store)
	ctx := context.Background()

	unit := models.StockItem{
		IMEI:      "359871234567891",
		Brand:     "Apple",
		Model:     "iPhone 12",
		Status:    enums.StockAvailable,
		CostPrice: decimal.NewFromInt(250),
		ListPrice: decimal.NewFromInt(450),
	}
	if err := client.Gorm().Create(&unit).Error; err != nil {
		t.Fatalf("seed unit: %v", err)
	}

	if _, err := svc.GetByIMEI(ctx, unit.IMEI); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	svc.Invalidate(ctx, unit.IMEI)

	if len(store.data) != 0 {
		t.Fatalf("expected empty cache, got %d entries", len(store.data))
	}
}

func TestNilCacheDegradesToDatabase(t *testing.T) {
	client := dbtest.Open(t)
	svc := NewService(client, nil)

	unit := models.StockItem{
		IMEI:      "359871234567892",
		Brand:     "Xiaomi",
		Model:     "Redmi Note 11",
		Status:    enums.StockAvailable,
		CostPrice: decimal.NewFromInt(120),
		ListPrice: decimal.NewFromInt(200),
	}
	if err := client.Gorm().Create(&unit).Error; err != nil {
		t.Fatalf("seed unit: %v", err)
	}

	got, err := svc.GetByIMEI(context.Background(), unit.IMEI)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ID != unit.ID {
		t.Fatal("unexpected unit")
	}
}
