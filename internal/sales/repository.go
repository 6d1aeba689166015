package sales

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/azafe/MyPhone-Backend/pkg/db"
	"github.com/azafe/MyPhone-Backend/pkg/db/models"
	"github.com/azafe/MyPhone-Backend/pkg/errors"
)

// Repository loads and locks sale aggregates.
type Repository struct {
	client *db.Client
}

func NewRepository(client *db.Client) *Repository {
	return &Repository{client: client}
}

// LockByID loads the sale row under FOR UPDATE on tx. The sale row is
// always locked before any stock rows, which keeps lock ordering
// consistent across create, update, cancel and payment paths.
func (r *Repository) LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Sale, error) {
	query := tx.WithContext(ctx)
	if tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var sale models.Sale
	err := query.Where("id = ?", id).First(&sale).Error
	if db.IsNotFound(err) {
		return nil, errors.New(errors.CodeNotFound, "sale not found").
			WithDetails(map[string]string{"sale_id": id.String()})
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "lock sale")
	}
	return &sale, nil
}

// GetFull returns a sale with its items, payments and warranties.
func (r *Repository) GetFull(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.client.Gorm().WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Preload("Warranties").
		Where("id = ?", id).
		First(&sale).Error
	if db.IsNotFound(err) {
		return nil, errors.New(errors.CodeNotFound, "sale not found").
			WithDetails(map[string]string{"sale_id": id.String()})
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "load sale")
	}
	return &sale, nil
}

// List returns sales using cursor pagination, newest first.
func (r *Repository) List(ctx context.Context, opts listQuery) ([]models.Sale, error) {
	query := r.client.Gorm().WithContext(ctx).Model(&models.Sale{})

	if opts.status != "" {
		query = query.Where("status = ?", opts.status)
	}
	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.limit)

	var rows []models.Sale
	if err := query.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "list sales")
	}
	return rows, nil
}

// ItemsOf returns the sale's current items on tx.
func (r *Repository) ItemsOf(ctx context.Context, tx *gorm.DB, saleID uuid.UUID) ([]models.SaleItem, error) {
	var items []models.SaleItem
	err := tx.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("created_at asc").
		Find(&items).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "load sale items")
	}
	return items, nil
}
