package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/azafe/MyPhone-Backend/pkg/db"
	"github.com/azafe/MyPhone-Backend/pkg/db/models"
	"github.com/azafe/MyPhone-Backend/pkg/enums"
	"github.com/azafe/MyPhone-Backend/pkg/errors"
	"github.com/azafe/MyPhone-Backend/pkg/metrics"
)

// Locker claims and releases serialized stock units inside the sale
// transaction. Rows are locked FOR UPDATE so two concurrent sales of
// the same unit serialize at the database; the loser then fails the
// availability check.
type Locker struct{}

func NewLocker() *Locker {
	return &Locker{}
}

// sqlite (tests) has no FOR UPDATE; its single-writer model gives the
// same guarantee.
func withRowLock(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// Claim locks the given units in request order, verifies each is
// available, and marks them sold against saleID.
func (l *Locker) Claim(ctx context.Context, tx *gorm.DB, saleID uuid.UUID, unitIDs []uuid.UUID, at time.Time) ([]models.StockItem, error) {
	units := make([]models.StockItem, 0, len(unitIDs))
	for _, unitID := range unitIDs {
		var unit models.StockItem
		err := withRowLock(tx.WithContext(ctx)).
			Where("id = ?", unitID).
			First(&unit).Error
		if db.IsNotFound(err) {
			return nil, errors.New(errors.CodeNotFound, "stock unit not found").
				WithDetails(map[string]string{"stock_item_id": unitID.String()})
		}
		if err != nil {
			return nil, errors.Wrap(errors.CodeDependency, err, "lock stock unit")
		}

		if unit.Status != enums.StockAvailable {
			metrics.StockConflicts.Inc()
			return nil, errors.New(errors.CodeStockConflict,
				fmt.Sprintf("stock unit %s is %s", unit.IMEI, unit.Status)).
				WithDetails(map[string]string{
					"stock_item_id": unit.ID.String(),
					"imei":          unit.IMEI,
					"status":        unit.Status.String(),
				})
		}

		unit.Status = enums.StockSold
		unit.SaleID = &saleID
		soldAt := at
		unit.SoldAt = &soldAt
		if err := tx.WithContext(ctx).Save(&unit).Error; err != nil {
			return nil, errors.Wrap(errors.CodeDependency, err, "mark stock unit sold")
		}
		units = append(units, unit)
	}
	return units, nil
}

// Release returns every unit held by saleID to available stock.
func (l *Locker) Release(ctx context.Context, tx *gorm.DB, saleID uuid.UUID) ([]models.StockItem, error) {
	var units []models.StockItem
	err := withRowLock(tx.WithContext(ctx)).
		Where("sale_id = ?", saleID).
		Find(&units).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "load units for release")
	}

	for i := range units {
		units[i].Status = enums.StockAvailable
		units[i].SaleID = nil
		units[i].SoldAt = nil
		err := tx.WithContext(ctx).
			Model(&models.StockItem{}).
			Where("id = ?", units[i].ID).
			Updates(map[string]any{
				"status":  enums.StockAvailable,
				"sale_id": nil,
				"sold_at": nil,
			}).Error
		if err != nil {
			return nil, errors.Wrap(errors.CodeDependency, err, "release stock unit")
		}
	}
	return units, nil
}

// ReleaseUnits releases only the named units, used when an update swaps
// part of a sale's items.
func (l *Locker) ReleaseUnits(ctx context.Context, tx *gorm.DB, saleID uuid.UUID, unitIDs []uuid.UUID) error {
	if len(unitIDs) == 0 {
		return nil
	}
	err := tx.WithContext(ctx).
		Model(&models.StockItem{}).
		Where("id IN ? AND sale_id = ?", unitIDs, saleID).
		Updates(map[string]any{
			"status":  enums.StockAvailable,
			"sale_id": nil,
			"sold_at": nil,
		}).Error
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "release stock units")
	}
	return nil
}
