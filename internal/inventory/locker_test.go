package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/azafe/MyPhone-Backend/pkg/db"
	"github.com/azafe/MyPhone-Backend/pkg/db/dbtest"
	"github.com/azafe/MyPhone-Backend/pkg/db/models"
	"github.com/azafe/MyPhone-Backend/pkg/enums"
	"github.com/azafe/MyPhone-Backend/pkg/errors"
)

func seedUnit(t *testing.T, client *db.Client, status enums.StockStatus) models.StockItem {
	t.Helper()
	unit := models.StockItem{
		IMEI:      uuid.NewString()[:15],
		Brand:     "Apple",
		Model:     "iPhone 13",
		Status:    status,
		CostPrice: decimal.NewFromInt(500),
		ListPrice: decimal.NewFromInt(800),
	}
	if err := client.Gorm().Create(&unit).Error; err != nil {
		t.Fatalf("seed unit: %v", err)
	}
	return unit
}

func TestClaimMarksUnitsSold(t *testing.T) {
	client := dbtest.Open(t)
	locker := NewLocker()
	ctx := context.Background()

	unit := seedUnit(t, client, enums.StockAvailable)
	saleID := uuid.New()
	soldAt := time.Now().UTC()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		claimed, err := locker.Claim(ctx, tx, saleID, []uuid.UUID{unit.ID}, soldAt)
		if err != nil {
			return err
		}
		if len(claimed) != 1 {
			t.Fatalf("expected 1 claimed unit, got %d", len(claimed))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}

	var got models.StockItem
	if err := client.Gorm().First(&got, "id = ?", unit.ID).Error; err != nil {
		t.Fatalf("reload unit: %v", err)
	}
	if got.Status != enums.StockSold {
		t.Fatalf("expected sold, got %s", got.Status)
	}
	if got.SaleID == nil || *got.SaleID != saleID {
		t.Fatal("expected unit bound to sale")
	}
	if got.SoldAt == nil {
		t.Fatal("expected sold_at set")
	}
}

func TestClaimRejectsUnavailableUnit(t *testing.T) {
	client := dbtest.Open(t)
	locker := NewLocker()
	ctx := context.Background()

	unit := seedUnit(t, client, enums.StockReserved)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := locker.Claim(ctx, tx, uuid.New(), []uuid.UUID{unit.ID}, time.Now())
		return err
	})
	typed := errors.As(err)
	if typed == nil || typed.Code() != errors.CodeStockConflict {
		t.Fatalf("expected stock conflict, got %v", err)
	}
}

func TestClaimTwiceFailsSecondSale(t *testing.T) {
	client := dbtest.Open(t)
	locker := NewLocker()
	ctx := context.Background()

	unit := seedUnit(t, client, enums.StockAvailable)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := locker.Claim(ctx, tx, uuid.New(), []uuid.UUID{unit.ID}, time.Now())
		return err
	})
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := locker.Claim(ctx, tx, uuid.New(), []uuid.UUID{unit.ID}, time.Now())
		return err
	})
	typed := errors.As(err)
	if typed == nil || typed.Code() != errors.CodeStockConflict {
		t.Fatalf("expected stock conflict on second sale, got %v", err)
	}
}

func TestClaimUnknownUnitIsNotFound(t *testing.T) {
	client := dbtest.Open(t)
	locker := NewLocker()
	ctx := context.Background()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := locker.Claim(ctx, tx, uuid.New(), []uuid.UUID{uuid.New()}, time.Now())
		return err
	})
	typed := errors.As(err)
	if typed == nil || typed.Code() != errors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestClaimFailureRollsBackEarlierUnits(t *testing.T) {
	client := dbtest.Open(t)
	locker := NewLocker()
	ctx := context.Background()

	good := seedUnit(t, client, enums.StockAvailable)
	bad := seedUnit(t, client, enums.StockServiceTech)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := locker.Claim(ctx, tx, uuid.New(), []uuid.UUID{good.ID, bad.ID}, time.Now())
		return err
	})
	if errors.As(err) == nil {
		t.Fatalf("expected claim failure, got %v", err)
	}

	var got models.StockItem
	if err := client.Gorm().First(&got, "id = ?", good.ID).Error; err != nil {
		t.Fatalf("reload unit: %v", err)
	}
	if got.Status != enums.StockAvailable {
		t.Fatalf("expected rollback to available, got %s", got.Status)
	}
}

func TestReleaseRestoresUnits(t *testing.T) {
	client := dbtest.Open(t)
	locker := NewLocker()
	ctx := context.Background()

	unit := seedUnit(t, client, enums.StockAvailable)
	saleID := uuid.New()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := locker.Claim(ctx, tx, saleID, []uuid.UUID{unit.ID}, time.Now())
		return err
	})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		released, err := locker.Release(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if len(released) != 1 {
			t.Fatalf("expected 1 released unit, got %d", len(released))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}

	var got models.StockItem
	if err := client.Gorm().First(&got, "id = ?", unit.ID).Error; err != nil {
		t.Fatalf("reload unit: %v", err)
	}
	if got.Status != enums.StockAvailable {
		t.Fatalf("expected available, got %s", got.Status)
	}
	if got.SaleID != nil || got.SoldAt != nil {
		t.Fatal("expected sale binding cleared")
	}
}
