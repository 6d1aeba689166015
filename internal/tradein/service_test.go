package tradein

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/azafe/MyPhone-Backend/internal/payments"
	"github.com/azafe/MyPhone-Backend/pkg/db"
	"github.com/azafe/MyPhone-Backend/pkg/db/dbtest"
	"github.com/azafe/MyPhone-Backend/pkg/db/models"
	"github.com/azafe/MyPhone-Backend/pkg/enums"
	"github.com/azafe/MyPhone-Backend/pkg/errors"
)

func seedSale(t *testing.T, client *db.Client, total string) *models.Sale {
	t.Helper()
	sale := &models.Sale{
		CustomerID:       uuid.New(),
		SellerID:         uuid.New(),
		SaleDate:         time.Now().UTC(),
		Status:           enums.SaleCompleted,
		PaymentMethod:    enums.PaymentTradeIn,
		Currency:         enums.CurrencyARS,
		FxRateUsed:       decimal.NewFromInt(1),
		Subtotal:         decimal.RequireFromString(total),
		Discount:         decimal.Zero,
		Total:            decimal.RequireFromString(total),
		ReceivableStatus: enums.ReceivablePending,
		AmountPaid:       decimal.Zero,
		BalanceDue:       decimal.RequireFromString(total),
	}
	if err := client.Gorm().Create(sale).Error; err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	return sale
}

func TestIntakeCreditsValuation(t *testing.T) {
	client := dbtest.Open(t)
	svc := NewService(payments.NewLedger())
	ctx := context.Background()
	sale := seedSale(t, client, "500000.00")

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		record, err := svc.Intake(ctx, tx, sale, Input{
			IMEI:      "353912345678901",
			Brand:     "Apple",
			Model:     "iPhone 11",
			Valuation: decimal.RequireFromString("200000.00"),
			Currency:  enums.CurrencyARS,
		})
		if err != nil {
			return err
		}
		if record.PaymentID == uuid.Nil {
			t.Fatal("expected ledger entry bound to trade-in")
		}
		return tx.Save(sale).Error
	})
	if err != nil {
		t.Fatalf("intake: %v", err)
	}

	if sale.ReceivableStatus != enums.ReceivablePartial {
		t.Fatalf("expected partial, got %s", sale.ReceivableStatus)
	}
	if !sale.AmountPaid.Equal(decimal.RequireFromString("200000.00")) {
		t.Fatalf("unexpected amount paid: %s", sale.AmountPaid)
	}

	var unit models.StockItem
	if err := client.Gorm().First(&unit, "imei = ?", "353912345678901").Error; err != nil {
		t.Fatalf("load trade-in unit: %v", err)
	}
	if unit.Status != enums.StockDrawer {
		t.Fatalf("expected drawer status, got %s", unit.Status)
	}
}

func TestIntakeRejectsKnownIMEI(t *testing.T) {
	client := dbtest.Open(t)
	svc := NewService(payments.NewLedger())
	ctx := context.Background()
	sale := seedSale(t, client, "500000.00")

	existing := models.StockItem{
		IMEI:      "353912345678902",
		Brand:     "Apple",
		Model:     "iPhone 11",
		Status:    enums.StockAvailable,
		CostPrice: decimal.NewFromInt(100),
		ListPrice: decimal.NewFromInt(150),
	}
	if err := client.Gorm().Create(&existing).Error; err != nil {
		t.Fatalf("seed unit: %v", err)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := svc.Intake(ctx, tx, sale, Input{
			IMEI:      "353912345678902",
			Valuation: decimal.RequireFromString("100000.00"),
			Currency:  enums.CurrencyARS,
		})
		return err
	})
	typed := errors.As(err)
	if typed == nil || typed.Code() != errors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestIntakeRequiresPositiveValuation(t *testing.T) {
	client := dbtest.Open(t)
	svc := NewService(payments.NewLedger())
	ctx := context.Background()
	sale := seedSale(t, client, "500000.00")

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := svc.Intake(ctx, tx, sale, Input{
			IMEI:      "353912345678903",
			Valuation: decimal.Zero,
			Currency:  enums.CurrencyARS,
		})
		return err
	})
	typed := errors.As(err)
	if typed == nil || typed.Code() != errors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
