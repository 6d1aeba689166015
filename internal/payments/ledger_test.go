package payments

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

func seedSale(t *testing.T, client *db.Client, currency enums.Currency, total string) *models.Sale {
	t.Helper()
	sale := &models.Sale{
		CustomerID:       uuid.New(),
		SellerID:         uuid.New(),
		SaleDate:         time.Now().UTC(),
		Status:           enums.SaleCompleted,
		PaymentMethod:    enums.PaymentMixed,
		Currency:         currency,
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

func register(t *testing.T, client *db.Client, ledger *Ledger, sale *models.Sale, entries []EntryInput) error {
	t.Helper()
	return client.WithTx(context.Background(), func(tx *gorm.DB) error {
		_, err := ledger.Register(context.Background(), tx, sale, entries)
		if err != nil {
			return err
		}
		return tx.Save(sale).Error
	})
}

func TestRegisterPartialPayment(t *testing.T) {
	client := dbtest.Open(t)
	ledger := NewLedger()
	sale := seedSale(t, client, enums.CurrencyARS, "1000.00")

	err := register(t, client, ledger, sale, []EntryInput{{
		Method:   enums.PaymentCash,
		Currency: enums.CurrencyARS,
		Amount:   decimal.RequireFromString("400.00"),
	}})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if sale.ReceivableStatus != enums.ReceivablePartial {
		t.Fatalf("expected partial, got %s", sale.ReceivableStatus)
	}
	if !sale.BalanceDue.Equal(decimal.RequireFromString("600.00")) {
		t.Fatalf("unexpected balance: %s", sale.BalanceDue)
	}
}

func TestRegisterUSDEntryOnARSSaleConverts(t *testing.T) {
	client := dbtest.Open(t)
	ledger := NewLedger()
	sale := seedSale(t, client, enums.CurrencyARS, "100000.00")

	err := register(t, client, ledger, sale, []EntryInput{{
		Method:   enums.PaymentCash,
		Currency: enums.CurrencyUSD,
		Amount:   decimal.RequireFromString("100.00"),
		FxRate:   decimal.RequireFromString("1000.00"),
	}})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if sale.ReceivableStatus != enums.ReceivablePaid {
		t.Fatalf("expected paid, got %s", sale.ReceivableStatus)
	}
	if !sale.AmountPaid.Equal(decimal.RequireFromString("100000.00")) {
		t.Fatalf("unexpected amount paid: %s", sale.AmountPaid)
	}
}

func TestRegisterUSDEntryWithoutFxFails(t *testing.T) {
	client := dbtest.Open(t)
	ledger := NewLedger()
	sale := seedSale(t, client, enums.CurrencyARS, "100000.00")

	err := register(t, client, ledger, sale, []EntryInput{{
		Method:   enums.PaymentTransfer,
		Currency: enums.CurrencyUSD,
		Amount:   decimal.RequireFromString("100.00"),
	}})
	typed := errors.As(err)
	if typed == nil || typed.Code() != errors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterRejectsOverpayment(t *testing.T) {
	client := dbtest.Open(t)
	ledger := NewLedger()
	sale := seedSale(t, client, enums.CurrencyARS, "1000.00")

	err := register(t, client, ledger, sale, []EntryInput{{
		Method:   enums.PaymentCash,
		Currency: enums.CurrencyARS,
		Amount:   decimal.RequireFromString("1500.00"),
	}})
	typed := errors.As(err)
	if typed == nil || typed.Code() != errors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	// The failed transaction must leave no ledger rows behind.
	var count int64
	client.Gorm().Model(&models.Payment{}).Where("sale_id = ?", sale.ID).Count(&count)
	if count != 0 {
		t.Fatalf("expected no payments after rollback, got %d", count)
	}
}

func TestRegisterWithinToleranceSettles(t *testing.T) {
	client := dbtest.Open(t)
	ledger := NewLedger()
	sale := seedSale(t, client, enums.CurrencyARS, "1000.00")

	err := register(t, client, ledger, sale, []EntryInput{{
		Method:   enums.PaymentCash,
		Currency: enums.CurrencyARS,
		Amount:   decimal.RequireFromString("999.99"),
	}})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sale.ReceivableStatus != enums.ReceivablePaid {
		t.Fatalf("expected paid within tolerance, got %s", sale.ReceivableStatus)
	}
	if !sale.BalanceDue.IsZero() {
		t.Fatalf("expected zero balance, got %s", sale.BalanceDue)
	}
}

func TestSettleClearsOutstandingBalance(t *testing.T) {
	client := dbtest.Open(t)
	ledger := NewLedger()
	sale := seedSale(t, client, enums.CurrencyARS, "1000.00")

	err := register(t, client, ledger, sale, []EntryInput{{
		Method:   enums.PaymentCash,
		Currency: enums.CurrencyARS,
		Amount:   decimal.RequireFromString("300.00"),
	}})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	err = client.WithTx(context.Background(), func(tx *gorm.DB) error {
		created, err := ledger.Settle(context.Background(), tx, sale, SettleInput{
			Method:   enums.PaymentCard,
			Currency: enums.CurrencyARS,
		})
		if err != nil {
			return err
		}
		if len(created) != 1 || !created[0].Amount.Equal(decimal.RequireFromString("700.00")) {
			t.Fatalf("expected one 700.00 entry, got %+v", created)
		}
		return tx.Save(sale).Error
	})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}

	if sale.ReceivableStatus != enums.ReceivablePaid || !sale.BalanceDue.IsZero() {
		t.Fatalf("expected paid with zero balance, got %s / %s", sale.ReceivableStatus, sale.BalanceDue)
	}
}

func TestSettleAlreadyPaidIsNoOp(t *testing.T) {
	client := dbtest.Open(t)
	ledger := NewLedger()
	sale := seedSale(t, client, enums.CurrencyARS, "1000.00")

	err := register(t, client, ledger, sale, []EntryInput{{
		Method:   enums.PaymentCash,
		Currency: enums.CurrencyARS,
		Amount:   decimal.RequireFromString("1000.00"),
	}})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	err = client.WithTx(context.Background(), func(tx *gorm.DB) error {
		created, err := ledger.Settle(context.Background(), tx, sale, SettleInput{
			Method:   enums.PaymentCash,
			Currency: enums.CurrencyARS,
		})
		if err != nil {
			return err
		}
		if len(created) != 0 {
			t.Fatalf("expected no new entries, got %d", len(created))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
}

func TestSettleInUSDPinsBaseToBalance(t *testing.T) {
	client := dbtest.Open(t)
	ledger := NewLedger()
	sale := seedSale(t, client, enums.CurrencyARS, "150001.00")

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		created, err := ledger.Settle(context.Background(), tx, sale, SettleInput{
			Method:   enums.PaymentTransfer,
			Currency: enums.CurrencyUSD,
			FxRate:   decimal.RequireFromString("1000.00"),
		})
		if err != nil {
			return err
		}
		// 150001/1000 rounds to 150.00 USD; the base amount still clears
		// the exact balance.
		if len(created) != 1 || !created[0].AmountBase.Equal(decimal.RequireFromString("150001.00")) {
			t.Fatalf("expected exact base amount, got %+v", created)
		}
		return tx.Save(sale).Error
	})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}

	if sale.ReceivableStatus != enums.ReceivablePaid || !sale.BalanceDue.IsZero() {
		t.Fatalf("expected paid with zero balance, got %s / %s", sale.ReceivableStatus, sale.BalanceDue)
	}
}

func TestRecomputeZeroTotalIsPaid(t *testing.T) {
	client := dbtest.Open(t)
	ledger := NewLedger()
	sale := seedSale(t, client, enums.CurrencyARS, "0.00")

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return ledger.Recompute(context.Background(), tx, sale)
	})
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}

	if sale.ReceivableStatus != enums.ReceivablePaid {
		t.Fatalf("expected paid with nothing owed, got %s", sale.ReceivableStatus)
	}
	if !sale.BalanceDue.IsZero() {
		t.Fatalf("expected zero balance, got %s", sale.BalanceDue)
	}
}

func TestReverseZeroesReceivable(t *testing.T) {
	client := dbtest.Open(t)
	ledger := NewLedger()
	sale := seedSale(t, client, enums.CurrencyARS, "1000.00")

	err := register(t, client, ledger, sale, []EntryInput{
		{Method: enums.PaymentCash, Currency: enums.CurrencyARS, Amount: decimal.RequireFromString("600.00")},
		{Method: enums.PaymentCard, Currency: enums.CurrencyARS, Amount: decimal.RequireFromString("400.00")},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	err = client.WithTx(context.Background(), func(tx *gorm.DB) error {
		reversals, err := ledger.Reverse(context.Background(), tx, sale, uuid.New())
		if err != nil {
			return err
		}
		if len(reversals) != 2 {
			t.Fatalf("expected 2 reversal entries, got %d", len(reversals))
		}
		return tx.Save(sale).Error
	})
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}

	if !sale.AmountPaid.IsZero() {
		t.Fatalf("expected zero paid after reversal, got %s", sale.AmountPaid)
	}
	if sale.ReceivableStatus != enums.ReceivablePending {
		t.Fatalf("expected pending after reversal, got %s", sale.ReceivableStatus)
	}

	// Reversing again must be a no-op: every live entry already has a
	// counter-entry.
	err = client.WithTx(context.Background(), func(tx *gorm.DB) error {
		reversals, err := ledger.Reverse(context.Background(), tx, sale, uuid.New())
		if err != nil {
			return err
		}
		if len(reversals) != 0 {
			t.Fatalf("expected no new reversals, got %d", len(reversals))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("second reverse: %v", err)
	}
}
