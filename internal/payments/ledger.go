package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/azafe/MyPhone-Backend/pkg/db/models"
	"github.com/azafe/MyPhone-Backend/pkg/enums"
	"github.com/azafe/MyPhone-Backend/pkg/errors"
)

// Tolerance is the maximum rounding drift allowed when comparing money
// amounts.
var Tolerance = decimal.RequireFromString("0.01")

// EntryInput is one payment line to append to a sale's ledger.
type EntryInput struct {
	Method       enums.PaymentMethod
	Currency     enums.Currency
	Amount       decimal.Decimal
	FxRate       decimal.Decimal
	Installments int
	SurchargePct decimal.Decimal
	Reference    string
	Note         string
	RecordedBy   uuid.UUID
	ReceivedAt   time.Time
}

// SettleInput clears a sale's outstanding balance with one synthesized
// entry; the amount is always derived server-side.
type SettleInput struct {
	Method     enums.PaymentMethod
	Currency   enums.Currency
	FxRate     decimal.Decimal
	Note       string
	RecordedBy uuid.UUID
}

// Ledger appends immutable payment entries and keeps the sale's
// receivable balance consistent with them. All writes happen on the
// caller's transaction.
type Ledger struct{}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Register validates and appends entries, then recomputes the sale's
// receivable. The sale row is updated in place; the caller persists it.
func (l *Ledger) Register(ctx context.Context, tx *gorm.DB, sale *models.Sale, entries []EntryInput) ([]models.Payment, error) {
	if sale.Status == enums.SaleCancelled {
		return nil, errors.New(errors.CodeConflict, "sale is cancelled")
	}

	created := make([]models.Payment, 0, len(entries))
	for i, entry := range entries {
		row, err := l.buildEntry(sale, entry)
		if err != nil {
			return nil, errors.As(err).WithDetails(map[string]any{"entry_index": i})
		}
		if err := tx.WithContext(ctx).Create(row).Error; err != nil {
			return nil, errors.Wrap(errors.CodeDependency, err, "insert payment entry")
		}
		created = append(created, *row)
	}

	if err := l.Recompute(ctx, tx, sale); err != nil {
		return nil, err
	}

	if sale.AmountPaid.GreaterThan(sale.Total.Add(Tolerance)) {
		return nil, errors.New(errors.CodeValidation, "payments exceed sale total").
			WithDetails(map[string]string{
				"total":       sale.Total.StringFixed(2),
				"amount_paid": sale.AmountPaid.StringFixed(2),
			})
	}
	return created, nil
}

// Settle posts one entry covering the outstanding balance. Settling an
// already-paid sale is a no-op returning the current state.
func (l *Ledger) Settle(ctx context.Context, tx *gorm.DB, sale *models.Sale, in SettleInput) ([]models.Payment, error) {
	if sale.Status == enums.SaleCancelled {
		return nil, errors.New(errors.CodeConflict, "sale is cancelled")
	}

	if err := l.Recompute(ctx, tx, sale); err != nil {
		return nil, err
	}
	if !sale.BalanceDue.IsPositive() {
		return nil, nil
	}

	balance := sale.BalanceDue
	amount := balance
	switch {
	case in.Currency == sale.Currency:
		// Settles in the sale's own currency, no conversion.
	case in.Currency == enums.CurrencyUSD && sale.Currency == enums.CurrencyARS:
		if !in.FxRate.IsPositive() {
			return nil, errors.New(errors.CodeValidation, "fx_rate is required to settle in USD")
		}
		amount = amount.Div(in.FxRate)
	case in.Currency == enums.CurrencyARS && sale.Currency == enums.CurrencyUSD:
		if !in.FxRate.IsPositive() {
			return nil, errors.New(errors.CodeValidation, "fx_rate is required to settle in ARS")
		}
		amount = amount.Mul(in.FxRate)
	default:
		return nil, errors.New(errors.CodeValidation,
			fmt.Sprintf("unsupported currency pair %s/%s", in.Currency, sale.Currency))
	}

	row, err := l.buildEntry(sale, EntryInput{
		Method:     in.Method,
		Currency:   in.Currency,
		Amount:     amount.Round(2),
		FxRate:     in.FxRate,
		Note:       in.Note,
		RecordedBy: in.RecordedBy,
	})
	if err != nil {
		return nil, err
	}
	// Pin the base amount to the exact balance so converted settlements
	// cannot leave a rounding residue on the receivable.
	row.AmountBase = balance

	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "insert settlement entry")
	}
	if err := l.Recompute(ctx, tx, sale); err != nil {
		return nil, err
	}
	return []models.Payment{*row}, nil
}

// Reverse appends a negative counter-entry for every live payment and
// zeroes the receivable. Used by cancellation; original rows are never
// touched.
func (l *Ledger) Reverse(ctx context.Context, tx *gorm.DB, sale *models.Sale, actorID uuid.UUID) ([]models.Payment, error) {
	var existing []models.Payment
	err := tx.WithContext(ctx).
		Where("sale_id = ?", sale.ID).
		Order("created_at asc").
		Find(&existing).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "load payment entries")
	}

	reversed := make(map[uuid.UUID]bool, len(existing))
	for _, p := range existing {
		if p.ReversalOf != nil {
			reversed[*p.ReversalOf] = true
		}
	}

	now := time.Now().UTC()
	created := make([]models.Payment, 0, len(existing))
	for _, p := range existing {
		if p.ReversalOf != nil || reversed[p.ID] {
			continue
		}
		original := p.ID
		row := &models.Payment{
			SaleID:       sale.ID,
			Method:       p.Method,
			Currency:     p.Currency,
			Amount:       p.Amount.Neg(),
			FxRateUsed:   p.FxRateUsed,
			AmountBase:   p.AmountBase.Neg(),
			Installments: p.Installments,
			SurchargePct: p.SurchargePct,
			Reference:    p.Reference,
			ReversalOf:   &original,
			ReceivedAt:   now,
		}
		if actorID != uuid.Nil {
			recordedBy := actorID
			row.RecordedBy = &recordedBy
		}
		if err := tx.WithContext(ctx).Create(row).Error; err != nil {
			return nil, errors.Wrap(errors.CodeDependency, err, "insert reversal entry")
		}
		created = append(created, *row)
	}

	return created, l.Recompute(ctx, tx, sale)
}

// buildEntry validates one input line and converts its amount into the
// sale's currency.
func (l *Ledger) buildEntry(sale *models.Sale, entry EntryInput) (*models.Payment, error) {
	if !entry.Method.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown payment method %q", entry.Method))
	}
	if !entry.Currency.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown currency %q", entry.Currency))
	}
	if !entry.Amount.IsPositive() {
		return nil, errors.New(errors.CodeValidation, "payment amount must be positive")
	}
	if entry.Installments < 0 || entry.SurchargePct.IsNegative() {
		return nil, errors.New(errors.CodeValidation, "installments and surcharge must not be negative")
	}

	fxUsed := entry.FxRate
	base := entry.Amount

	switch {
	case entry.Currency == sale.Currency:
		if fxUsed.IsZero() {
			fxUsed = decimal.NewFromInt(1)
		}
	case entry.Currency == enums.CurrencyUSD && sale.Currency == enums.CurrencyARS:
		if !fxUsed.IsPositive() {
			return nil, errors.New(errors.CodeValidation, "fx_rate is required for USD entries on an ARS sale")
		}
		base = entry.Amount.Mul(fxUsed)
	case entry.Currency == enums.CurrencyARS && sale.Currency == enums.CurrencyUSD:
		if !fxUsed.IsPositive() {
			return nil, errors.New(errors.CodeValidation, "fx_rate is required for ARS entries on a USD sale")
		}
		base = entry.Amount.Div(fxUsed)
	default:
		return nil, errors.New(errors.CodeValidation,
			fmt.Sprintf("unsupported currency pair %s/%s", entry.Currency, sale.Currency))
	}

	receivedAt := entry.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}
	installments := entry.Installments
	if installments == 0 {
		installments = 1
	}

	row := &models.Payment{
		SaleID:       sale.ID,
		Method:       entry.Method,
		Currency:     entry.Currency,
		Amount:       entry.Amount.Round(2),
		FxRateUsed:   fxUsed,
		AmountBase:   base.Round(2),
		Installments: installments,
		SurchargePct: entry.SurchargePct,
		Reference:    entry.Reference,
		Note:         entry.Note,
		ReceivedAt:   receivedAt,
	}
	if entry.RecordedBy != uuid.Nil {
		recordedBy := entry.RecordedBy
		row.RecordedBy = &recordedBy
	}
	return row, nil
}

// Recompute refreshes amount_paid, balance_due and receivable_status
// from the full ledger.
func (l *Ledger) Recompute(ctx context.Context, tx *gorm.DB, sale *models.Sale) error {
	var rows []models.Payment
	err := tx.WithContext(ctx).
		Select("amount_base").
		Where("sale_id = ?", sale.ID).
		Find(&rows).Error
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "sum payment entries")
	}

	paid := decimal.Zero
	for _, row := range rows {
		paid = paid.Add(row.AmountBase)
	}

	balance := sale.Total.Sub(paid)
	sale.AmountPaid = paid
	sale.BalanceDue = balance

	switch {
	case balance.LessThanOrEqual(Tolerance):
		// Nothing outstanding, including zero-total sales that never
		// took a payment.
		sale.ReceivableStatus = enums.ReceivablePaid
		sale.BalanceDue = decimal.Zero
	case paid.IsPositive():
		sale.ReceivableStatus = enums.ReceivablePartial
	default:
		sale.ReceivableStatus = enums.ReceivablePending
	}
	return nil
}
