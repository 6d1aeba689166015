package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/azafe/MyPhone-Backend/pkg/enums"
)

// Payment is an immutable ledger entry against a sale's receivable.
// Corrections and cancellations never mutate a row; they append a
// negative entry referencing the original via ReversalOf.
type Payment struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SaleID uuid.UUID `gorm:"type:uuid;not null;index" json:"sale_id"`

	Method   enums.PaymentMethod `gorm:"type:varchar(20);not null" json:"method"`
	Currency enums.Currency      `gorm:"type:varchar(3);not null" json:"currency"`
	Amount   decimal.Decimal     `gorm:"type:numeric(14,2);not null" json:"amount"`

	// FxRateUsed is the ARS-per-USD rate captured at entry time. 1 for
	// ARS entries.
	FxRateUsed decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"fx_rate_used"`
	// AmountBase is the amount converted into the sale's currency at
	// FxRateUsed, the value the receivable balance is computed from.
	AmountBase decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount_base"`

	// Card metadata. Installments is 1 for single-charge entries.
	Installments int             `gorm:"not null;default:1" json:"installments"`
	SurchargePct decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0" json:"surcharge_pct"`

	Reference  string     `gorm:"type:varchar(128)" json:"reference,omitempty"`
	Note       string     `gorm:"type:text" json:"note,omitempty"`
	RecordedBy *uuid.UUID `gorm:"type:uuid" json:"recorded_by,omitempty"`
	ReversalOf *uuid.UUID `gorm:"type:uuid" json:"reversal_of,omitempty"`

	ReceivedAt time.Time `gorm:"not null" json:"received_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func (p *Payment) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
