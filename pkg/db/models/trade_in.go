package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/azafe/MyPhone-Backend/pkg/enums"
)

// TradeIn records a device taken as part of payment. The received
// device enters stock as a new unit; the valuation is credited against
// the sale's receivable as a trade_in payment entry.
type TradeIn struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SaleID      uuid.UUID `gorm:"type:uuid;not null;index" json:"sale_id"`
	StockItemID uuid.UUID `gorm:"type:uuid;not null" json:"stock_item_id"`
	PaymentID   uuid.UUID `gorm:"type:uuid;not null" json:"payment_id"`

	Valuation decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"valuation"`
	Currency  enums.Currency  `gorm:"type:varchar(3);not null" json:"currency"`

	CreatedAt time.Time `json:"created_at"`
}

func (t *TradeIn) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
