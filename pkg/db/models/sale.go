package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/azafe/MyPhone-Backend/pkg/enums"
)

// Sale is the root aggregate of the transaction engine. A sale is
// created directly in its terminal-positive state and only ever moves
// to cancelled.
type Sale struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	SellerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"seller_id"`

	SaleDate time.Time `gorm:"not null;index" json:"sale_date"`

	Status        enums.SaleStatus    `gorm:"type:varchar(20);not null" json:"status"`
	PaymentMethod enums.PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`
	Currency      enums.Currency      `gorm:"type:varchar(3);not null" json:"currency"`
	FxRateUsed    decimal.Decimal     `gorm:"type:numeric(14,4);not null" json:"fx_rate_used"`

	Subtotal decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subtotal"`
	Discount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"discount"`
	Total    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`

	// Deposit is the amount taken up front when no explicit payment
	// entries accompany the sale.
	Deposit decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"deposit"`

	ReceivableStatus enums.ReceivableStatus `gorm:"type:varchar(20);not null" json:"receivable_status"`
	AmountPaid       decimal.Decimal        `gorm:"type:numeric(14,2);not null" json:"amount_paid"`
	BalanceDue       decimal.Decimal        `gorm:"type:numeric(14,2);not null" json:"balance_due"`

	Observations string `gorm:"type:text" json:"observations,omitempty"`

	Items      []SaleItem `gorm:"foreignKey:SaleID" json:"items,omitempty"`
	Payments   []Payment  `gorm:"foreignKey:SaleID" json:"payments,omitempty"`
	Warranties []Warranty `gorm:"foreignKey:SaleID" json:"warranties,omitempty"`

	CancelReason string     `gorm:"type:varchar(255)" json:"cancel_reason,omitempty"`
	CancelledBy  *uuid.UUID `gorm:"type:uuid" json:"cancelled_by,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Sale) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SaleItem binds exactly one serialized stock unit to a sale. Quantity
// is always 1; serialized units cannot be bundled.
type SaleItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SaleID      uuid.UUID `gorm:"type:uuid;not null;index" json:"sale_id"`
	StockItemID uuid.UUID `gorm:"type:uuid;not null;index" json:"stock_item_id"`

	Description string          `gorm:"type:varchar(255);not null" json:"description"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_price"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"line_total"`

	// CostSnapshot freezes the unit's cost at sale time for margin
	// reporting. Later cost corrections on the unit do not touch it.
	CostSnapshot decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"cost_snapshot"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *SaleItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
