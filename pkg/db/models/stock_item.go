package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/azafe/MyPhone-Backend/pkg/enums"
)

// StockItem is a serialized inventory unit, tracked individually by
// IMEI. A unit can back at most one active sale at a time.
type StockItem struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	IMEI string    `gorm:"type:varchar(32);not null;uniqueIndex" json:"imei"`

	Brand   string `gorm:"type:varchar(64);not null" json:"brand"`
	Model   string `gorm:"type:varchar(128);not null" json:"model"`
	Color   string `gorm:"type:varchar(64)" json:"color,omitempty"`
	Storage string `gorm:"type:varchar(32)" json:"storage,omitempty"`
	Battery int    `json:"battery,omitempty"`

	Status enums.StockStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	CostPrice decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"cost_price"`
	ListPrice decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"list_price"`

	// WarrantyDays is the default coverage granted when this unit is
	// sold without an explicit warranty override.
	WarrantyDays int `gorm:"not null;default:0" json:"warranty_days"`

	// SaleID is set while the unit backs an active sale and cleared on
	// cancellation.
	SaleID *uuid.UUID `gorm:"type:uuid;index" json:"sale_id,omitempty"`
	SoldAt *time.Time `json:"sold_at,omitempty"`

	Observations string `gorm:"type:text" json:"observations,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *StockItem) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
