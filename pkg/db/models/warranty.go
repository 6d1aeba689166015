package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Warranty covers one sold stock unit for a number of days from the
// sale date. Cancelling the sale removes its warranties.
type Warranty struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SaleID      uuid.UUID `gorm:"type:uuid;not null;index" json:"sale_id"`
	SaleItemID  uuid.UUID `gorm:"type:uuid;not null" json:"sale_item_id"`
	StockItemID uuid.UUID `gorm:"type:uuid;not null;index" json:"stock_item_id"`

	Days      int       `gorm:"not null" json:"days"`
	StartsAt  time.Time `gorm:"not null" json:"starts_at"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (w *Warranty) BeforeCreate(_ *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
