package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is the buyer on a sale. Resolved by phone number at sale
// time; created on the fly when unknown.
type Customer struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name  string    `gorm:"type:varchar(128);not null" json:"name"`
	Phone string    `gorm:"type:varchar(32);not null;uniqueIndex" json:"phone"`
	Email string    `gorm:"type:varchar(128)" json:"email,omitempty"`
	DNI   string    `gorm:"type:varchar(32)" json:"dni,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Customer) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
