package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/azafe/MyPhone-Backend/pkg/enums"
)

// AuditLogEntry is an append-only record of a state-changing operation.
// Entries are written in the same transaction as the change they
// describe, so an aborted operation leaves no trace.
type AuditLogEntry struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ActorID uuid.UUID `gorm:"type:uuid;not null;index" json:"actor_id"`

	Action     enums.AuditAction `gorm:"type:varchar(64);not null;index" json:"action"`
	EntityType string            `gorm:"type:varchar(64);not null" json:"entity_type"`
	EntityID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"entity_id"`

	Detail []byte `gorm:"type:jsonb" json:"detail,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (e *AuditLogEntry) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
