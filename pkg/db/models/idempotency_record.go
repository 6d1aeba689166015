package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Idempotency record statuses.
const (
	IdempotencyInProgress = "in_progress"
	IdempotencyCompleted  = "completed"
)

// IdempotencyRecord pins an (actor, route, key) triple to the request
// fingerprint it was first seen with and, once completed, the response
// that was produced. The unique index is what makes concurrent retries
// safe: only one inserter wins.
type IdempotencyRecord struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ActorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_idem_actor_route_key" json:"actor_id"`
	Route   string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_idem_actor_route_key" json:"route"`
	Key     string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_idem_actor_route_key" json:"key"`

	Fingerprint string `gorm:"type:char(64);not null" json:"fingerprint"`
	Status      string `gorm:"type:varchar(20);not null" json:"status"`

	ResponseStatus int    `json:"response_status,omitempty"`
	ResponseBody   []byte `gorm:"type:jsonb" json:"response_body,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ExpiresAt   time.Time  `gorm:"not null;index" json:"expires_at"`
}

func (r *IdempotencyRecord) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
