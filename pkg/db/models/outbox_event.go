package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/azafe/MyPhone-Backend/pkg/enums"
)

// Outbox event statuses.
const (
	OutboxPending   = "pending"
	OutboxPublished = "published"
	OutboxFailed    = "failed"
)

// OutboxEvent is a domain event committed alongside the change that
// produced it. A background publisher drains pending rows to Pub/Sub.
type OutboxEvent struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	AggregateType enums.OutboxAggregateType `gorm:"type:varchar(32);not null" json:"aggregate_type"`
	AggregateID   uuid.UUID                 `gorm:"type:uuid;not null;index" json:"aggregate_id"`
	EventType     enums.OutboxEventType     `gorm:"type:varchar(64);not null" json:"event_type"`

	Payload []byte `gorm:"type:jsonb;not null" json:"payload"`

	Status        string     `gorm:"type:varchar(20);not null;index" json:"status"`
	Attempts      int        `gorm:"not null" json:"attempts"`
	NextAttemptAt time.Time  `gorm:"not null;index" json:"next_attempt_at"`
	LastError     string     `gorm:"type:text" json:"last_error,omitempty"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (e *OutboxEvent) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
