package outbox

import (
	"time"

	"github.com/google/uuid"

	"github.com/azafe/MyPhone-Backend/pkg/enums"
)

// Envelope is the wire shape published for every outbox event.
type Envelope struct {
	EventID       uuid.UUID                 `json:"event_id"`
	EventType     enums.OutboxEventType     `json:"event_type"`
	AggregateType enums.OutboxAggregateType `json:"aggregate_type"`
	AggregateID   uuid.UUID                 `json:"aggregate_id"`
	OccurredAt    time.Time                 `json:"occurred_at"`
	Payload       any                       `json:"payload"`
}
