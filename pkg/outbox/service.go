package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/azafe/MyPhone-Backend/pkg/db/models"
	"github.com/azafe/MyPhone-Backend/pkg/enums"
)

// Emitter stages domain events inside the caller's transaction so the
// event commits or rolls back with the change that produced it.
type Emitter struct {
	repo *Repository
}

func NewEmitter(repo *Repository) *Emitter {
	return &Emitter{repo: repo}
}

// Emit stages one event on tx.
func (e *Emitter) Emit(
	ctx context.Context,
	tx *gorm.DB,
	eventType enums.OutboxEventType,
	aggregateType enums.OutboxAggregateType,
	aggregateID uuid.UUID,
	payload any,
) error {
	now := time.Now().UTC()
	envelope := Envelope{
		EventID:       uuid.New(),
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		OccurredAt:    now,
		Payload:       payload,
	}

	raw, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal outbox envelope: %w", err)
	}

	event := &models.OutboxEvent{
		ID:            envelope.EventID,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       raw,
		Status:        models.OutboxPending,
		NextAttemptAt: now,
	}
	return e.repo.WithTx(tx).Insert(ctx, event)
}
