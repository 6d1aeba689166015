package idempotency

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/azafe/MyPhone-Backend/pkg/db"
	"github.com/azafe/MyPhone-Backend/pkg/db/models"
	"github.com/azafe/MyPhone-Backend/pkg/errors"
)

// State classifies what Begin found for an (actor, route, key) triple.
type State int

const (
	// StateFresh means this coordinator claimed the key; the caller
	// must execute the operation and call Complete.
	StateFresh State = iota
	// StateReplay means the operation already completed; the stored
	// response must be returned verbatim.
	StateReplay
	// StateConflict means the key was reused with a different payload.
	StateConflict
	// StateInProgress means another request holds the key and has not
	// completed yet.
	StateInProgress
)

// Outcome is the result of Begin.
type Outcome struct {
	State  State
	Record *models.IdempotencyRecord
}

// Retention is how long a completed record answers replays before the
// key can be reused.
const Retention = 24 * time.Hour

// Coordinator enforces exactly-once execution for retried requests.
// The database unique index on (actor_id, route, key) is the arbiter:
// concurrent retries race on the insert and exactly one wins.
type Coordinator struct {
	client *db.Client
}

func NewCoordinator(client *db.Client) *Coordinator {
	return &Coordinator{client: client}
}

// Begin claims the key or reports what happened to it previously.
func (c *Coordinator) Begin(ctx context.Context, actorID uuid.UUID, route, key string, body []byte) (Outcome, error) {
	fingerprint := Fingerprint(body)

	for attempt := 0; attempt < 2; attempt++ {
		record := &models.IdempotencyRecord{
			ActorID:     actorID,
			Route:       route,
			Key:         key,
			Fingerprint: fingerprint,
			Status:      models.IdempotencyInProgress,
			ExpiresAt:   time.Now().UTC().Add(Retention),
		}
		err := c.client.Gorm().WithContext(ctx).Create(record).Error
		if err == nil {
			return Outcome{State: StateFresh, Record: record}, nil
		}
		if !db.IsUniqueViolation(err) {
			return Outcome{}, errors.Wrap(errors.CodeDependency, err, "claim idempotency key")
		}

		// Lost the insert race or the key was seen before; load the
		// winner's record and classify.
		var existing models.IdempotencyRecord
		loadErr := c.client.Gorm().WithContext(ctx).
			Where("actor_id = ? AND route = ? AND key = ?", actorID, route, key).
			First(&existing).Error
		if db.IsNotFound(loadErr) {
			// The holder was reclaimed or abandoned between our insert
			// and the lookup; try claiming again.
			continue
		}
		if loadErr != nil {
			return Outcome{}, errors.Wrap(errors.CodeDependency, loadErr, "load idempotency record")
		}

		if time.Now().UTC().After(existing.ExpiresAt) {
			// Past retention the record no longer answers replays; drop
			// it and claim the key fresh.
			delErr := c.client.Gorm().WithContext(ctx).
				Where("id = ? AND expires_at = ?", existing.ID, existing.ExpiresAt).
				Delete(&models.IdempotencyRecord{}).Error
			if delErr != nil {
				return Outcome{}, errors.Wrap(errors.CodeDependency, delErr, "reclaim expired idempotency record")
			}
			continue
		}

		if existing.Fingerprint != fingerprint {
			return Outcome{State: StateConflict, Record: &existing}, nil
		}
		if existing.Status == models.IdempotencyInProgress {
			return Outcome{State: StateInProgress, Record: &existing}, nil
		}
		return Outcome{State: StateReplay, Record: &existing}, nil
	}
	return Outcome{}, errors.New(errors.CodeConflict, "idempotency key is contended, retry the request")
}

// Complete stores the response for a key claimed via Begin. It is
// written once; replays read it back verbatim.
func (c *Coordinator) Complete(ctx context.Context, recordID uuid.UUID, status int, responseBody []byte) error {
	now := time.Now().UTC()
	err := c.client.Gorm().WithContext(ctx).
		Model(&models.IdempotencyRecord{}).
		Where("id = ? AND status = ?", recordID, models.IdempotencyInProgress).
		Updates(map[string]any{
			"status":          models.IdempotencyCompleted,
			"response_status": status,
			"response_body":   responseBody,
			"completed_at":    now,
		}).Error
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "complete idempotency record")
	}
	return nil
}

// Abandon releases a claimed key after the operation failed, so the
// client can retry.
func (c *Coordinator) Abandon(ctx context.Context, recordID uuid.UUID) error {
	err := c.client.Gorm().WithContext(ctx).
		Where("id = ? AND status = ?", recordID, models.IdempotencyInProgress).
		Delete(&models.IdempotencyRecord{}).Error
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "abandon idempotency record")
	}
	return nil
}
