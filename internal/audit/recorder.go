package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/azafe/MyPhone-Backend/pkg/db/models"
	"github.com/azafe/MyPhone-Backend/pkg/enums"
	"github.com/azafe/MyPhone-Backend/pkg/errors"
)

// Recorder appends audit entries inside the caller's transaction, so
// an aborted operation leaves no audit trace.
type Recorder struct{}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Entry is one state change to record.
type Entry struct {
	ActorID    uuid.UUID
	Action     enums.AuditAction
	EntityType string
	EntityID   uuid.UUID
	Detail     any
}

// Record writes one entry on tx.
func (r *Recorder) Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	var detail []byte
	if entry.Detail != nil {
		raw, err := json.Marshal(entry.Detail)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "marshal audit detail")
		}
		detail = raw
	}

	row := &models.AuditLogEntry{
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Detail:     detail,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		return errors.Wrap(errors.CodeDependency, err, "insert audit entry")
	}
	return nil
}
