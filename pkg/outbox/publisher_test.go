package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/azafe/MyPhone-Backend/pkg/config"
	"github.com/azafe/MyPhone-Backend/pkg/db"
	"github.com/azafe/MyPhone-Backend/pkg/db/dbtest"
	"github.com/azafe/MyPhone-Backend/pkg/db/models"
	"github.com/azafe/MyPhone-Backend/pkg/enums"
)

type fakeSender struct {
	published []string
	fail      bool
}

func (f *fakeSender) Publish(_ context.Context, _ string, data []byte, _ map[string]string) (string, error) {
	if f.fail {
		return "", errors.New("broker unavailable")
	}
	f.published = append(f.published, string(data))
	return uuid.NewString(), nil
}

func testConfig() config.OutboxConfig {
	return config.OutboxConfig{
		BatchSize:    10,
		PollMillis:   100,
		MaxAttempts:  3,
		BackoffBase:  10,
		BackoffCapMs: 100,
	}
}

func seedEvent(t *testing.T, client *db.Client) models.OutboxEvent {
	t.Helper()
	event := models.OutboxEvent{
		AggregateType: enums.AggregateSale,
		AggregateID:   uuid.New(),
		EventType:     enums.EventSaleCreated,
		Payload:       []byte(`{"sale_id":"x"}`),
		Status:        models.OutboxPending,
		NextAttemptAt: time.Now().UTC().Add(-time.Second),
	}
	if err := client.Gorm().Create(&event).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return event
}

func TestProcessBatchPublishesDueEvents(t *testing.T) {
	client := dbtest.Open(t)
	sender := &fakeSender{}
	publisher := NewPublisher(NewRepository(client.Gorm()), sender, "sale-events", testConfig())

	event := seedEvent(t, client)

	n, err := publisher.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if n != 1 || len(sender.published) != 1 {
		t.Fatalf("expected one published event, got %d", n)
	}

	var got models.OutboxEvent
	if err := client.Gorm().First(&got, "id = ?", event.ID).Error; err != nil {
		t.Fatalf("reload event: %v", err)
	}
	if got.Status != models.OutboxPublished {
		t.Fatalf("expected published, got %s", got.Status)
	}
	if got.PublishedAt == nil {
		t.Fatal("expected published_at set")
	}
}

func TestProcessBatchSchedulesRetryOnFailure(t *testing.T) {
	client := dbtest.Open(t)
	sender := &fakeSender{fail: true}
	publisher := NewPublisher(NewRepository(client.Gorm()), sender, "sale-events", testConfig())

	event := seedEvent(t, client)

	if _, err := publisher.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}

	var got models.OutboxEvent
	if err := client.Gorm().First(&got, "id = ?", event.ID).Error; err != nil {
		t.Fatalf("reload event: %v", err)
	}
	if got.Status != models.OutboxPending {
		t.Fatalf("expected still pending, got %s", got.Status)
	}
	if got.Attempts != 1 {
		t.Fatalf("expected one attempt, got %d", got.Attempts)
	}
	if !got.NextAttemptAt.After(time.Now().UTC().Add(-time.Millisecond)) {
		t.Fatal("expected backoff before next attempt")
	}
	if got.LastError == "" {
		t.Fatal("expected last error recorded")
	}
}

func TestProcessBatchParksEventAfterMaxAttempts(t *testing.T) {
	client := dbtest.Open(t)
	sender := &fakeSender{fail: true}
	cfg := testConfig()
	cfg.MaxAttempts = 1
	publisher := NewPublisher(NewRepository(client.Gorm()), sender, "sale-events", cfg)

	event := seedEvent(t, client)

	if _, err := publisher.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}

	var got models.OutboxEvent
	if err := client.Gorm().First(&got, "id = ?", event.ID).Error; err != nil {
		t.Fatalf("reload event: %v", err)
	}
	if got.Status != models.OutboxFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
}

func TestProcessBatchSkipsFutureEvents(t *testing.T) {
	client := dbtest.Open(t)
	sender := &fakeSender{}
	publisher := NewPublisher(NewRepository(client.Gorm()), sender, "sale-events", testConfig())

	event := models.OutboxEvent{
		AggregateType: enums.AggregateSale,
		AggregateID:   uuid.New(),
		EventType:     enums.EventSaleCreated,
		Payload:       []byte(`{}`),
		Status:        models.OutboxPending,
		NextAttemptAt: time.Now().UTC().Add(time.Hour),
	}
	if err := client.Gorm().Create(&event).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}

	n, err := publisher.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected nothing published, got %d", n)
	}
}

func TestEmitStagesEventInTransaction(t *testing.T) {
	client := dbtest.Open(t)
	emitter := NewEmitter(NewRepository(client.Gorm()))
	ctx := context.Background()

	saleID := uuid.New()
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return emitter.Emit(ctx, tx, enums.EventSaleCreated, enums.AggregateSale, saleID, map[string]any{"total": "10.00"})
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	var got models.OutboxEvent
	if err := client.Gorm().First(&got, "aggregate_id = ?", saleID).Error; err != nil {
		t.Fatalf("load event: %v", err)
	}
	if got.Status != models.OutboxPending {
		t.Fatalf("expected pending, got %s", got.Status)
	}
}
