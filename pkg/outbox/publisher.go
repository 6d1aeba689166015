package outbox

import (
	"context"
	"math/rand"
	"time"

	"github.com/azafe/MyPhone-Backend/pkg/config"
	"github.com/azafe/MyPhone-Backend/pkg/db/models"
	"github.com/azafe/MyPhone-Backend/pkg/logger"
	"github.com/azafe/MyPhone-Backend/pkg/metrics"
)

// MessagePublisher sends one message to a topic. Satisfied by the
// Pub/Sub client; tests substitute a fake.
type MessagePublisher interface {
	Publish(ctx context.Context, topicID string, data []byte, attrs map[string]string) (string, error)
}

// Publisher drains pending outbox rows to the event topic. Failures
// back off exponentially with jitter; rows that exhaust their attempts
// are parked as failed for manual replay.
type Publisher struct {
	repo    *Repository
	sender  MessagePublisher
	topicID string
	cfg     config.OutboxConfig
}

func NewPublisher(repo *Repository, sender MessagePublisher, topicID string, cfg config.OutboxConfig) *Publisher {
	return &Publisher{repo: repo, sender: sender, topicID: topicID, cfg: cfg}
}

// Run polls until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	interval := time.Duration(p.cfg.PollMillis) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info(ctx, "outbox publisher started", map[string]any{"topic": p.topicID})
	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "outbox publisher stopped", nil)
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				logger.Error(ctx, "outbox batch failed", err, nil)
			}
		}
	}
}

// ProcessBatch publishes one batch of due events and returns how many
// were published.
func (p *Publisher) ProcessBatch(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	events, err := p.repo.FetchDue(ctx, now, p.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, event := range events {
		attrs := map[string]string{
			"event_type":     event.EventType.String(),
			"aggregate_type": event.AggregateType.String(),
			"aggregate_id":   event.AggregateID.String(),
		}
		_, pubErr := p.sender.Publish(ctx, p.topicID, event.Payload, attrs)
		if pubErr == nil {
			if err := p.repo.MarkPublished(ctx, event.ID, time.Now().UTC()); err != nil {
				return published, err
			}
			metrics.OutboxPublished.WithLabelValues("published").Inc()
			published++
			continue
		}

		attempts := event.Attempts + 1
		if attempts >= p.cfg.MaxAttempts {
			if err := p.repo.MarkFailed(ctx, event.ID, pubErr.Error()); err != nil {
				return published, err
			}
			metrics.OutboxPublished.WithLabelValues("failed").Inc()
			logger.Error(ctx, "outbox event parked after max attempts", pubErr, map[string]any{
				"event_id": event.ID.String(),
			})
			continue
		}

		next := time.Now().UTC().Add(p.backoff(attempts))
		if err := p.repo.MarkRetry(ctx, event.ID, attempts, next, pubErr.Error()); err != nil {
			return published, err
		}
		metrics.OutboxPublished.WithLabelValues("retried").Inc()
	}
	return published, nil
}

// backoff doubles per attempt, capped, with up to 25% jitter.
func (p *Publisher) backoff(attempts int) time.Duration {
	base := time.Duration(p.cfg.BackoffBase) * time.Millisecond
	cap := time.Duration(p.cfg.BackoffCapMs) * time.Millisecond

	delay := base
	for i := 1; i < attempts && delay < cap; i++ {
		delay *= 2
	}
	if delay > cap {
		delay = cap
	}
	jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
	return delay + jitter
}

// PendingCount reports how many events are waiting to publish.
func (p *Publisher) PendingCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.repo.db.WithContext(ctx).
		Model(&models.OutboxEvent{}).
		Where("status = ?", models.OutboxPending).
		Count(&count).Error
	return count, err
}
