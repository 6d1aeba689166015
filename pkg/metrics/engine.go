package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SaleOperations counts engine operations by operation name and
	// outcome (the error code, or "ok").
	SaleOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "myphone",
			Subsystem: "sales",
			Name:      "operations_total",
			Help:      "Sale engine operations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	// SaleOperationDuration observes engine operation latency.
	SaleOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "myphone",
			Subsystem: "sales",
			Name:      "operation_duration_seconds",
			Help:      "Sale engine operation latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// IdempotencyReplays counts requests served from a stored
	// idempotent response.
	IdempotencyReplays = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "myphone",
			Subsystem: "sales",
			Name:      "idempotency_replays_total",
			Help:      "Requests answered by replaying a stored response.",
		},
	)

	// StockConflicts counts claims rejected because the unit was not
	// available.
	StockConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "myphone",
			Subsystem: "inventory",
			Name:      "stock_conflicts_total",
			Help:      "Stock claims rejected due to unavailable units.",
		},
	)

	// OutboxPublished counts outbox events by publish outcome.
	OutboxPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "myphone",
			Subsystem: "outbox",
			Name:      "events_total",
			Help:      "Outbox publisher results by outcome.",
		},
		[]string{"outcome"},
	)
)
