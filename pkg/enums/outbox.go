package enums

// OutboxEventType identifies a domain event queued for publication.
type OutboxEventType string

const (
	EventSaleCreated       OutboxEventType = "sale.created"
	EventSaleUpdated       OutboxEventType = "sale.updated"
	EventSaleCancelled     OutboxEventType = "sale.cancelled"
	EventPaymentRegistered OutboxEventType = "sale.payment_registered"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateSale OutboxAggregateType = "sale"
)

// String implements fmt.Stringer.
func (t OutboxEventType) String() string {
	return string(t)
}

// String implements fmt.Stringer.
func (t OutboxAggregateType) String() string {
	return string(t)
}
