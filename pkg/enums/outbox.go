package enums

import "fmt"

// OutboxEventType names the reconciliation fix-up events a settlement can
// leave behind when a best-effort bookkeeping step fails.
type OutboxEventType string

const (
	EventStockReconcilePending   OutboxEventType = "reconcile.stock_pending"
	EventLoyaltyReconcilePending OutboxEventType = "reconcile.loyalty_pending"
)

var validOutboxEventTypes = []OutboxEventType{
	EventStockReconcilePending,
	EventLoyaltyReconcilePending,
}

// IsValid reports whether the value is a known OutboxEventType.
func (t OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into an OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateTransaction OutboxAggregateType = "transaction"
)
