package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/warunglabs/kasirpos-backend/pkg/enums"
)

// OutboxEvent is a durable reconciliation task. Settlement appends one when
// a best-effort stock/loyalty step fails; the worker retries until
// ProcessedAt is set or the attempt budget is spent.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;not null"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;not null"`
	AggregateID   uuid.UUID                 `gorm:"column:aggregate_id;type:uuid;not null;index"`
	Payload       json.RawMessage           `gorm:"column:payload;type:jsonb;not null"`
	AttemptCount  int                       `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string                   `gorm:"column:last_error"`
	ProcessedAt   *time.Time                `gorm:"column:processed_at;index"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
