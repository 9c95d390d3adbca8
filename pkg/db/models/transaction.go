package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/warunglabs/kasirpos-backend/pkg/enums"
)

// Transaction is a settled sale. Immutable once created except for Status.
// Items is a serialized snapshot, never a live product reference. Column
// names and the profit/points arithmetic are the reporting wire format and
// must be preserved exactly.
type Transaction struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	Code           string                  `gorm:"column:code;not null;uniqueIndex"`
	IdempotencyKey *string                 `gorm:"column:idempotency_key;uniqueIndex"`
	Datetime       time.Time               `gorm:"column:datetime;not null;index"`
	UserID         uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	CustomerID     *uuid.UUID              `gorm:"column:customer_id;type:uuid;index"`
	Items          json.RawMessage         `gorm:"column:items;type:jsonb;not null"`
	Subtotal       int64                   `gorm:"column:subtotal;not null"`
	TotalCost      int64                   `gorm:"column:total_cost;not null"`
	TotalProfit    int64                   `gorm:"column:total_profit;not null"`
	PaymentMethod  enums.PaymentMethod     `gorm:"column:payment_method;not null"`
	CashReceived   int64                   `gorm:"column:cash_received;not null"`
	Change         int64                   `gorm:"column:change;not null"`
	PointsRedeemed int64                   `gorm:"column:points_redeemed;not null;default:0"`
	PointsEarned   int64                   `gorm:"column:points_earned;not null;default:0"`
	Status         enums.TransactionStatus `gorm:"column:status;not null;default:'completed'"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
}
