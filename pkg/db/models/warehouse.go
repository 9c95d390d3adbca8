package models

import (
	"time"

	"github.com/google/uuid"
)

// Warehouse is a stock location shared by every cashier of the store.
// Exactly one warehouse is flagged primary; settlement always decrements
// the primary warehouse.
type Warehouse struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	IsPrimary bool      `gorm:"column:is_primary;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
