package models

import (
	"time"

	"github.com/google/uuid"
)

// Expense is an out-of-pocket cost (rent, restock, utilities) booked
// against a calendar date. Amounts are whole rupiah like everything else.
type Expense struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID   uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	Category  string    `gorm:"column:category;not null;default:''"`
	Amount    int64     `gorm:"column:amount;not null"`
	Date      time.Time `gorm:"column:date;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
