package models

import (
	"time"

	"github.com/google/uuid"
)

// MembershipTier is a spend-based membership level. DiscountPercent is
// tracked for display but is not consumed by settlement.
type MembershipTier struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name            string    `gorm:"column:name;not null"`
	MinSpend        int64     `gorm:"column:min_spend;not null;default:0"`
	DiscountPercent int       `gorm:"column:discount_percent;not null;default:0"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}
