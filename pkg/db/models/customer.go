package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer holds the loyalty point balance. Points are mutated only by
// settlement; there is no per-event point ledger beyond the transaction's
// points_redeemed/points_earned fields.
type Customer struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name       string     `gorm:"column:name;not null"`
	Phone      string     `gorm:"column:phone;not null;uniqueIndex"`
	Points     int64      `gorm:"column:points;not null;default:0"`
	TotalSpend int64      `gorm:"column:total_spend;not null;default:0"`
	TierID     *uuid.UUID `gorm:"column:tier_id;type:uuid"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	Tier *MembershipTier `gorm:"foreignKey:TierID"`
}
