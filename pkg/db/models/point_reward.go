package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/warunglabs/kasirpos-backend/pkg/enums"
)

// PointReward is a catalog entry customers redeem points against. Only
// discount-type rewards participate in settlement; merchandise rewards are
// display-only.
type PointReward struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name           string           `gorm:"column:name;not null"`
	RewardType     enums.RewardType `gorm:"column:reward_type;not null;default:'discount'"`
	PointsCost     int64            `gorm:"column:points_cost;not null"`
	DiscountAmount int64            `gorm:"column:discount_amount;not null;default:0"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
}
