package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/warunglabs/kasirpos-backend/pkg/types"
)

// Product is directory data. Settlement snapshots prices into the
// transaction, so later edits never affect recorded sales.
type Product struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID   uuid.UUID       `gorm:"column:owner_id;type:uuid;not null;index"`
	Name      string          `gorm:"column:name;not null"`
	Category  string          `gorm:"column:category;not null;default:''"`
	SellPrice int64           `gorm:"column:sell_price;not null"`
	CostPrice int64           `gorm:"column:cost_price;not null"`
	Modifiers types.Modifiers `gorm:"column:modifiers;type:jsonb;serializer:json"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
