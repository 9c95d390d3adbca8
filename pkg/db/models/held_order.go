package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// HeldOrder is a named, suspended cart snapshot. Created on hold, destroyed
// on recall or explicit delete. Names are not unique.
type HeldOrder struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Items     json.RawMessage `gorm:"column:items;type:jsonb;not null"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
