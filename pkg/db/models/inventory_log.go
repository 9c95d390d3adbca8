package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warunglabs/kasirpos-backend/pkg/enums"
)

// InventoryLog is one append-only stock movement. Rows are never edited or
// deleted. FinalStock snapshots the level at the time of the write; field
// names are part of the reporting wire format.
type InventoryLog struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ProductID    uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index"`
	WarehouseID  uuid.UUID          `gorm:"column:warehouse_id;type:uuid;not null;index"`
	ChangeAmount decimal.Decimal    `gorm:"column:change_amount;type:numeric;not null"`
	FinalStock   decimal.Decimal    `gorm:"column:final_stock;type:numeric;not null"`
	Type         enums.MovementType `gorm:"column:type;not null"`
	ReferenceID  *uuid.UUID         `gorm:"column:reference_id;type:uuid"`
	Notes        string             `gorm:"column:notes;not null;default:''"`
	CreatedBy    uuid.UUID          `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
}
