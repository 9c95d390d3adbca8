package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStock is the mutable current-level projection per (product,
// warehouse). Quantities are fractional (weighed goods). The movement log
// is the audit source of truth; this row may go negative on oversell.
type ProductStock struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_product_warehouse"`
	WarehouseID   uuid.UUID       `gorm:"column:warehouse_id;type:uuid;not null;uniqueIndex:idx_product_warehouse"`
	Quantity      decimal.Decimal `gorm:"column:quantity;type:numeric;not null"`
	MinStockLevel decimal.Decimal `gorm:"column:min_stock_level;type:numeric;not null"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
