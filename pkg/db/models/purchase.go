package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase is a completed supplier receipt. Receiving a purchase books its
// items into the stock ledger with movement type purchase.
type Purchase struct {
	ID           uuid.UUID   `gorm:"column:id;type:uuid;primaryKey"`
	SupplierID   uuid.UUID   `gorm:"column:supplier_id;type:uuid;not null;index"`
	WarehouseID  uuid.UUID   `gorm:"column:warehouse_id;type:uuid;not null;index"`
	PurchaseDate time.Time   `gorm:"column:purchase_date;not null"`
	Total        int64       `gorm:"column:total;not null"`
	Status       string      `gorm:"column:status;not null;default:'completed'"`
	CreatedBy    uuid.UUID   `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt    time.Time   `gorm:"column:created_at;autoCreateTime"`
	Items        []PurchaseItem `gorm:"foreignKey:PurchaseID"`
}

// PurchaseItem is one received product line on a purchase.
type PurchaseItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	PurchaseID uuid.UUID       `gorm:"column:purchase_id;type:uuid;not null;index"`
	ProductID  uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Qty        decimal.Decimal `gorm:"column:qty;type:numeric;not null"`
	UnitCost   int64           `gorm:"column:unit_cost;not null"`
}
