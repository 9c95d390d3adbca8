package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
	"github.com/warunglabs/kasirpos-backend/pkg/enums"
)

// Repository owns the per-(product, warehouse) stock level and the
// append-only movement log.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to inventory operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddQuantity applies a signed delta to the stock level atomically and
// returns the resulting quantity. Missing rows are created with the delta
// as the opening level. Negative results are allowed; the movement log is
// the record of how the level got there.
func (r *Repository) AddQuantity(tx *gorm.DB, productID, warehouseID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	if tx == nil {
		return decimal.Zero, gorm.ErrInvalidTransaction
	}

	result := tx.Model(&models.ProductStock{}).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return decimal.Zero, result.Error
	}
	if result.RowsAffected == 0 {
		row := models.ProductStock{
			ID:          uuid.New(),
			ProductID:   productID,
			WarehouseID: warehouseID,
			Quantity:    delta,
		}
		if err := tx.Create(&row).Error; err != nil {
			return decimal.Zero, err
		}
		return delta, nil
	}

	var row models.ProductStock
	if err := tx.Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Quantity, nil
}

// SetQuantity overwrites the stock level and returns the previous value.
func (r *Repository) SetQuantity(tx *gorm.DB, productID, warehouseID uuid.UUID, quantity decimal.Decimal) (decimal.Decimal, error) {
	if tx == nil {
		return decimal.Zero, gorm.ErrInvalidTransaction
	}

	var row models.ProductStock
	err := tx.Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.ProductStock{
			ID:          uuid.New(),
			ProductID:   productID,
			WarehouseID: warehouseID,
			Quantity:    quantity,
		}
		if createErr := tx.Create(&row).Error; createErr != nil {
			return decimal.Zero, createErr
		}
		return decimal.Zero, nil
	case err != nil:
		return decimal.Zero, err
	}

	previous := row.Quantity
	if err := tx.Model(&models.ProductStock{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"quantity":   quantity,
			"updated_at": time.Now(),
		}).Error; err != nil {
		return decimal.Zero, err
	}
	return previous, nil
}

// AppendMovement writes one immutable log row.
func (r *Repository) AppendMovement(tx *gorm.DB, movement *models.InventoryLog) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if movement == nil {
		return fmt.Errorf("movement is required")
	}
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	return tx.Create(movement).Error
}

// GetStock returns the current level, zero if no row exists yet.
func (r *Repository) GetStock(ctx context.Context, productID, warehouseID uuid.UUID) (decimal.Decimal, error) {
	var row models.ProductStock
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return row.Quantity, nil
}

// UpdateMinStockLevel sets the low-stock threshold.
func (r *Repository) UpdateMinStockLevel(ctx context.Context, productID, warehouseID uuid.UUID, level decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&models.ProductStock{}).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Update("min_stock_level", level).Error
}

// StockView merges the level row with product directory fields for the
// stock listing and low-stock alerting.
type StockView struct {
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Category      string          `json:"category"`
	WarehouseID   uuid.UUID       `json:"warehouse_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
}

// ListStocks returns the merged stock view for one warehouse.
func (r *Repository) ListStocks(ctx context.Context, warehouseID uuid.UUID) ([]StockView, error) {
	var rows []StockView
	err := r.db.WithContext(ctx).
		Table("product_stocks").
		Select("product_stocks.product_id, products.name AS product_name, products.category, product_stocks.warehouse_id, product_stocks.quantity, product_stocks.min_stock_level").
		Joins("JOIN products ON products.id = product_stocks.product_id").
		Where("product_stocks.warehouse_id = ?", warehouseID).
		Order("products.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MovementFilter narrows ListMovements.
type MovementFilter struct {
	ProductID   *uuid.UUID
	WarehouseID *uuid.UUID
	Type        enums.MovementType
	From        time.Time
	To          time.Time
	Limit       int
}

// ListMovements returns log rows newest first.
func (r *Repository) ListMovements(ctx context.Context, filter MovementFilter) ([]models.InventoryLog, error) {
	query := r.db.WithContext(ctx).Model(&models.InventoryLog{}).Order("created_at DESC")
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if !filter.From.IsZero() {
		query = query.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("created_at < ?", filter.To)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var rows []models.InventoryLog
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
