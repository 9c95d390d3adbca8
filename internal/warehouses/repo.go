package warehouses

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
)

// Repository handles warehouse persistence. Warehouses are shared by
// every cashier of the store; settlement always targets the single
// primary warehouse.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to warehouse operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new warehouse row.
func (r *Repository) Create(ctx context.Context, warehouse *models.Warehouse) error {
	if warehouse == nil {
		return fmt.Errorf("warehouse is required")
	}
	if warehouse.ID == uuid.Nil {
		warehouse.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(warehouse).Error
}

// FindByID loads a warehouse by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&warehouse).Error; err != nil {
		return nil, err
	}
	return &warehouse, nil
}

// FindPrimary returns the store's primary warehouse.
func (r *Repository) FindPrimary(ctx context.Context) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	if err := r.db.WithContext(ctx).
		Where("is_primary = ?", true).
		First(&warehouse).Error; err != nil {
		return nil, err
	}
	return &warehouse, nil
}

// List returns all warehouses, primary first.
func (r *Repository) List(ctx context.Context) ([]models.Warehouse, error) {
	var rows []models.Warehouse
	if err := r.db.WithContext(ctx).
		Order("is_primary DESC").
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SetPrimary flips the primary flag to the given warehouse atomically.
func (r *Repository) SetPrimary(ctx context.Context, warehouseID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Warehouse{}).
			Where("is_primary = ?", true).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		result := tx.Model(&models.Warehouse{}).
			Where("id = ?", warehouseID).
			Update("is_primary", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
