package heldorders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
)

// Repository persists suspended cart snapshots.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to held-order operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new held order.
func (r *Repository) Create(ctx context.Context, order *models.HeldOrder) error {
	if order == nil {
		return fmt.Errorf("held order is required")
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(order).Error
}

// List returns the cashier's held orders, oldest first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]models.HeldOrder, error) {
	var rows []models.HeldOrder
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Take fetches and deletes the held order in one transaction. Recall is a
// move, not a copy; a second call for the same id finds nothing.
func (r *Repository) Take(ctx context.Context, id uuid.UUID) (*models.HeldOrder, error) {
	var order models.HeldOrder
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&order).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.HeldOrder{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Delete discards a held order without recalling it.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.HeldOrder{})
	return result.RowsAffected, result.Error
}
