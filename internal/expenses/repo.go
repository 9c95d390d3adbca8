package expenses

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
)

// Repository handles the expense book. Expenses never touch settlement;
// reporting subtracts them from gross profit for the net figure.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to expense operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new expense row.
func (r *Repository) Create(ctx context.Context, expense *models.Expense) error {
	if expense == nil {
		return fmt.Errorf("expense is required")
	}
	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(expense).Error
}

// ListByDateRange returns the owner's expenses within [from, to],
// newest date first. Bounds compare on the calendar date.
func (r *Repository) ListByDateRange(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.Expense, error) {
	var rows []models.Expense
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND date >= ? AND date <= ?", ownerID, from, to).
		Order("date DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Total sums the owner's expenses within [from, to].
func (r *Repository) Total(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Expense{}).
		Where("owner_id = ? AND date >= ? AND date <= ?", ownerID, from, to).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// Delete removes the owner's expense. Rows belonging to someone else are
// invisible here, matching the scoped reads.
func (r *Repository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.Expense{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
