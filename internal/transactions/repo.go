package transactions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
	"github.com/warunglabs/kasirpos-backend/pkg/enums"
)

// Repository handles the sales ledger. Rows are immutable after creation
// except for the status column.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to transaction operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists the transaction inside the caller's db handle, which may
// be a transaction.
func (r *Repository) Create(tx *gorm.DB, transaction *models.Transaction) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if transaction == nil {
		return fmt.Errorf("transaction is required")
	}
	if transaction.ID == uuid.Nil {
		transaction.ID = uuid.New()
	}
	return tx.Create(transaction).Error
}

// FindByID loads a transaction by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var row models.Transaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByIdempotencyKey returns the transaction previously settled under
// the client key, if any.
func (r *Repository) FindByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error) {
	var row models.Transaction
	if err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListFilter narrows List and the derived aggregations.
type ListFilter struct {
	From       time.Time
	To         time.Time
	Status     enums.TransactionStatus
	CustomerID *uuid.UUID
	Limit      int
	Offset     int
}

// List returns transactions newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Transaction, error) {
	query := r.db.WithContext(ctx).Model(&models.Transaction{}).Order("datetime DESC")
	if !filter.From.IsZero() {
		query = query.Where("datetime >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("datetime < ?", filter.To)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	var rows []models.Transaction
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkVoided flips a completed transaction to voided. Returns the number
// of rows changed so the caller can distinguish "already voided".
func (r *Repository) MarkVoided(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, enums.TransactionStatusCompleted).
		Update("status", enums.TransactionStatusVoided)
	return result.RowsAffected, result.Error
}
