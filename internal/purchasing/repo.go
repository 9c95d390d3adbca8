package purchasing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
)

// Repository persists suppliers and purchase receipts.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to purchasing operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateSupplier persists a new supplier row.
func (r *Repository) CreateSupplier(ctx context.Context, supplier *models.Supplier) error {
	if supplier == nil {
		return fmt.Errorf("supplier is required")
	}
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(supplier).Error
}

// FindSupplier loads a supplier by its UUID.
func (r *Repository) FindSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

// ListSuppliers returns the owner's suppliers ordered by name.
func (r *Repository) ListSuppliers(ctx context.Context, ownerID uuid.UUID) ([]models.Supplier, error) {
	var rows []models.Supplier
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateSupplier saves the provided supplier.
func (r *Repository) UpdateSupplier(ctx context.Context, supplier *models.Supplier) error {
	if supplier == nil {
		return fmt.Errorf("supplier is required")
	}
	return r.db.WithContext(ctx).Save(supplier).Error
}

// DeleteSupplier removes the supplier row.
func (r *Repository) DeleteSupplier(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Supplier{})
	return result.RowsAffected, result.Error
}

// CreatePurchase inserts the receipt and its item rows inside the caller's
// transaction.
func (r *Repository) CreatePurchase(tx *gorm.DB, purchase *models.Purchase) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if purchase == nil {
		return fmt.Errorf("purchase is required")
	}
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	for i := range purchase.Items {
		if purchase.Items[i].ID == uuid.Nil {
			purchase.Items[i].ID = uuid.New()
		}
		purchase.Items[i].PurchaseID = purchase.ID
	}
	return tx.Create(purchase).Error
}

// UpdateProductCost overwrites a product's cost price inside the caller's
// transaction. The receipt's unit cost becomes the new baseline.
func (r *Repository) UpdateProductCost(tx *gorm.DB, productID uuid.UUID, costPrice int64) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Model(&models.Product{}).
		Where("id = ?", productID).
		Update("cost_price", costPrice).Error
}

// FindPurchase loads a receipt with its items.
func (r *Repository) FindPurchase(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// ListPurchases returns the creator's receipts, newest purchase date first.
func (r *Repository) ListPurchases(ctx context.Context, createdBy uuid.UUID) ([]models.Purchase, error) {
	var rows []models.Purchase
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("created_by = ?", createdBy).
		Order("purchase_date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
