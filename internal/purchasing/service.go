package purchasing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/internal/inventory"
	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
	"github.com/warunglabs/kasirpos-backend/pkg/enums"
	pkgerrors "github.com/warunglabs/kasirpos-backend/pkg/errors"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockBooker interface {
	ApplyMovement(tx *gorm.DB, input inventory.MovementInput) (decimal.Decimal, error)
}

// ReceiptLine is one received product on an incoming purchase.
type ReceiptLine struct {
	ProductID uuid.UUID
	Qty       decimal.Decimal
	UnitCost  int64
}

// ReceiptInput describes an incoming supplier delivery.
type ReceiptInput struct {
	SupplierID   uuid.UUID
	WarehouseID  uuid.UUID
	PurchaseDate time.Time
	CreatedBy    uuid.UUID
	Lines        []ReceiptLine
}

// Service manages the supplier directory and books received purchases into
// the stock ledger.
type Service interface {
	CreateSupplier(ctx context.Context, supplier *models.Supplier) error
	UpdateSupplier(ctx context.Context, supplier *models.Supplier) error
	DeleteSupplier(ctx context.Context, id uuid.UUID) error
	Suppliers(ctx context.Context, ownerID uuid.UUID) ([]models.Supplier, error)
	Receive(ctx context.Context, input ReceiptInput) (*models.Purchase, error)
	Purchase(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	Purchases(ctx context.Context, createdBy uuid.UUID) ([]models.Purchase, error)
}

type service struct {
	repo  *Repository
	stock stockBooker
	tx    txRunner
	logg  *logger.Logger
}

// NewService builds the purchasing service.
func NewService(repo *Repository, stock stockBooker, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchasing repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock booker required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, stock: stock, tx: tx, logg: logg}, nil
}

func (s *service) CreateSupplier(ctx context.Context, supplier *models.Supplier) error {
	if err := validateSupplier(supplier); err != nil {
		return err
	}
	if err := s.repo.CreateSupplier(ctx, supplier); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating supplier")
	}
	return nil
}

func (s *service) UpdateSupplier(ctx context.Context, supplier *models.Supplier) error {
	if err := validateSupplier(supplier); err != nil {
		return err
	}
	if supplier.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "supplier id is required")
	}
	if _, err := s.repo.FindSupplier(ctx, supplier.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading supplier")
	}
	if err := s.repo.UpdateSupplier(ctx, supplier); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating supplier")
	}
	return nil
}

func (s *service) DeleteSupplier(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.DeleteSupplier(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting supplier")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
	}
	return nil
}

func (s *service) Suppliers(ctx context.Context, ownerID uuid.UUID) ([]models.Supplier, error) {
	rows, err := s.repo.ListSuppliers(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing suppliers")
	}
	return rows, nil
}

// Receive books a supplier delivery: the receipt row, its item rows, the
// stock increments with their movement logs, and the product cost price
// refresh all commit together or not at all.
func (s *service) Receive(ctx context.Context, input ReceiptInput) (*models.Purchase, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase needs at least one line")
	}
	if input.SupplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier is required")
	}
	if input.WarehouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse is required")
	}
	for _, line := range input.Lines {
		if !line.Qty.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		if line.UnitCost < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line unit cost cannot be negative")
		}
	}

	if _, err := s.repo.FindSupplier(ctx, input.SupplierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading supplier")
	}

	purchaseDate := input.PurchaseDate
	if purchaseDate.IsZero() {
		purchaseDate = time.Now()
	}

	var total int64
	items := make([]models.PurchaseItem, 0, len(input.Lines))
	for _, line := range input.Lines {
		items = append(items, models.PurchaseItem{
			ProductID: line.ProductID,
			Qty:       line.Qty,
			UnitCost:  line.UnitCost,
		})
		total += line.Qty.Mul(decimal.NewFromInt(line.UnitCost)).IntPart()
	}

	purchase := &models.Purchase{
		ID:           uuid.New(),
		SupplierID:   input.SupplierID,
		WarehouseID:  input.WarehouseID,
		PurchaseDate: purchaseDate,
		Total:        total,
		Status:       "completed",
		CreatedBy:    input.CreatedBy,
		Items:        items,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreatePurchase(tx, purchase); err != nil {
			return err
		}
		for _, line := range input.Lines {
			if err := s.repo.UpdateProductCost(tx, line.ProductID, line.UnitCost); err != nil {
				return err
			}
			_, err := s.stock.ApplyMovement(tx, inventory.MovementInput{
				ProductID:   line.ProductID,
				WarehouseID: input.WarehouseID,
				Delta:       line.Qty,
				Type:        enums.MovementTypePurchase,
				ReferenceID: &purchase.ID,
				Notes:       "supplier delivery",
				CreatedBy:   input.CreatedBy,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "receiving purchase")
	}

	ctx = s.logg.WithWarehouseID(ctx, input.WarehouseID.String())
	s.logg.Info(ctx, "purchase received")
	return purchase, nil
}

func (s *service) Purchase(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	purchase, err := s.repo.FindPurchase(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading purchase")
	}
	return purchase, nil
}

func (s *service) Purchases(ctx context.Context, createdBy uuid.UUID) ([]models.Purchase, error) {
	rows, err := s.repo.ListPurchases(ctx, createdBy)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing purchases")
	}
	return rows, nil
}

func validateSupplier(supplier *models.Supplier) error {
	if supplier == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "supplier is required")
	}
	if strings.TrimSpace(supplier.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "supplier name is required")
	}
	if supplier.OwnerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "supplier owner is required")
	}
	return nil
}
