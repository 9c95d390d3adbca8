package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
	"github.com/warunglabs/kasirpos-backend/pkg/enums"
	pkgerrors "github.com/warunglabs/kasirpos-backend/pkg/errors"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type repository interface {
	AddQuantity(tx *gorm.DB, productID, warehouseID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
	SetQuantity(tx *gorm.DB, productID, warehouseID uuid.UUID, quantity decimal.Decimal) (decimal.Decimal, error)
	AppendMovement(tx *gorm.DB, movement *models.InventoryLog) error
	GetStock(ctx context.Context, productID, warehouseID uuid.UUID) (decimal.Decimal, error)
	ListStocks(ctx context.Context, warehouseID uuid.UUID) ([]StockView, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]models.InventoryLog, error)
}

// MovementInput books a signed stock change with its audit trail entry.
type MovementInput struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Delta       decimal.Decimal
	Type        enums.MovementType
	ReferenceID *uuid.UUID
	Notes       string
	CreatedBy   uuid.UUID
}

// AdjustInput overwrites a stock level to a counted value.
type AdjustInput struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	NewQuantity decimal.Decimal
	Type        enums.MovementType
	Notes       string
	CreatedBy   uuid.UUID
}

// Service exposes the stock ledger: level mutations always travel with a
// movement row in the same transaction.
type Service interface {
	ApplyMovement(tx *gorm.DB, input MovementInput) (decimal.Decimal, error)
	Book(ctx context.Context, input MovementInput) (decimal.Decimal, error)
	Adjust(ctx context.Context, input AdjustInput) (*models.InventoryLog, error)
	Stocks(ctx context.Context, warehouseID uuid.UUID) ([]StockView, error)
	LowStocks(ctx context.Context, warehouseID uuid.UUID) ([]StockView, error)
	Movements(ctx context.Context, filter MovementFilter) ([]models.InventoryLog, error)
}

type service struct {
	repo repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds an inventory service backed by the provided stack.
func NewService(repo repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

// ApplyMovement mutates the level and appends the log row inside the
// caller's transaction. Settlement and purchasing both go through here so
// the level and the log can never drift within one commit.
func (s *service) ApplyMovement(tx *gorm.DB, input MovementInput) (decimal.Decimal, error) {
	if tx == nil {
		return decimal.Zero, gorm.ErrInvalidTransaction
	}
	if !input.Type.IsValid() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid movement type")
	}
	if input.Delta.IsZero() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "movement delta cannot be zero")
	}

	final, err := s.repo.AddQuantity(tx, input.ProductID, input.WarehouseID, input.Delta)
	if err != nil {
		return decimal.Zero, err
	}

	movement := &models.InventoryLog{
		ProductID:    input.ProductID,
		WarehouseID:  input.WarehouseID,
		ChangeAmount: input.Delta,
		FinalStock:   final,
		Type:         input.Type,
		ReferenceID:  input.ReferenceID,
		Notes:        input.Notes,
		CreatedBy:    input.CreatedBy,
	}
	if err := s.repo.AppendMovement(tx, movement); err != nil {
		return decimal.Zero, err
	}
	return final, nil
}

// Book runs ApplyMovement in its own transaction.
func (s *service) Book(ctx context.Context, input MovementInput) (decimal.Decimal, error) {
	var final decimal.Decimal
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var applyErr error
		final, applyErr = s.ApplyMovement(tx, input)
		return applyErr
	})
	if err != nil {
		return decimal.Zero, err
	}
	return final, nil
}

// Adjust overwrites the level to a counted value and records the signed
// difference. change = counted − current; final stock snapshots the new
// level.
func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.InventoryLog, error) {
	if input.NewQuantity.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counted quantity cannot be negative")
	}
	movementType := input.Type
	if movementType == "" {
		movementType = enums.MovementTypeAdjustment
	}
	if movementType != enums.MovementTypeAdjustment && movementType != enums.MovementTypeOpname {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjust accepts adjustment or opname movements only")
	}

	var movement *models.InventoryLog
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		previous, err := s.repo.SetQuantity(tx, input.ProductID, input.WarehouseID, input.NewQuantity)
		if err != nil {
			return err
		}

		movement = &models.InventoryLog{
			ProductID:    input.ProductID,
			WarehouseID:  input.WarehouseID,
			ChangeAmount: input.NewQuantity.Sub(previous),
			FinalStock:   input.NewQuantity,
			Type:         movementType,
			Notes:        input.Notes,
			CreatedBy:    input.CreatedBy,
		}
		return s.repo.AppendMovement(tx, movement)
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithWarehouseID(ctx, input.WarehouseID.String())
	s.logg.Info(ctx, "stock adjusted")
	return movement, nil
}

func (s *service) Stocks(ctx context.Context, warehouseID uuid.UUID) ([]StockView, error) {
	return s.repo.ListStocks(ctx, warehouseID)
}

// LowStocks returns rows at or under their threshold. Rows without a
// threshold never alert.
func (s *service) LowStocks(ctx context.Context, warehouseID uuid.UUID) ([]StockView, error) {
	rows, err := s.repo.ListStocks(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	low := make([]StockView, 0)
	for _, row := range rows {
		if row.MinStockLevel.IsPositive() && row.Quantity.LessThanOrEqual(row.MinStockLevel) {
			low = append(low, row)
		}
	}
	return low, nil
}

func (s *service) Movements(ctx context.Context, filter MovementFilter) ([]models.InventoryLog, error) {
	return s.repo.ListMovements(ctx, filter)
}
