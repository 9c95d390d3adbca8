package inventory

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/pkg/enums"
	pkgerrors "github.com/warunglabs/kasirpos-backend/pkg/errors"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestService(t *testing.T) (Service, *Repository, *gorm.DB) {
	t.Helper()
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, &testTxRunner{db: db}, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return svc, repo, db
}

func TestBookWritesLevelAndMovementTogether(t *testing.T) {
	svc, repo, db := newTestService(t)
	ctx := context.Background()

	productID := uuid.New()
	warehouseID := uuid.New()
	actor := uuid.New()

	final, err := svc.Book(ctx, MovementInput{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Delta:       decimal.NewFromInt(12),
		Type:        enums.MovementTypePurchase,
		CreatedBy:   actor,
	})
	require.NoError(t, err)
	assert.True(t, final.Equal(decimal.NewFromInt(12)))

	movements, err := repo.ListMovements(ctx, MovementFilter{ProductID: &productID})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.True(t, movements[0].FinalStock.Equal(decimal.NewFromInt(12)))
	assert.Equal(t, actor, movements[0].CreatedBy)

	stored, err := repo.GetStock(ctx, productID, warehouseID)
	require.NoError(t, err)
	assert.True(t, stored.Equal(decimal.NewFromInt(12)))
	_ = db
}

func TestApplyMovementRejectsZeroDelta(t *testing.T) {
	svc, _, db := newTestService(t)

	_, err := svc.ApplyMovement(db, MovementInput{
		ProductID:   uuid.New(),
		WarehouseID: uuid.New(),
		Delta:       decimal.Zero,
		Type:        enums.MovementTypeSale,
		CreatedBy:   uuid.New(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestAdjustRecordsSignedDifference(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	productID := uuid.New()
	warehouseID := uuid.New()

	_, err := svc.Book(ctx, MovementInput{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Delta:       decimal.NewFromInt(10),
		Type:        enums.MovementTypePurchase,
		CreatedBy:   uuid.New(),
	})
	require.NoError(t, err)

	movement, err := svc.Adjust(ctx, AdjustInput{
		ProductID:   productID,
		WarehouseID: warehouseID,
		NewQuantity: decimal.NewFromInt(7),
		Notes:       "monthly count",
		CreatedBy:   uuid.New(),
	})
	require.NoError(t, err)

	assert.True(t, movement.ChangeAmount.Equal(decimal.NewFromInt(-3)), "change = counted - current, got %s", movement.ChangeAmount)
	assert.True(t, movement.FinalStock.Equal(decimal.NewFromInt(7)))
	assert.Equal(t, enums.MovementTypeAdjustment, movement.Type)

	stored, err := repo.GetStock(ctx, productID, warehouseID)
	require.NoError(t, err)
	assert.True(t, stored.Equal(decimal.NewFromInt(7)))
}

func TestAdjustRejectsNegativeCountAndWrongType(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Adjust(ctx, AdjustInput{
		ProductID:   uuid.New(),
		WarehouseID: uuid.New(),
		NewQuantity: decimal.NewFromInt(-1),
		CreatedBy:   uuid.New(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Adjust(ctx, AdjustInput{
		ProductID:   uuid.New(),
		WarehouseID: uuid.New(),
		NewQuantity: decimal.NewFromInt(4),
		Type:        enums.MovementTypeSale,
		CreatedBy:   uuid.New(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestLowStocksFiltersByThreshold(t *testing.T) {
	svc, repo, db := newTestService(t)
	ctx := context.Background()

	warehouseID := uuid.New()

	lowProduct := seedProduct(t, db, "Gula 1kg")
	_, err := repo.AddQuantity(db, lowProduct.ID, warehouseID, decimal.NewFromInt(2))
	require.NoError(t, err)
	require.NoError(t, repo.UpdateMinStockLevel(ctx, lowProduct.ID, warehouseID, decimal.NewFromInt(5)))

	okProduct := seedProduct(t, db, "Minyak 2L")
	_, err = repo.AddQuantity(db, okProduct.ID, warehouseID, decimal.NewFromInt(50))
	require.NoError(t, err)
	require.NoError(t, repo.UpdateMinStockLevel(ctx, okProduct.ID, warehouseID, decimal.NewFromInt(5)))

	// No threshold set: never alerts, even at zero.
	seedProduct(t, db, "Telur")

	low, err := svc.LowStocks(ctx, warehouseID)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, lowProduct.ID, low[0].ProductID)
}
