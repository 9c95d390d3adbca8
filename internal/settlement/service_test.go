package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/internal/inventory"
	"github.com/warunglabs/kasirpos-backend/internal/loyalty"
	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
	"github.com/warunglabs/kasirpos-backend/pkg/enums"
	pkgerrors "github.com/warunglabs/kasirpos-backend/pkg/errors"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
	"github.com/warunglabs/kasirpos-backend/pkg/outbox"
	"github.com/warunglabs/kasirpos-backend/pkg/types"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeLedger struct {
	created   []*models.Transaction
	existing  map[string]*models.Transaction
	createErr error
}

func (f *fakeLedger) Create(tx *gorm.DB, transaction *models.Transaction) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, transaction)
	return nil
}

func (f *fakeLedger) FindByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error) {
	if existing, ok := f.existing[key]; ok {
		return existing, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeStock struct {
	movements []inventory.MovementInput
	failFor   map[uuid.UUID]error
}

func (f *fakeStock) ApplyMovement(tx *gorm.DB, input inventory.MovementInput) (decimal.Decimal, error) {
	if err, ok := f.failFor[input.ProductID]; ok {
		return decimal.Zero, err
	}
	f.movements = append(f.movements, input)
	return input.Delta, nil
}

type fakeLoyalty struct {
	reward     *loyalty.RedeemedReward
	resolveErr error
	applyErr   error

	appliedCustomer uuid.UUID
	appliedPoints   int64
	appliedSpend    int64
	applyCalls      int
}

func (f *fakeLoyalty) ApplyDelta(tx *gorm.DB, customerID uuid.UUID, pointsDelta, spendDelta int64) error {
	f.applyCalls++
	if f.applyErr != nil {
		return f.applyErr
	}
	f.appliedCustomer = customerID
	f.appliedPoints = pointsDelta
	f.appliedSpend = spendDelta
	return nil
}

func (f *fakeLoyalty) ResolveReward(ctx context.Context, customerID, rewardID uuid.UUID) (*loyalty.RedeemedReward, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return f.reward, nil
}

type fakeWarehouses struct {
	warehouse *models.Warehouse
	err       error
}

func (f *fakeWarehouses) FindPrimary(ctx context.Context) (*models.Warehouse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.warehouse, nil
}

type fakeEmitter struct {
	events  []outbox.DomainEvent
	emitErr error
}

func (f *fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if f.emitErr != nil {
		return f.emitErr
	}
	f.events = append(f.events, event)
	return nil
}

type harness struct {
	svc        Service
	ledger     *fakeLedger
	stock      *fakeStock
	loyalty    *fakeLoyalty
	warehouses *fakeWarehouses
	emitter    *fakeEmitter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	h := &harness{
		ledger:  &fakeLedger{existing: map[string]*models.Transaction{}},
		stock:   &fakeStock{},
		loyalty: &fakeLoyalty{},
		warehouses: &fakeWarehouses{warehouse: &models.Warehouse{
			ID:        uuid.New(),
			IsPrimary: true,
		}},
		emitter: &fakeEmitter{},
	}
	svc, err := NewService(Config{
		Tx:         fakeTxRunner{},
		Ledger:     h.ledger,
		Stock:      h.stock,
		Loyalty:    h.loyalty,
		Warehouses: h.warehouses,
		Events:     h.emitter,
		Logger:     logg,
		Now:        func() time.Time { return time.Date(2025, 3, 9, 14, 30, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

func cartItems() types.TransactionItems {
	return types.TransactionItems{
		{
			ProductID: uuid.New(),
			Name:      "Kopi Susu",
			Qty:       2,
			SellPrice: 18000,
			CostPrice: 8000,
			TotalSell: 36000,
			TotalCost: 16000,
			Profit:    20000,
		},
		{
			ProductID: uuid.New(),
			Name:      "Roti Bakar",
			Qty:       1,
			SellPrice: 14000,
			CostPrice: 6000,
			TotalSell: 14000,
			TotalCost: 6000,
			Profit:    8000,
		},
	}
}

func TestSettleCashHappyPath(t *testing.T) {
	h := newHarness(t)
	userID := uuid.New()

	transaction, err := h.svc.Settle(context.Background(), Input{
		UserID:        userID,
		PaymentMethod: enums.PaymentMethodCash,
		CashReceived:  100000,
		Items:         cartItems(),
	})
	require.NoError(t, err)
	require.NotNil(t, transaction)

	assert.Equal(t, int64(50000), transaction.Subtotal)
	assert.Equal(t, int64(22000), transaction.TotalCost)
	assert.Equal(t, int64(28000), transaction.TotalProfit)
	assert.Equal(t, int64(100000), transaction.CashReceived)
	assert.Equal(t, int64(50000), transaction.Change)
	assert.Equal(t, int64(0), transaction.PointsRedeemed)
	assert.Equal(t, int64(5), transaction.PointsEarned)
	assert.Equal(t, enums.TransactionStatusCompleted, transaction.Status)
	assert.Equal(t, "TRX-20250309", transaction.Code[:12])

	require.Len(t, h.ledger.created, 1)
	require.Len(t, h.stock.movements, 2)
	assert.True(t, h.stock.movements[0].Delta.Equal(decimal.NewFromInt(-2)))
	assert.True(t, h.stock.movements[1].Delta.Equal(decimal.NewFromInt(-1)))
	assert.Equal(t, enums.MovementTypeSale, h.stock.movements[0].Type)
	assert.Equal(t, &transaction.ID, h.stock.movements[0].ReferenceID)
	assert.Equal(t, userID, h.stock.movements[0].CreatedBy)

	assert.Zero(t, h.loyalty.applyCalls)
	assert.Empty(t, h.emitter.events)

	var snapshot types.TransactionItems
	require.NoError(t, json.Unmarshal(transaction.Items, &snapshot))
	assert.Len(t, snapshot, 2)
}

func TestSettleAppliesRewardAndLoyaltyDeltas(t *testing.T) {
	h := newHarness(t)
	customerID := uuid.New()
	rewardID := uuid.New()
	h.loyalty.reward = &loyalty.RedeemedReward{
		RewardID:       rewardID,
		PointsCost:     50,
		DiscountAmount: 5000,
	}

	transaction, err := h.svc.Settle(context.Background(), Input{
		UserID:        uuid.New(),
		CustomerID:    &customerID,
		RewardID:      &rewardID,
		PaymentMethod: enums.PaymentMethodCash,
		CashReceived:  45000,
		Items:         cartItems(),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(5000), transaction.PointsRedeemed)
	assert.Equal(t, int64(4), transaction.PointsEarned)
	assert.Equal(t, int64(23000), transaction.TotalProfit)
	assert.Equal(t, int64(0), transaction.Change)

	require.Equal(t, 1, h.loyalty.applyCalls)
	assert.Equal(t, customerID, h.loyalty.appliedCustomer)
	assert.Equal(t, int64(4-50), h.loyalty.appliedPoints)
	assert.Equal(t, int64(45000), h.loyalty.appliedSpend)
}

func TestSettleQRIsAlwaysPayable(t *testing.T) {
	h := newHarness(t)

	transaction, err := h.svc.Settle(context.Background(), Input{
		UserID:        uuid.New(),
		PaymentMethod: enums.PaymentMethodQR,
		Items:         cartItems(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), transaction.CashReceived)
	assert.Equal(t, int64(0), transaction.Change)
}

func TestSettleValidations(t *testing.T) {
	h := newHarness(t)
	customerID := uuid.New()
	rewardID := uuid.New()

	cases := []struct {
		name  string
		input Input
	}{
		{"empty cart", Input{
			UserID:        uuid.New(),
			PaymentMethod: enums.PaymentMethodCash,
			CashReceived:  100000,
		}},
		{"invalid method", Input{
			UserID:        uuid.New(),
			PaymentMethod: enums.PaymentMethod("voucher"),
			Items:         cartItems(),
		}},
		{"insufficient cash", Input{
			UserID:        uuid.New(),
			PaymentMethod: enums.PaymentMethodCash,
			CashReceived:  49999,
			Items:         cartItems(),
		}},
		{"reward without customer", Input{
			UserID:        uuid.New(),
			RewardID:      &rewardID,
			PaymentMethod: enums.PaymentMethodCash,
			CashReceived:  100000,
			Items:         cartItems(),
		}},
		{"zero quantity line", Input{
			UserID:        uuid.New(),
			CustomerID:    &customerID,
			PaymentMethod: enums.PaymentMethodCash,
			CashReceived:  100000,
			Items:         types.TransactionItems{{ProductID: uuid.New(), Qty: 0}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.Settle(context.Background(), tc.input)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
	assert.Empty(t, h.ledger.created)
	assert.Empty(t, h.stock.movements)
}

func TestSettleRequiresPrimaryWarehouse(t *testing.T) {
	h := newHarness(t)
	h.warehouses.err = gorm.ErrRecordNotFound

	_, err := h.svc.Settle(context.Background(), Input{
		UserID:        uuid.New(),
		PaymentMethod: enums.PaymentMethodQR,
		Items:         cartItems(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Empty(t, h.ledger.created)
}

func TestSettleTransactionWriteFailureAborts(t *testing.T) {
	h := newHarness(t)
	h.ledger.createErr = errors.New("connection reset")

	_, err := h.svc.Settle(context.Background(), Input{
		UserID:        uuid.New(),
		PaymentMethod: enums.PaymentMethodQR,
		Items:         cartItems(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInternal, pkgerrors.As(err).Code())
	assert.Empty(t, h.stock.movements)
	assert.Zero(t, h.loyalty.applyCalls)
}

func TestSettleStockFailureDoesNotAbortSale(t *testing.T) {
	h := newHarness(t)
	items := cartItems()
	h.stock.failFor = map[uuid.UUID]error{
		items[0].ProductID: errors.New("deadlock detected"),
	}

	transaction, err := h.svc.Settle(context.Background(), Input{
		UserID:        uuid.New(),
		PaymentMethod: enums.PaymentMethodQR,
		Items:         items,
	})
	require.NoError(t, err)
	require.NotNil(t, transaction)

	// The surviving line still booked; the failed one became a fix-up event.
	require.Len(t, h.stock.movements, 1)
	assert.Equal(t, items[1].ProductID, h.stock.movements[0].ProductID)

	require.Len(t, h.emitter.events, 1)
	event := h.emitter.events[0]
	assert.Equal(t, enums.EventStockReconcilePending, event.EventType)
	assert.Equal(t, enums.AggregateTransaction, event.AggregateType)
	assert.Equal(t, transaction.ID, event.AggregateID)
	payload, ok := event.Data.(outbox.StockReconcileEvent)
	require.True(t, ok)
	assert.Equal(t, items[0].ProductID, payload.ProductID)
	assert.True(t, payload.Delta.Equal(decimal.NewFromInt(-2)))
}

func TestSettleLoyaltyFailureDoesNotAbortSale(t *testing.T) {
	h := newHarness(t)
	customerID := uuid.New()
	h.loyalty.applyErr = pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient point balance")

	transaction, err := h.svc.Settle(context.Background(), Input{
		UserID:        uuid.New(),
		CustomerID:    &customerID,
		PaymentMethod: enums.PaymentMethodQR,
		Items:         cartItems(),
	})
	require.NoError(t, err)

	require.Len(t, h.emitter.events, 1)
	event := h.emitter.events[0]
	assert.Equal(t, enums.EventLoyaltyReconcilePending, event.EventType)
	payload, ok := event.Data.(outbox.LoyaltyReconcileEvent)
	require.True(t, ok)
	assert.Equal(t, customerID, payload.CustomerID)
	assert.Equal(t, int64(5), payload.PointsDelta)
	assert.Equal(t, int64(50000), payload.SpendDelta)
	assert.Equal(t, transaction.ID, payload.TransactionID)
}

func TestSettleIdempotencyKeyReturnsExisting(t *testing.T) {
	h := newHarness(t)
	existing := &models.Transaction{ID: uuid.New(), Code: "TRX-20250309-0001"}
	h.ledger.existing["settle:abc"] = existing

	transaction, err := h.svc.Settle(context.Background(), Input{
		UserID:         uuid.New(),
		PaymentMethod:  enums.PaymentMethodQR,
		IdempotencyKey: "settle:abc",
		Items:          cartItems(),
	})
	require.NoError(t, err)
	assert.Same(t, existing, transaction)
	assert.Empty(t, h.ledger.created)
	assert.Empty(t, h.stock.movements)
}

func TestSettleInsertRaceFallsBackToExisting(t *testing.T) {
	h := newHarness(t)
	existing := &models.Transaction{ID: uuid.New(), Code: "TRX-20250309-0002"}
	h.ledger.createErr = errors.New("duplicate key value violates unique constraint")

	// Not visible on the first lookup, present after the losing insert.
	calls := 0
	ledger := &racingLedger{inner: h.ledger, onSecondLookup: func() {
		h.ledger.existing["settle:race"] = existing
	}, calls: &calls}

	svc := h.svc.(*service)
	svc.ledger = ledger

	transaction, err := svc.Settle(context.Background(), Input{
		UserID:         uuid.New(),
		PaymentMethod:  enums.PaymentMethodQR,
		IdempotencyKey: "settle:race",
		Items:          cartItems(),
	})
	require.NoError(t, err)
	assert.Same(t, existing, transaction)
}

type racingLedger struct {
	inner          *fakeLedger
	onSecondLookup func()
	calls          *int
}

func (r *racingLedger) Create(tx *gorm.DB, transaction *models.Transaction) error {
	return r.inner.Create(tx, transaction)
}

func (r *racingLedger) FindByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error) {
	*r.calls++
	if *r.calls == 2 && r.onSecondLookup != nil {
		r.onSecondLookup()
	}
	return r.inner.FindByIdempotencyKey(ctx, key)
}
