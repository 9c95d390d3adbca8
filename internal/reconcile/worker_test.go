package reconcile

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/internal/inventory"
	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
	"github.com/warunglabs/kasirpos-backend/pkg/enums"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
	"github.com/warunglabs/kasirpos-backend/pkg/outbox"
)

type fakeStock struct {
	booked  []inventory.MovementInput
	bookErr error
}

func (f *fakeStock) Book(ctx context.Context, input inventory.MovementInput) (decimal.Decimal, error) {
	if f.bookErr != nil {
		return decimal.Zero, f.bookErr
	}
	f.booked = append(f.booked, input)
	return input.Delta, nil
}

type fakeLoyalty struct {
	customers []uuid.UUID
	points    []int64
	spends    []int64
	applyErr  error
}

func (f *fakeLoyalty) ApplyDelta(tx *gorm.DB, customerID uuid.UUID, pointsDelta, spendDelta int64) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.customers = append(f.customers, customerID)
	f.points = append(f.points, pointsDelta)
	f.spends = append(f.spends, spendDelta)
	return nil
}

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type workerHarness struct {
	worker  *Worker
	db      *gorm.DB
	repo    *outbox.Repository
	emitter *outbox.Service
	stock   *fakeStock
	loyalty *fakeLoyalty
}

func newWorkerHarness(t *testing.T) *workerHarness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  processed_at DATETIME,
  created_at DATETIME
);`).Error)

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	repo := outbox.NewRepository(db)

	h := &workerHarness{
		db:      db,
		repo:    repo,
		emitter: outbox.NewService(repo, logg),
		stock:   &fakeStock{},
		loyalty: &fakeLoyalty{},
	}
	worker, err := NewWorker(repo, h.stock, h.loyalty, &testTxRunner{db: db}, logg, Config{
		BatchSize:   10,
		MaxAttempts: 3,
		Interval:    time.Second,
	})
	require.NoError(t, err)
	h.worker = worker
	return h
}

func (h *workerHarness) emit(t *testing.T, event outbox.DomainEvent) {
	t.Helper()
	require.NoError(t, h.db.Transaction(func(tx *gorm.DB) error {
		return h.emitter.Emit(context.Background(), tx, event)
	}))
}

func TestProcessBatchReplaysStockEvents(t *testing.T) {
	h := newWorkerHarness(t)
	transactionID := uuid.New()
	productID := uuid.New()
	warehouseID := uuid.New()
	userID := uuid.New()

	h.emit(t, outbox.DomainEvent{
		EventType:     enums.EventStockReconcilePending,
		AggregateType: enums.AggregateTransaction,
		AggregateID:   transactionID,
		Version:       1,
		Data: outbox.StockReconcileEvent{
			ProductID:   productID,
			WarehouseID: warehouseID,
			Delta:       decimal.NewFromInt(-3),
			ReferenceID: transactionID,
			CreatedBy:   userID,
		},
	})

	processed, err := h.worker.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	require.Len(t, h.stock.booked, 1)
	booked := h.stock.booked[0]
	assert.Equal(t, productID, booked.ProductID)
	assert.Equal(t, warehouseID, booked.WarehouseID)
	assert.True(t, booked.Delta.Equal(decimal.NewFromInt(-3)))
	assert.Equal(t, enums.MovementTypeSale, booked.Type)
	require.NotNil(t, booked.ReferenceID)
	assert.Equal(t, transactionID, *booked.ReferenceID)

	pending, err := h.repo.FetchPending(10, 3)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestProcessBatchReplaysLoyaltyEvents(t *testing.T) {
	h := newWorkerHarness(t)
	customerID := uuid.New()

	h.emit(t, outbox.DomainEvent{
		EventType:     enums.EventLoyaltyReconcilePending,
		AggregateType: enums.AggregateTransaction,
		AggregateID:   uuid.New(),
		Version:       1,
		Data: outbox.LoyaltyReconcileEvent{
			CustomerID:    customerID,
			PointsDelta:   -46,
			SpendDelta:    45000,
			TransactionID: uuid.New(),
		},
	})

	processed, err := h.worker.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	require.Len(t, h.loyalty.customers, 1)
	assert.Equal(t, customerID, h.loyalty.customers[0])
	assert.Equal(t, int64(-46), h.loyalty.points[0])
	assert.Equal(t, int64(45000), h.loyalty.spends[0])
}

func TestProcessBatchRetriesUntilAttemptBudget(t *testing.T) {
	h := newWorkerHarness(t)
	h.stock.bookErr = errors.New("warehouse offline")

	h.emit(t, outbox.DomainEvent{
		EventType:     enums.EventStockReconcilePending,
		AggregateType: enums.AggregateTransaction,
		AggregateID:   uuid.New(),
		Version:       1,
		Data: outbox.StockReconcileEvent{
			ProductID:   uuid.New(),
			WarehouseID: uuid.New(),
			Delta:       decimal.NewFromInt(-1),
			ReferenceID: uuid.New(),
			CreatedBy:   uuid.New(),
		},
	})

	for i := 0; i < 3; i++ {
		processed, err := h.worker.ProcessBatch(context.Background())
		require.NoError(t, err)
		assert.Zero(t, processed)
	}

	// Budget spent: the event is parked for operators, not fetched again.
	pending, err := h.repo.FetchPending(10, 3)
	require.NoError(t, err)
	assert.Empty(t, pending)

	var event models.OutboxEvent
	require.NoError(t, h.db.First(&event).Error)
	assert.Equal(t, 3, event.AttemptCount)
	require.NotNil(t, event.LastError)
	assert.Contains(t, *event.LastError, "warehouse offline")
	assert.Nil(t, event.ProcessedAt)

	// Recovery before the budget resumes processing.
	h.stock.bookErr = nil
	require.NoError(t, h.db.Model(&models.OutboxEvent{}).Where("id = ?", event.ID).Update("attempt_count", 1).Error)
	processed, err := h.worker.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
}

func TestProcessBatchMarksUnknownEventTypesFailed(t *testing.T) {
	h := newWorkerHarness(t)
	require.NoError(t, h.db.Create(&models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.OutboxEventType("reconcile.unknown"),
		AggregateType: enums.AggregateTransaction,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{}`),
	}).Error)

	processed, err := h.worker.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, processed)

	var event models.OutboxEvent
	require.NoError(t, h.db.First(&event).Error)
	assert.Equal(t, 1, event.AttemptCount)
	require.NotNil(t, event.LastError)
	assert.Contains(t, *event.LastError, "unknown event type")
}

func TestProcessBatchHandlesMalformedPayloads(t *testing.T) {
	h := newWorkerHarness(t)
	require.NoError(t, h.db.Create(&models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventStockReconcilePending,
		AggregateType: enums.AggregateTransaction,
		AggregateID:   uuid.New(),
		Payload:       []byte(`not json`),
	}).Error)

	processed, err := h.worker.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, processed)

	var event models.OutboxEvent
	require.NoError(t, h.db.First(&event).Error)
	assert.Equal(t, 1, event.AttemptCount)
}
