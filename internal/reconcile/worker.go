package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/internal/inventory"
	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
	"github.com/warunglabs/kasirpos-backend/pkg/enums"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
	"github.com/warunglabs/kasirpos-backend/pkg/outbox"
)

type outboxStore interface {
	FetchPending(limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkProcessed(id uuid.UUID) error
	MarkFailed(id uuid.UUID, err error) error
}

type stockBooker interface {
	Book(ctx context.Context, input inventory.MovementInput) (decimal.Decimal, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type loyaltyLedger interface {
	ApplyDelta(tx *gorm.DB, customerID uuid.UUID, pointsDelta, spendDelta int64) error
}

// Config tunes the reconciliation worker.
type Config struct {
	BatchSize   int
	MaxAttempts int
	Interval    time.Duration
}

// Worker replays stock and loyalty bookkeeping that settlement could not
// commit. Events past the attempt budget stay in the table for operators.
type Worker struct {
	store   outboxStore
	stock   stockBooker
	loyalty loyaltyLedger
	tx      txRunner
	logg    *logger.Logger
	cfg     Config
}

// NewWorker builds the reconciliation worker.
func NewWorker(store outboxStore, stock stockBooker, loyalty loyaltyLedger, tx txRunner, logg *logger.Logger, cfg Config) (*Worker, error) {
	if store == nil {
		return nil, fmt.Errorf("outbox store required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock booker required")
	}
	if loyalty == nil {
		return nil, fmt.Errorf("loyalty ledger required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	return &Worker{store: store, stock: stock, loyalty: loyalty, tx: tx, logg: logg, cfg: cfg}, nil
}

// Run polls the outbox until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.logg.Info(ctx, "reconciliation worker started")
	for {
		select {
		case <-ctx.Done():
			w.logg.Info(ctx, "reconciliation worker stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ProcessBatch(ctx); err != nil {
				w.logg.Error(ctx, "processing reconciliation batch", err)
			}
		}
	}
}

// ProcessBatch drains one batch of pending events. It returns how many
// events were processed successfully.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	events, err := w.store.FetchPending(w.cfg.BatchSize, w.cfg.MaxAttempts)
	if err != nil {
		return 0, fmt.Errorf("fetching pending events: %w", err)
	}

	processed := 0
	for _, event := range events {
		eventCtx := w.logg.WithFields(ctx, map[string]any{
			"event_id":   event.ID.String(),
			"event_type": event.EventType,
		})

		if err := w.dispatch(eventCtx, event); err != nil {
			w.logg.Error(eventCtx, "replaying reconciliation event", err)
			if markErr := w.store.MarkFailed(event.ID, err); markErr != nil {
				w.logg.Error(eventCtx, "recording event failure", markErr)
			}
			continue
		}
		if err := w.store.MarkProcessed(event.ID); err != nil {
			w.logg.Error(eventCtx, "marking event processed", err)
			continue
		}
		processed++
		w.logg.Info(eventCtx, "reconciliation event replayed")
	}
	return processed, nil
}

func (w *Worker) dispatch(ctx context.Context, event models.OutboxEvent) error {
	switch event.EventType {
	case enums.EventStockReconcilePending:
		return w.replayStock(ctx, event)
	case enums.EventLoyaltyReconcilePending:
		return w.replayLoyalty(ctx, event)
	default:
		return fmt.Errorf("unknown event type %q", event.EventType)
	}
}

func (w *Worker) replayStock(ctx context.Context, event models.OutboxEvent) error {
	payload, err := outbox.DecodeStockReconcile(event.Payload)
	if err != nil {
		return err
	}
	referenceID := payload.ReferenceID
	_, err = w.stock.Book(ctx, inventory.MovementInput{
		ProductID:   payload.ProductID,
		WarehouseID: payload.WarehouseID,
		Delta:       payload.Delta,
		Type:        enums.MovementTypeSale,
		ReferenceID: &referenceID,
		Notes:       payload.Notes,
		CreatedBy:   payload.CreatedBy,
	})
	return err
}

func (w *Worker) replayLoyalty(ctx context.Context, event models.OutboxEvent) error {
	payload, err := outbox.DecodeLoyaltyReconcile(event.Payload)
	if err != nil {
		return err
	}
	return w.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return w.loyalty.ApplyDelta(tx, payload.CustomerID, payload.PointsDelta, payload.SpendDelta)
	})
}
