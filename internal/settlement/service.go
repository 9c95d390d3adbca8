package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/internal/inventory"
	"github.com/warunglabs/kasirpos-backend/internal/loyalty"
	"github.com/warunglabs/kasirpos-backend/internal/pricing"
	"github.com/warunglabs/kasirpos-backend/internal/transactions"
	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
	"github.com/warunglabs/kasirpos-backend/pkg/enums"
	pkgerrors "github.com/warunglabs/kasirpos-backend/pkg/errors"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
	"github.com/warunglabs/kasirpos-backend/pkg/metrics"
	"github.com/warunglabs/kasirpos-backend/pkg/outbox"
	"github.com/warunglabs/kasirpos-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledgerWriter interface {
	Create(tx *gorm.DB, transaction *models.Transaction) error
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error)
}

type stockBooker interface {
	ApplyMovement(tx *gorm.DB, input inventory.MovementInput) (decimal.Decimal, error)
}

type loyaltyLedger interface {
	ApplyDelta(tx *gorm.DB, customerID uuid.UUID, pointsDelta, spendDelta int64) error
	ResolveReward(ctx context.Context, customerID, rewardID uuid.UUID) (*loyalty.RedeemedReward, error)
}

type warehouseFinder interface {
	FindPrimary(ctx context.Context) (*models.Warehouse, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Input is one settlement attempt for a snapshotted cart.
type Input struct {
	UserID         uuid.UUID
	CustomerID     *uuid.UUID
	RewardID       *uuid.UUID
	PaymentMethod  enums.PaymentMethod
	CashReceived   int64
	IdempotencyKey string
	Items          types.TransactionItems
}

// Service drives the settlement pipeline: validate, persist the sale,
// then reconcile stock and loyalty. The transaction write is the point of
// no return; everything after it is best-effort bookkeeping.
type Service interface {
	Settle(ctx context.Context, input Input) (*models.Transaction, error)
}

type service struct {
	tx          txRunner
	ledger      ledgerWriter
	stock       stockBooker
	loyalty     loyaltyLedger
	warehouses  warehouseFinder
	events      outboxEmitter
	metrics     *metrics.SettlementMetrics
	logg        *logger.Logger
	accrualUnit int64
	now         func() time.Time
}

// Config wires the settlement service dependencies.
type Config struct {
	Tx          txRunner
	Ledger      ledgerWriter
	Stock       stockBooker
	Loyalty     loyaltyLedger
	Warehouses  warehouseFinder
	Events      outboxEmitter
	Metrics     *metrics.SettlementMetrics
	Logger      *logger.Logger
	AccrualUnit int64
	Now         func() time.Time
}

// NewService builds the settlement coordinator.
func NewService(cfg Config) (Service, error) {
	if cfg.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("transaction ledger required")
	}
	if cfg.Stock == nil {
		return nil, fmt.Errorf("stock booker required")
	}
	if cfg.Loyalty == nil {
		return nil, fmt.Errorf("loyalty ledger required")
	}
	if cfg.Warehouses == nil {
		return nil, fmt.Errorf("warehouse finder required")
	}
	if cfg.Events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.AccrualUnit <= 0 {
		cfg.AccrualUnit = 10000
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &service{
		tx:          cfg.Tx,
		ledger:      cfg.Ledger,
		stock:       cfg.Stock,
		loyalty:     cfg.Loyalty,
		warehouses:  cfg.Warehouses,
		events:      cfg.Events,
		metrics:     cfg.Metrics,
		logg:        cfg.Logger,
		accrualUnit: cfg.AccrualUnit,
		now:         cfg.Now,
	}, nil
}

// Settle converts the cart snapshot into a durable sale.
//
// Validations run before any write and are fully recoverable. The
// transaction insert is fatal on failure. Stock and loyalty bookkeeping
// never abort the sale once the transaction exists: failures are logged,
// counted, and queued as outbox fix-up events for the worker.
func (s *service) Settle(ctx context.Context, input Input) (*models.Transaction, error) {
	started := s.now()

	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot settle an empty cart")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	for _, item := range input.Items {
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart lines must have positive quantity")
		}
	}
	if input.RewardID != nil && input.CustomerID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reward redemption requires a customer")
	}

	if input.IdempotencyKey != "" {
		if existing, err := s.ledger.FindByIdempotencyKey(ctx, input.IdempotencyKey); err == nil && existing != nil {
			return existing, nil
		}
	}

	var reward *loyalty.RedeemedReward
	if input.RewardID != nil {
		resolved, err := s.loyalty.ResolveReward(ctx, *input.CustomerID, *input.RewardID)
		if err != nil {
			return nil, err
		}
		reward = resolved
	}

	subtotal := input.Items.Subtotal()
	totalCost := input.Items.TotalCost()

	var pointsRedeemed int64
	if reward != nil {
		pointsRedeemed = reward.DiscountAmount
	}

	quote := pricing.Compute(subtotal, pointsRedeemed, input.PaymentMethod, input.CashReceived)
	if !quote.Payable {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cash received does not cover the total")
	}

	warehouse, err := s.warehouses.FindPrimary(ctx)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no primary warehouse configured")
	}

	netRevenue := subtotal - pointsRedeemed
	if netRevenue < 0 {
		netRevenue = 0
	}
	pointsEarned := netRevenue / s.accrualUnit

	itemsJSON, err := json.Marshal(input.Items)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serializing cart snapshot")
	}

	now := s.now()
	transaction := &models.Transaction{
		ID:             uuid.New(),
		Code:           transactions.GenerateCode(now),
		Datetime:       now,
		UserID:         input.UserID,
		CustomerID:     input.CustomerID,
		Items:          itemsJSON,
		Subtotal:       subtotal,
		TotalCost:      totalCost,
		TotalProfit:    netRevenue - totalCost,
		PaymentMethod:  input.PaymentMethod,
		CashReceived:   quote.CashReceived,
		Change:         quote.Change,
		PointsRedeemed: pointsRedeemed,
		PointsEarned:   pointsEarned,
		Status:         enums.TransactionStatusCompleted,
	}
	if input.IdempotencyKey != "" {
		key := input.IdempotencyKey
		transaction.IdempotencyKey = &key
	}

	ctx = s.logg.WithTransactionCode(ctx, transaction.Code)

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.ledger.Create(tx, transaction)
	}); err != nil {
		if input.IdempotencyKey != "" {
			// Lost the insert race on the unique key: the other attempt's
			// row is the settlement.
			if existing, findErr := s.ledger.FindByIdempotencyKey(ctx, input.IdempotencyKey); findErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting transaction")
	}

	var swallowed error

	if err := s.reconcileStock(ctx, input, transaction, warehouse.ID); err != nil {
		swallowed = multierr.Append(swallowed, err)
	}
	if err := s.reconcileLoyalty(ctx, input, transaction, reward, quote.FinalTotal); err != nil {
		swallowed = multierr.Append(swallowed, err)
	}
	if swallowed != nil {
		s.logg.Error(ctx, "settlement committed with pending fix-ups", swallowed)
	}

	s.metrics.IncSettled(input.PaymentMethod.String())
	s.metrics.ObserveDuration(input.PaymentMethod.String(), s.now().Sub(started))
	s.logg.Info(ctx, "settlement completed")

	return transaction, nil
}

// reconcileStock decrements every line from the primary warehouse. Each
// line is its own transaction so one bad product cannot block the rest.
func (s *service) reconcileStock(ctx context.Context, input Input, transaction *models.Transaction, warehouseID uuid.UUID) error {
	var failures error
	for _, item := range input.Items {
		delta := decimal.NewFromInt(-item.Qty)
		movement := inventory.MovementInput{
			ProductID:   item.ProductID,
			WarehouseID: warehouseID,
			Delta:       delta,
			Type:        enums.MovementTypeSale,
			ReferenceID: &transaction.ID,
			CreatedBy:   input.UserID,
		}

		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			_, applyErr := s.stock.ApplyMovement(tx, movement)
			return applyErr
		})
		if err == nil {
			continue
		}

		failures = multierr.Append(failures, fmt.Errorf("stock decrement for product %s: %w", item.ProductID, err))
		s.metrics.IncConsistencyFailure("stock")
		s.queueFixup(ctx, input.UserID, outbox.DomainEvent{
			EventType:     enums.EventStockReconcilePending,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   transaction.ID,
			Version:       1,
			Data: outbox.StockReconcileEvent{
				ProductID:   item.ProductID,
				WarehouseID: warehouseID,
				Delta:       delta,
				ReferenceID: transaction.ID,
				CreatedBy:   input.UserID,
				Notes:       "settlement fix-up",
			},
		})
	}
	return failures
}

// reconcileLoyalty applies earned minus spent points and lifetime spend.
// The guarded update may reject the redemption if a concurrent settlement
// spent the points first; the sale stands either way.
func (s *service) reconcileLoyalty(ctx context.Context, input Input, transaction *models.Transaction, reward *loyalty.RedeemedReward, finalTotal int64) error {
	if input.CustomerID == nil {
		return nil
	}

	pointsDelta := transaction.PointsEarned
	if reward != nil {
		pointsDelta -= reward.PointsCost
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.loyalty.ApplyDelta(tx, *input.CustomerID, pointsDelta, finalTotal)
	})
	if err == nil {
		return nil
	}

	s.metrics.IncConsistencyFailure("loyalty")
	s.queueFixup(ctx, input.UserID, outbox.DomainEvent{
		EventType:     enums.EventLoyaltyReconcilePending,
		AggregateType: enums.AggregateTransaction,
		AggregateID:   transaction.ID,
		Version:       1,
		Data: outbox.LoyaltyReconcileEvent{
			CustomerID:    *input.CustomerID,
			PointsDelta:   pointsDelta,
			SpendDelta:    finalTotal,
			TransactionID: transaction.ID,
		},
	})
	return fmt.Errorf("loyalty delta for customer %s: %w", *input.CustomerID, err)
}

func (s *service) queueFixup(ctx context.Context, userID uuid.UUID, event outbox.DomainEvent) {
	event.Actor = &outbox.ActorRef{UserID: userID}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.events.Emit(ctx, tx, event)
	})
	if err != nil {
		s.logg.Error(ctx, "queueing settlement fix-up event", err)
	}
}
