package transactions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
	"github.com/warunglabs/kasirpos-backend/pkg/enums"
	pkgerrors "github.com/warunglabs/kasirpos-backend/pkg/errors"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
	"github.com/warunglabs/kasirpos-backend/pkg/types"
)

type repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	List(ctx context.Context, filter ListFilter) ([]models.Transaction, error)
	MarkVoided(ctx context.Context, id uuid.UUID) (int64, error)
}

// Service exposes ledger reads, void, and the reporting aggregations.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	List(ctx context.Context, filter ListFilter) ([]models.Transaction, error)
	Void(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	TodayStats(ctx context.Context, now time.Time) (*DailyStats, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]ProductSales, error)
}

type service struct {
	repo repository
	logg *logger.Logger
}

// NewService builds a transaction service backed by the provided stack.
func NewService(repo repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transaction repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// DailyStats aggregates one calendar day of completed sales.
type DailyStats struct {
	Date             string `json:"date"`
	TransactionCount int64  `json:"transaction_count"`
	TotalRevenue     int64  `json:"total_revenue"`
	TotalProfit      int64  `json:"total_profit"`
	ItemsSold        int64  `json:"items_sold"`
}

// ProductSales is one row of the top-products report.
type ProductSales struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	QtySold   int64     `json:"qty_sold"`
	TotalSell int64     `json:"total_sell"`
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading transaction")
	}
	return row, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Transaction, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing transactions")
	}
	return rows, nil
}

// Void flips a completed sale to voided. It does not reverse the stock or
// loyalty effects of the original settlement.
func (s *service) Void(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	row, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.Status == enums.TransactionStatusVoided {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "transaction is already voided")
	}

	affected, err := s.repo.MarkVoided(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "voiding transaction")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "transaction is already voided")
	}

	ctx = s.logg.WithTransactionCode(ctx, row.Code)
	s.logg.Info(ctx, "transaction voided")

	row.Status = enums.TransactionStatusVoided
	return row, nil
}

// TodayStats aggregates the current calendar day. Voided sales are
// excluded entirely.
func (s *service) TodayStats(ctx context.Context, now time.Time) (*DailyStats, error) {
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 0, 1)

	rows, err := s.repo.List(ctx, ListFilter{
		From:   from,
		To:     to,
		Status: enums.TransactionStatusCompleted,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading daily transactions")
	}

	stats := &DailyStats{Date: from.Format("2006-01-02")}
	for _, row := range rows {
		stats.TransactionCount++
		stats.TotalRevenue += row.Subtotal - row.PointsRedeemed
		stats.TotalProfit += row.TotalProfit

		items, err := decodeItems(row.Items)
		if err != nil {
			s.logg.Error(ctx, "skipping malformed items snapshot", err)
			continue
		}
		for _, item := range items {
			stats.ItemsSold += item.Qty
		}
	}
	return stats, nil
}

// TopProducts ranks products by quantity sold across completed sales in
// the range. Aggregation happens over the item snapshots, so products
// deleted since still appear under their sold name.
func (s *service) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]ProductSales, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.repo.List(ctx, ListFilter{
		From:   from,
		To:     to,
		Status: enums.TransactionStatusCompleted,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading range transactions")
	}

	byProduct := map[uuid.UUID]*ProductSales{}
	for _, row := range rows {
		items, err := decodeItems(row.Items)
		if err != nil {
			s.logg.Error(ctx, "skipping malformed items snapshot", err)
			continue
		}
		for _, item := range items {
			agg, ok := byProduct[item.ProductID]
			if !ok {
				agg = &ProductSales{ProductID: item.ProductID, Name: item.Name}
				byProduct[item.ProductID] = agg
			}
			agg.QtySold += item.Qty
			agg.TotalSell += item.TotalSell
		}
	}

	out := make([]ProductSales, 0, len(byProduct))
	for _, agg := range byProduct {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QtySold != out[j].QtySold {
			return out[i].QtySold > out[j].QtySold
		}
		return out[i].TotalSell > out[j].TotalSell
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func decodeItems(raw json.RawMessage) (types.TransactionItems, error) {
	var items types.TransactionItems
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}
