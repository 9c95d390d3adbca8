package transactions

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/internal/cart"
	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
	"github.com/warunglabs/kasirpos-backend/pkg/enums"
	pkgerrors "github.com/warunglabs/kasirpos-backend/pkg/errors"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
)

type fakeRepo struct {
	rows       map[uuid.UUID]*models.Transaction
	voidCalls  int
	listResult []models.Transaction
	listErr    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[uuid.UUID]*models.Transaction{}}
}

func (f *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Transaction, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	dup := *row
	return &dup, nil
}

func (f *fakeRepo) List(_ context.Context, _ ListFilter) ([]models.Transaction, error) {
	return f.listResult, f.listErr
}

func (f *fakeRepo) MarkVoided(_ context.Context, id uuid.UUID) (int64, error) {
	f.voidCalls++
	row, ok := f.rows[id]
	if !ok || row.Status != enums.TransactionStatusCompleted {
		return 0, nil
	}
	row.Status = enums.TransactionStatusVoided
	return 1, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func mustItems(t *testing.T, items string) json.RawMessage {
	t.Helper()
	return json.RawMessage(items)
}

func TestVoidFlipsStatusOnce(t *testing.T) {
	repo := newFakeRepo()
	id := uuid.New()
	repo.rows[id] = &models.Transaction{
		ID:     id,
		Code:   "TRX-20260830-0001",
		Status: enums.TransactionStatusCompleted,
	}

	svc, err := NewService(repo, testLogger())
	require.NoError(t, err)

	voided, err := svc.Void(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusVoided, voided.Status)

	_, err = svc.Void(context.Background(), id)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestVoidUnknownTransaction(t *testing.T) {
	svc, err := NewService(newFakeRepo(), testLogger())
	require.NoError(t, err)

	_, err = svc.Void(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestTodayStatsAggregatesCompletedSales(t *testing.T) {
	productA := uuid.New()
	repo := newFakeRepo()
	repo.listResult = []models.Transaction{
		{
			Subtotal:       50000,
			PointsRedeemed: 10000,
			TotalProfit:    15000,
			Items: mustItems(t, `[
				{"product_id":"`+productA.String()+`","name":"Kopi","qty":2,"sell_price":25000,"cost_price":17500,"total_sell":50000,"total_cost":35000,"profit":15000}
			]`),
		},
		{
			Subtotal:    20000,
			TotalProfit: 8000,
			Items: mustItems(t, `[
				{"product_id":"`+productA.String()+`","name":"Kopi","qty":1,"sell_price":20000,"cost_price":12000,"total_sell":20000,"total_cost":12000,"profit":8000}
			]`),
		},
	}

	svc, err := NewService(repo, testLogger())
	require.NoError(t, err)

	stats, err := svc.TodayStats(context.Background(), time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "2026-08-30", stats.Date)
	assert.Equal(t, int64(2), stats.TransactionCount)
	assert.Equal(t, int64(60000), stats.TotalRevenue, "revenue nets out redeemed points")
	assert.Equal(t, int64(23000), stats.TotalProfit)
	assert.Equal(t, int64(3), stats.ItemsSold)
}

func TestTopProductsRanksByQty(t *testing.T) {
	kopi := uuid.New()
	teh := uuid.New()
	repo := newFakeRepo()
	repo.listResult = []models.Transaction{
		{Items: mustItems(t, `[
			{"product_id":"`+kopi.String()+`","name":"Kopi","qty":3,"total_sell":54000},
			{"product_id":"`+teh.String()+`","name":"Teh","qty":1,"total_sell":8000}
		]`)},
		{Items: mustItems(t, `[
			{"product_id":"`+teh.String()+`","name":"Teh","qty":1,"total_sell":8000}
		]`)},
	}

	svc, err := NewService(repo, testLogger())
	require.NoError(t, err)

	top, err := svc.TopProducts(context.Background(), time.Time{}, time.Time{}, 5)
	require.NoError(t, err)

	require.Len(t, top, 2)
	assert.Equal(t, kopi, top[0].ProductID)
	assert.Equal(t, int64(3), top[0].QtySold)
	assert.Equal(t, int64(2), top[1].QtySold)
	assert.Equal(t, int64(16000), top[1].TotalSell)
}

func TestTopProductsSkipsMalformedSnapshots(t *testing.T) {
	kopi := uuid.New()
	repo := newFakeRepo()
	repo.listResult = []models.Transaction{
		{Items: mustItems(t, `{broken`)},
		{Items: mustItems(t, `[{"product_id":"`+kopi.String()+`","name":"Kopi","qty":1,"total_sell":18000}]`)},
	}

	svc, err := NewService(repo, testLogger())
	require.NoError(t, err)

	top, err := svc.TopProducts(context.Background(), time.Time{}, time.Time{}, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, kopi, top[0].ProductID)
}

func TestStatsConsumeCartSnapshots(t *testing.T) {
	kopi := uuid.New()
	basket := cart.New()
	line, err := basket.AddLine(models.Product{ID: kopi, Name: "Kopi", SellPrice: 25000, CostPrice: 17500}, nil)
	require.NoError(t, err)
	require.NoError(t, basket.ChangeQuantity(line.Key, 2))

	raw, err := json.Marshal(basket.Snapshot())
	require.NoError(t, err)

	repo := newFakeRepo()
	repo.listResult = []models.Transaction{
		{Subtotal: 75000, TotalProfit: 22500, Items: raw},
	}

	svc, err := NewService(repo, testLogger())
	require.NoError(t, err)

	stats, err := svc.TodayStats(context.Background(), time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.ItemsSold)

	top, err := svc.TopProducts(context.Background(), time.Time{}, time.Time{}, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, int64(3), top[0].QtySold)
	assert.Equal(t, int64(75000), top[0].TotalSell)
}
