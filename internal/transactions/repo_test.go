package transactions

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
	"github.com/warunglabs/kasirpos-backend/pkg/enums"
)

func setupTransactionsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  idempotency_key TEXT UNIQUE,
  datetime DATETIME NOT NULL,
  user_id TEXT NOT NULL,
  customer_id TEXT,
  items TEXT NOT NULL,
  subtotal INTEGER NOT NULL,
  total_cost INTEGER NOT NULL,
  total_profit INTEGER NOT NULL,
  payment_method TEXT NOT NULL,
  cash_received INTEGER NOT NULL,
  change INTEGER NOT NULL,
  points_redeemed INTEGER NOT NULL DEFAULT 0,
  points_earned INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'completed',
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedTransaction(t *testing.T, db *gorm.DB, at time.Time, status enums.TransactionStatus) *models.Transaction {
	t.Helper()
	row := &models.Transaction{
		ID:            uuid.New(),
		Code:          "TRX-" + uuid.NewString()[:13],
		Datetime:      at,
		UserID:        uuid.New(),
		Items:         json.RawMessage(`[]`),
		Subtotal:      50000,
		TotalCost:     30000,
		TotalProfit:   20000,
		PaymentMethod: enums.PaymentMethodCash,
		CashReceived:  50000,
		Status:        status,
	}
	require.NoError(t, db.Create(row).Error)
	return row
}

func TestRepositoryCreateAndFind(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	key := "settle-" + uuid.NewString()
	row := &models.Transaction{
		Code:           GenerateCode(time.Now()),
		IdempotencyKey: &key,
		Datetime:       time.Now(),
		UserID:         uuid.New(),
		Items:          json.RawMessage(`[]`),
		Subtotal:       10000,
		TotalCost:      4000,
		TotalProfit:    6000,
		PaymentMethod:  enums.PaymentMethodQR,
		Status:         enums.TransactionStatusCompleted,
	}
	require.NoError(t, repo.Create(db, row))
	require.NotEqual(t, uuid.Nil, row.ID)

	found, err := repo.FindByID(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, row.Code, found.Code)

	byKey, err := repo.FindByIdempotencyKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, row.ID, byKey.ID)
}

func TestRepositoryCreateRejectsDuplicateIdempotencyKey(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)

	key := "settle-" + uuid.NewString()
	first := seedTransaction(t, db, time.Now(), enums.TransactionStatusCompleted)
	first.IdempotencyKey = &key
	require.NoError(t, db.Save(first).Error)

	dup := &models.Transaction{
		Code:           GenerateCode(time.Now().Add(time.Second)),
		IdempotencyKey: &key,
		Datetime:       time.Now(),
		UserID:         uuid.New(),
		Items:          json.RawMessage(`[]`),
		PaymentMethod:  enums.PaymentMethodCash,
		Status:         enums.TransactionStatusCompleted,
	}
	assert.Error(t, repo.Create(db, dup))
}

func TestRepositoryListFiltersByRangeAndStatus(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	inRange := seedTransaction(t, db, base, enums.TransactionStatusCompleted)
	seedTransaction(t, db, base, enums.TransactionStatusVoided)
	seedTransaction(t, db, base.AddDate(0, 0, -2), enums.TransactionStatusCompleted)

	rows, err := repo.List(ctx, ListFilter{
		From:   base.Add(-time.Hour),
		To:     base.Add(time.Hour),
		Status: enums.TransactionStatusCompleted,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, inRange.ID, rows[0].ID)
}

func TestRepositoryMarkVoidedIsOneShot(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	row := seedTransaction(t, db, time.Now(), enums.TransactionStatusCompleted)

	affected, err := repo.MarkVoided(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = repo.MarkVoided(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected, "second void must not match any row")
}
