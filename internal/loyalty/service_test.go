package loyalty

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
	"github.com/warunglabs/kasirpos-backend/pkg/enums"
	pkgerrors "github.com/warunglabs/kasirpos-backend/pkg/errors"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
)

func setupLoyaltyTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	tiers := `
CREATE TABLE IF NOT EXISTS membership_tiers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  min_spend INTEGER NOT NULL DEFAULT 0,
  discount_percent INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`
	customers := `
CREATE TABLE IF NOT EXISTS customers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  phone TEXT NOT NULL UNIQUE,
  points INTEGER NOT NULL DEFAULT 0,
  total_spend INTEGER NOT NULL DEFAULT 0,
  tier_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	rewards := `
CREATE TABLE IF NOT EXISTS point_rewards (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  reward_type TEXT NOT NULL DEFAULT 'discount',
  points_cost INTEGER NOT NULL,
  discount_amount INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`
	for _, stmt := range []string{tiers, customers, rewards} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newLoyaltyService(t *testing.T) (Service, *Repository, *gorm.DB) {
	t.Helper()
	db := setupLoyaltyTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return svc, repo, db
}

func seedCustomer(t *testing.T, db *gorm.DB, points int64) *models.Customer {
	t.Helper()
	customer := &models.Customer{
		ID:     uuid.New(),
		Name:   "Ibu Siti",
		Phone:  "08" + uuid.NewString()[:10],
		Points: points,
	}
	require.NoError(t, db.Create(customer).Error)
	return customer
}

func TestApplyDeltaGuardsAgainstNegativeBalance(t *testing.T) {
	svc, _, db := newLoyaltyService(t)
	customer := seedCustomer(t, db, 5)

	require.NoError(t, svc.ApplyDelta(db, customer.ID, -5, 0))

	err := svc.ApplyDelta(db, customer.ID, -5, 0)
	require.Error(t, err, "a second redemption of the same points must fail")
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	var reloaded models.Customer
	require.NoError(t, db.First(&reloaded, "id = ?", customer.ID).Error)
	assert.Equal(t, int64(0), reloaded.Points)
}

func TestApplyDeltaUnknownCustomer(t *testing.T) {
	svc, _, db := newLoyaltyService(t)

	err := svc.ApplyDelta(db, uuid.New(), 3, 0)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestApplyDeltaRefreshesSpendTier(t *testing.T) {
	svc, _, db := newLoyaltyService(t)
	customer := seedCustomer(t, db, 0)

	bronze := &models.MembershipTier{ID: uuid.New(), Name: "Bronze", MinSpend: 0}
	silver := &models.MembershipTier{ID: uuid.New(), Name: "Silver", MinSpend: 100000}
	require.NoError(t, db.Create(bronze).Error)
	require.NoError(t, db.Create(silver).Error)

	require.NoError(t, svc.ApplyDelta(db, customer.ID, 4, 40000))
	var reloaded models.Customer
	require.NoError(t, db.First(&reloaded, "id = ?", customer.ID).Error)
	require.NotNil(t, reloaded.TierID)
	assert.Equal(t, bronze.ID, *reloaded.TierID)

	require.NoError(t, svc.ApplyDelta(db, customer.ID, 7, 70000))
	require.NoError(t, db.First(&reloaded, "id = ?", customer.ID).Error)
	require.NotNil(t, reloaded.TierID)
	assert.Equal(t, silver.ID, *reloaded.TierID)
	assert.Equal(t, int64(110000), reloaded.TotalSpend)
}

func TestResolveRewardValidations(t *testing.T) {
	svc, repo, db := newLoyaltyService(t)
	ctx := context.Background()
	customer := seedCustomer(t, db, 10)

	discount := &models.PointReward{
		Name:           "Potongan 10rb",
		RewardType:     enums.RewardTypeDiscount,
		PointsCost:     10,
		DiscountAmount: 10000,
	}
	require.NoError(t, repo.CreateReward(ctx, discount))

	merch := &models.PointReward{
		Name:       "Gelas Cantik",
		RewardType: enums.RewardTypeMerchandise,
		PointsCost: 5,
	}
	require.NoError(t, repo.CreateReward(ctx, merch))

	resolved, err := svc.ResolveReward(ctx, customer.ID, discount.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), resolved.DiscountAmount)
	assert.Equal(t, int64(10), resolved.PointsCost)

	_, err = svc.ResolveReward(ctx, customer.ID, merch.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	expensive := &models.PointReward{
		Name:           "Potongan 50rb",
		RewardType:     enums.RewardTypeDiscount,
		PointsCost:     50,
		DiscountAmount: 50000,
	}
	require.NoError(t, repo.CreateReward(ctx, expensive))
	_, err = svc.ResolveReward(ctx, customer.ID, expensive.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.ResolveReward(ctx, customer.ID, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestRewardsForFlagsApplicability(t *testing.T) {
	svc, repo, db := newLoyaltyService(t)
	ctx := context.Background()
	customer := seedCustomer(t, db, 20)

	require.NoError(t, repo.CreateReward(ctx, &models.PointReward{
		Name: "Kecil", RewardType: enums.RewardTypeDiscount, PointsCost: 10, DiscountAmount: 5000,
	}))
	require.NoError(t, repo.CreateReward(ctx, &models.PointReward{
		Name: "Besar", RewardType: enums.RewardTypeDiscount, PointsCost: 100, DiscountAmount: 60000,
	}))

	views, err := svc.RewardsFor(ctx, &customer.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.True(t, views[0].Applicable)
	assert.False(t, views[1].Applicable)

	// Without a customer nothing is applicable.
	views, err = svc.RewardsFor(ctx, nil)
	require.NoError(t, err)
	for _, view := range views {
		assert.False(t, view.Applicable)
	}
}

func TestRewardAndTierValidation(t *testing.T) {
	svc, _, _ := newLoyaltyService(t)
	ctx := context.Background()

	err := svc.CreateReward(ctx, &models.PointReward{
		Name: "Gratis", RewardType: enums.RewardTypeDiscount, PointsCost: 0, DiscountAmount: 1000,
	})
	require.Error(t, err)

	err = svc.CreateTier(ctx, &models.MembershipTier{Name: "Aneh", MinSpend: -1})
	require.Error(t, err)

	err = svc.CreateTier(ctx, &models.MembershipTier{Name: "Gold", MinSpend: 500000, DiscountPercent: 5})
	require.NoError(t, err)

	tiers, err := svc.Tiers(ctx)
	require.NoError(t, err)
	assert.Len(t, tiers, 1)
}

func TestApplyDeltaConcurrentRedemptions(t *testing.T) {
	svc, _, db := newLoyaltyService(t)

	// A single pooled connection keeps both goroutines on the same
	// in-memory database; the guarded UPDATE decides the winner.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	customer := seedCustomer(t, db, 5)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.ApplyDelta(db, customer.ID, -5, 0)
		}()
	}
	wg.Wait()
	close(errs)

	var failed int
	for err := range errs {
		if err != nil {
			failed++
			assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
		}
	}
	assert.Equal(t, 1, failed, "exactly one of the racing redemptions must lose")

	var reloaded models.Customer
	require.NoError(t, db.First(&reloaded, "id = ?", customer.ID).Error)
	assert.Equal(t, int64(0), reloaded.Points)
}
