package loyalty

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
)

// Repository owns point balance mutations, the reward catalog, and
// membership tiers.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to loyalty operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ApplyDelta mutates the customer's points and lifetime spend in one
// statement. The condition keeps the balance non-negative under
// concurrent settlements; a false return means the guard rejected the
// update or the customer does not exist.
func (r *Repository) ApplyDelta(tx *gorm.DB, customerID uuid.UUID, pointsDelta, spendDelta int64) (bool, error) {
	if tx == nil {
		return false, gorm.ErrInvalidTransaction
	}
	result := tx.Model(&models.Customer{}).
		Where("id = ? AND points + ? >= 0", customerID, pointsDelta).
		Updates(map[string]any{
			"points":      gorm.Expr("points + ?", pointsDelta),
			"total_spend": gorm.Expr("total_spend + ?", spendDelta),
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetTier assigns the customer's membership tier.
func (r *Repository) SetTier(tx *gorm.DB, customerID uuid.UUID, tierID *uuid.UUID) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Model(&models.Customer{}).
		Where("id = ?", customerID).
		Update("tier_id", tierID).Error
}

// FindTierForSpend returns the highest tier whose threshold the spend
// clears, or nil when none match.
func (r *Repository) FindTierForSpend(tx *gorm.DB, spend int64) (*models.MembershipTier, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var tier models.MembershipTier
	err := tx.Where("min_spend <= ?", spend).
		Order("min_spend DESC").
		First(&tier).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

// FindCustomer loads the customer row with its tier.
func (r *Repository) FindCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).
		Preload("Tier").
		Where("id = ?", id).
		First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// CreateReward persists a new reward catalog entry.
func (r *Repository) CreateReward(ctx context.Context, reward *models.PointReward) error {
	if reward == nil {
		return fmt.Errorf("reward is required")
	}
	if reward.ID == uuid.Nil {
		reward.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(reward).Error
}

// FindReward loads a reward by its UUID.
func (r *Repository) FindReward(ctx context.Context, id uuid.UUID) (*models.PointReward, error) {
	var reward models.PointReward
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&reward).Error; err != nil {
		return nil, err
	}
	return &reward, nil
}

// ListRewards returns the catalog cheapest first.
func (r *Repository) ListRewards(ctx context.Context) ([]models.PointReward, error) {
	var rows []models.PointReward
	if err := r.db.WithContext(ctx).Order("points_cost ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateReward saves the provided reward.
func (r *Repository) UpdateReward(ctx context.Context, reward *models.PointReward) error {
	if reward == nil {
		return fmt.Errorf("reward is required")
	}
	return r.db.WithContext(ctx).Save(reward).Error
}

// DeleteReward removes the reward row.
func (r *Repository) DeleteReward(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PointReward{}).Error
}

// CreateTier persists a new membership tier.
func (r *Repository) CreateTier(ctx context.Context, tier *models.MembershipTier) error {
	if tier == nil {
		return fmt.Errorf("tier is required")
	}
	if tier.ID == uuid.Nil {
		tier.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(tier).Error
}

// ListTiers returns tiers by ascending spend threshold.
func (r *Repository) ListTiers(ctx context.Context) ([]models.MembershipTier, error) {
	var rows []models.MembershipTier
	if err := r.db.WithContext(ctx).Order("min_spend ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateTier saves the provided tier.
func (r *Repository) UpdateTier(ctx context.Context, tier *models.MembershipTier) error {
	if tier == nil {
		return fmt.Errorf("tier is required")
	}
	return r.db.WithContext(ctx).Save(tier).Error
}

// DeleteTier removes the tier and detaches its customers.
func (r *Repository) DeleteTier(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Customer{}).
			Where("tier_id = ?", id).
			Update("tier_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.MembershipTier{}).Error
	})
}
