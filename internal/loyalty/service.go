package loyalty

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
	"github.com/warunglabs/kasirpos-backend/pkg/enums"
	pkgerrors "github.com/warunglabs/kasirpos-backend/pkg/errors"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
)

type repository interface {
	ApplyDelta(tx *gorm.DB, customerID uuid.UUID, pointsDelta, spendDelta int64) (bool, error)
	SetTier(tx *gorm.DB, customerID uuid.UUID, tierID *uuid.UUID) error
	FindTierForSpend(tx *gorm.DB, spend int64) (*models.MembershipTier, error)
	FindCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	CreateReward(ctx context.Context, reward *models.PointReward) error
	FindReward(ctx context.Context, id uuid.UUID) (*models.PointReward, error)
	ListRewards(ctx context.Context) ([]models.PointReward, error)
	UpdateReward(ctx context.Context, reward *models.PointReward) error
	DeleteReward(ctx context.Context, id uuid.UUID) error
	CreateTier(ctx context.Context, tier *models.MembershipTier) error
	ListTiers(ctx context.Context) ([]models.MembershipTier, error)
	UpdateTier(ctx context.Context, tier *models.MembershipTier) error
	DeleteTier(ctx context.Context, id uuid.UUID) error
}

// RewardView is a catalog row flagged against one customer's balance.
type RewardView struct {
	models.PointReward
	Applicable bool `json:"applicable"`
}

// RedeemedReward is the discount settlement applies for a reward choice.
type RedeemedReward struct {
	RewardID       uuid.UUID
	PointsCost     int64
	DiscountAmount int64
}

// Service exposes the point ledger and the reward/tier catalogs.
type Service interface {
	ApplyDelta(tx *gorm.DB, customerID uuid.UUID, pointsDelta, spendDelta int64) error
	ResolveReward(ctx context.Context, customerID, rewardID uuid.UUID) (*RedeemedReward, error)
	RewardsFor(ctx context.Context, customerID *uuid.UUID) ([]RewardView, error)
	CreateReward(ctx context.Context, reward *models.PointReward) error
	UpdateReward(ctx context.Context, reward *models.PointReward) error
	DeleteReward(ctx context.Context, id uuid.UUID) error
	Tiers(ctx context.Context) ([]models.MembershipTier, error)
	CreateTier(ctx context.Context, tier *models.MembershipTier) error
	UpdateTier(ctx context.Context, tier *models.MembershipTier) error
	DeleteTier(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo repository
	logg *logger.Logger
}

// NewService builds a loyalty service backed by the provided stack.
func NewService(repo repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("loyalty repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// ApplyDelta mutates the balance inside the caller's transaction and then
// refreshes the customer's spend tier. The guarded update is the only
// defense against concurrent settlements double-spending points.
func (s *service) ApplyDelta(tx *gorm.DB, customerID uuid.UUID, pointsDelta, spendDelta int64) error {
	applied, err := s.repo.ApplyDelta(tx, customerID, pointsDelta, spendDelta)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying point delta")
	}
	if !applied {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "point balance cannot go negative")
	}

	if spendDelta > 0 {
		if err := s.refreshTier(tx, customerID); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) refreshTier(tx *gorm.DB, customerID uuid.UUID) error {
	var customer models.Customer
	if err := tx.Where("id = ?", customerID).First(&customer).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading customer for tier refresh")
	}
	tier, err := s.repo.FindTierForSpend(tx, customer.TotalSpend)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving spend tier")
	}
	var tierID *uuid.UUID
	if tier != nil {
		tierID = &tier.ID
	}
	if equalUUIDPtr(tierID, customer.TierID) {
		return nil
	}
	if err := s.repo.SetTier(tx, customerID, tierID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assigning spend tier")
	}
	return nil
}

// ResolveReward validates a redemption choice before settlement commits.
// Only fixed-amount discount rewards participate; merchandise rewards are
// display-only.
func (s *service) ResolveReward(ctx context.Context, customerID, rewardID uuid.UUID) (*RedeemedReward, error) {
	reward, err := s.repo.FindReward(ctx, rewardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reward not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading reward")
	}
	if reward.RewardType != enums.RewardTypeDiscount {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only discount rewards can be redeemed at settlement")
	}

	customer, err := s.repo.FindCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading customer")
	}
	if customer.Points < reward.PointsCost {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer has insufficient points for reward")
	}

	return &RedeemedReward{
		RewardID:       reward.ID,
		PointsCost:     reward.PointsCost,
		DiscountAmount: reward.DiscountAmount,
	}, nil
}

// RewardsFor lists the catalog; with a customer attached each row carries
// whether their balance covers it.
func (s *service) RewardsFor(ctx context.Context, customerID *uuid.UUID) ([]RewardView, error) {
	rewards, err := s.repo.ListRewards(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing rewards")
	}

	var balance int64 = -1
	if customerID != nil {
		customer, err := s.repo.FindCustomer(ctx, *customerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading customer")
		}
		balance = customer.Points
	}

	views := make([]RewardView, 0, len(rewards))
	for _, reward := range rewards {
		views = append(views, RewardView{
			PointReward: reward,
			Applicable:  balance >= 0 && reward.PointsCost <= balance,
		})
	}
	return views, nil
}

func (s *service) CreateReward(ctx context.Context, reward *models.PointReward) error {
	if err := validateReward(reward); err != nil {
		return err
	}
	return s.repo.CreateReward(ctx, reward)
}

func (s *service) UpdateReward(ctx context.Context, reward *models.PointReward) error {
	if err := validateReward(reward); err != nil {
		return err
	}
	return s.repo.UpdateReward(ctx, reward)
}

func (s *service) DeleteReward(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteReward(ctx, id)
}

func (s *service) Tiers(ctx context.Context) ([]models.MembershipTier, error) {
	return s.repo.ListTiers(ctx)
}

func (s *service) CreateTier(ctx context.Context, tier *models.MembershipTier) error {
	if err := validateTier(tier); err != nil {
		return err
	}
	return s.repo.CreateTier(ctx, tier)
}

func (s *service) UpdateTier(ctx context.Context, tier *models.MembershipTier) error {
	if err := validateTier(tier); err != nil {
		return err
	}
	return s.repo.UpdateTier(ctx, tier)
}

func (s *service) DeleteTier(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteTier(ctx, id)
}

func validateReward(reward *models.PointReward) error {
	if reward == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "reward is required")
	}
	if reward.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reward name is required")
	}
	if !reward.RewardType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid reward type")
	}
	if reward.PointsCost <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "points cost must be positive")
	}
	if reward.RewardType == enums.RewardTypeDiscount && reward.DiscountAmount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount rewards need a positive amount")
	}
	return nil
}

func validateTier(tier *models.MembershipTier) error {
	if tier == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tier is required")
	}
	if tier.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "tier name is required")
	}
	if tier.MinSpend < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "minimum spend cannot be negative")
	}
	if tier.DiscountPercent < 0 || tier.DiscountPercent > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be 0-100")
	}
	return nil
}

func equalUUIDPtr(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
