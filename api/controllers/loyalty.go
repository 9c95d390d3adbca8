package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warunglabs/kasirpos-backend/api/responses"
	"github.com/warunglabs/kasirpos-backend/api/validators"
	"github.com/warunglabs/kasirpos-backend/internal/loyalty"
	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
	"github.com/warunglabs/kasirpos-backend/pkg/enums"
	pkgerrors "github.com/warunglabs/kasirpos-backend/pkg/errors"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
)

type rewardPayload struct {
	Name           string `json:"name" validate:"required"`
	RewardType     string `json:"reward_type" validate:"omitempty,oneof=discount merchandise"`
	PointsCost     int64  `json:"points_cost" validate:"required,min=1"`
	DiscountAmount int64  `json:"discount_amount" validate:"omitempty,min=0"`
}

type tierPayload struct {
	Name            string `json:"name" validate:"required"`
	MinSpend        int64  `json:"min_spend" validate:"omitempty,min=0"`
	DiscountPercent int    `json:"discount_percent" validate:"omitempty,min=0,max=100"`
}

// LoyaltyRewards lists the reward catalog. With a customer_id query param
// each entry carries an applicability flag for that customer's balance.
func LoyaltyRewards(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		var customerID *uuid.UUID
		if raw := strings.TrimSpace(r.URL.Query().Get("customer_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id"))
				return
			}
			customerID = &id
		}

		rows, err := svc.RewardsFor(ctx, customerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// LoyaltyRewardCreate adds a reward catalog entry.
func LoyaltyRewardCreate(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		var payload rewardPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		reward := &models.PointReward{
			Name:           payload.Name,
			RewardType:     enums.RewardType(payload.RewardType),
			PointsCost:     payload.PointsCost,
			DiscountAmount: payload.DiscountAmount,
		}
		if reward.RewardType == "" {
			reward.RewardType = enums.RewardTypeDiscount
		}
		if err := svc.CreateReward(ctx, reward); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, reward)
	}
}

// LoyaltyRewardUpdate edits a reward catalog entry.
func LoyaltyRewardUpdate(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "rewardId")))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reward id"))
			return
		}

		var payload rewardPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		reward := &models.PointReward{
			ID:             id,
			Name:           payload.Name,
			RewardType:     enums.RewardType(payload.RewardType),
			PointsCost:     payload.PointsCost,
			DiscountAmount: payload.DiscountAmount,
		}
		if reward.RewardType == "" {
			reward.RewardType = enums.RewardTypeDiscount
		}
		if err := svc.UpdateReward(ctx, reward); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, reward)
	}
}

// LoyaltyRewardDelete removes a reward catalog entry.
func LoyaltyRewardDelete(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "rewardId")))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reward id"))
			return
		}

		if err := svc.DeleteReward(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// LoyaltyTiers lists membership tiers.
func LoyaltyTiers(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		rows, err := svc.Tiers(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// LoyaltyTierCreate adds a membership tier.
func LoyaltyTierCreate(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		var payload tierPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		tier := &models.MembershipTier{
			Name:            payload.Name,
			MinSpend:        payload.MinSpend,
			DiscountPercent: payload.DiscountPercent,
		}
		if err := svc.CreateTier(ctx, tier); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, tier)
	}
}

// LoyaltyTierUpdate edits a membership tier.
func LoyaltyTierUpdate(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "tierId")))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tier id"))
			return
		}

		var payload tierPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		tier := &models.MembershipTier{
			ID:              id,
			Name:            payload.Name,
			MinSpend:        payload.MinSpend,
			DiscountPercent: payload.DiscountPercent,
		}
		if err := svc.UpdateTier(ctx, tier); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, tier)
	}
}

// LoyaltyTierDelete removes a tier and detaches its customers.
func LoyaltyTierDelete(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "tierId")))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tier id"))
			return
		}

		if err := svc.DeleteTier(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}
