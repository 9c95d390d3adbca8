package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/warunglabs/kasirpos-backend/api/responses"
	"github.com/warunglabs/kasirpos-backend/api/validators"
	"github.com/warunglabs/kasirpos-backend/internal/cart"
	"github.com/warunglabs/kasirpos-backend/internal/settlement"
	"github.com/warunglabs/kasirpos-backend/pkg/enums"
	pkgerrors "github.com/warunglabs/kasirpos-backend/pkg/errors"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
)

type settlePayload struct {
	PaymentMethod string  `json:"payment_method" validate:"required,oneof=cash qr"`
	CashReceived  int64   `json:"cash_received" validate:"omitempty,min=0"`
	CustomerID    *string `json:"customer_id" validate:"omitempty,uuid4"`
	RewardID      *string `json:"reward_id" validate:"omitempty,uuid4"`
}

// SettlementCreate settles the caller's cart. The cart is cleared only
// after the sale is durable.
func SettlementCreate(svc settlement.Service, registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		userID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload settlePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := settlement.Input{
			UserID:         userID,
			PaymentMethod:  enums.PaymentMethod(payload.PaymentMethod),
			CashReceived:   payload.CashReceived,
			IdempotencyKey: strings.TrimSpace(r.Header.Get("Idempotency-Key")),
			Items:          registry.Get(userID).Snapshot(),
		}

		if payload.CustomerID != nil {
			customerID, parseErr := uuid.Parse(strings.TrimSpace(*payload.CustomerID))
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid customer id"))
				return
			}
			input.CustomerID = &customerID
		}
		if payload.RewardID != nil {
			rewardID, parseErr := uuid.Parse(strings.TrimSpace(*payload.RewardID))
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid reward id"))
				return
			}
			input.RewardID = &rewardID
		}

		transaction, err := svc.Settle(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		registry.Drop(userID)
		responses.WriteSuccessStatus(w, http.StatusCreated, transaction)
	}
}
