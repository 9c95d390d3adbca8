package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warunglabs/kasirpos-backend/api/responses"
	"github.com/warunglabs/kasirpos-backend/api/validators"
	"github.com/warunglabs/kasirpos-backend/internal/cart"
	"github.com/warunglabs/kasirpos-backend/internal/heldorders"
	pkgerrors "github.com/warunglabs/kasirpos-backend/pkg/errors"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
)

type holdPayload struct {
	Name string `json:"name" validate:"required"`
}

// HeldOrderCreate parks the caller's cart under a name and empties it.
func HeldOrderCreate(svc heldorders.Service, registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "held order service unavailable"))
			return
		}

		userID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload holdPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		userCart := registry.Get(userID)
		held, err := svc.Hold(ctx, userID, payload.Name, userCart.Lines())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		userCart.Clear()
		responses.WriteSuccessStatus(w, http.StatusCreated, held)
	}
}

// HeldOrderList returns the caller's parked orders, oldest first.
func HeldOrderList(svc heldorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "held order service unavailable"))
			return
		}

		userID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.List(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// HeldOrderRecall restores a parked order into the caller's cart and
// deletes it. Recall is destructive: a second recall of the same id fails.
func HeldOrderRecall(svc heldorders.Service, registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "held order service unavailable"))
			return
		}

		userID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "heldOrderId")))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid held order id"))
			return
		}

		lines, err := svc.Recall(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		userCart := registry.Get(userID)
		userCart.ReplaceAll(lines)
		responses.WriteSuccess(w, cartView{Lines: userCart.Lines(), Totals: userCart.Totals()})
	}
}

// HeldOrderDelete discards a parked order without recalling it.
func HeldOrderDelete(svc heldorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "held order service unavailable"))
			return
		}

		id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "heldOrderId")))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid held order id"))
			return
		}

		if err := svc.Delete(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}
