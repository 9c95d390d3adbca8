package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/api/responses"
	"github.com/warunglabs/kasirpos-backend/api/validators"
	"github.com/warunglabs/kasirpos-backend/internal/warehouses"
	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
	pkgerrors "github.com/warunglabs/kasirpos-backend/pkg/errors"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
)

type warehousePayload struct {
	Name      string `json:"name" validate:"required"`
	IsPrimary bool   `json:"is_primary"`
}

// WarehouseCreate adds a stock location. The first one should be flagged
// primary so settlements have somewhere to book against.
func WarehouseCreate(repo *warehouses.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload warehousePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		warehouse := &models.Warehouse{
			Name:      strings.TrimSpace(payload.Name),
			IsPrimary: payload.IsPrimary,
		}
		if err := repo.Create(ctx, warehouse); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating warehouse"))
			return
		}
		if payload.IsPrimary {
			if err := repo.SetPrimary(ctx, warehouse.ID); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking primary warehouse"))
				return
			}
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, warehouse)
	}
}

// WarehouseList returns the store's stock locations.
func WarehouseList(repo *warehouses.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rows, err := repo.List(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing warehouses"))
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// WarehouseSetPrimary moves the primary flag. Exactly one warehouse holds
// it at a time; every cashier settles against it.
func WarehouseSetPrimary(repo *warehouses.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "warehouseId")))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid warehouse id"))
			return
		}

		warehouse, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "warehouse not found"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading warehouse"))
			return
		}

		if err := repo.SetPrimary(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking primary warehouse"))
			return
		}
		warehouse.IsPrimary = true
		responses.WriteSuccess(w, warehouse)
	}
}
