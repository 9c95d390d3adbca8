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
	"github.com/warunglabs/kasirpos-backend/internal/customers"
	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
	pkgerrors "github.com/warunglabs/kasirpos-backend/pkg/errors"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
)

type customerPayload struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required,min=6"`
}

// CustomerCreate registers a loyalty member. Phone numbers are unique.
func CustomerCreate(repo *customers.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload customerPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		customer := &models.Customer{
			Name:  strings.TrimSpace(payload.Name),
			Phone: strings.TrimSpace(payload.Phone),
		}
		if err := repo.Create(ctx, customer); err != nil {
			if pkgerrors.IsUniqueViolation(err, "") {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "phone already registered"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating customer"))
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, customer)
	}
}

// CustomerList returns all loyalty members.
func CustomerList(repo *customers.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if phone := strings.TrimSpace(r.URL.Query().Get("phone")); phone != "" {
			customer, err := repo.FindByPhone(ctx, phone)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found"))
					return
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading customer"))
				return
			}
			responses.WriteSuccess(w, []models.Customer{*customer})
			return
		}

		rows, err := repo.List(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing customers"))
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// CustomerGet returns one member with balance and tier.
func CustomerGet(repo *customers.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "customerId")))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id"))
			return
		}

		customer, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading customer"))
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

// CustomerUpdate edits name and phone. Points and tier only move through
// settlement.
func CustomerUpdate(repo *customers.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "customerId")))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id"))
			return
		}

		var payload customerPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		customer, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading customer"))
			return
		}

		customer.Name = strings.TrimSpace(payload.Name)
		customer.Phone = strings.TrimSpace(payload.Phone)
		if err := repo.Update(ctx, customer); err != nil {
			if pkgerrors.IsUniqueViolation(err, "") {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "phone already registered"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating customer"))
			return
		}
		responses.WriteSuccess(w, customer)
	}
}
