package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/api/responses"
	"github.com/warunglabs/kasirpos-backend/api/validators"
	"github.com/warunglabs/kasirpos-backend/internal/expenses"
	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
	pkgerrors "github.com/warunglabs/kasirpos-backend/pkg/errors"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
)

const expenseDateLayout = "2006-01-02"

type expensePayload struct {
	Name     string `json:"name" validate:"required"`
	Category string `json:"category" validate:"omitempty,max=100"`
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Date     string `json:"date" validate:"omitempty"`
}

// ExpenseCreate books an out-of-pocket cost. Date defaults to today when
// the payload leaves it empty.
func ExpenseCreate(repo *expenses.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ownerID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload expensePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		date := time.Now().UTC().Truncate(24 * time.Hour)
		if payload.Date != "" {
			date, err = time.Parse(expenseDateLayout, payload.Date)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid expense date"))
				return
			}
		}

		expense := &models.Expense{
			OwnerID:  ownerID,
			Name:     strings.TrimSpace(payload.Name),
			Category: strings.TrimSpace(payload.Category),
			Amount:   payload.Amount,
			Date:     date,
		}
		if err := repo.Create(ctx, expense); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating expense"))
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, expense)
	}
}

// ExpenseList returns the caller's expenses for a date range. Defaults to
// the trailing 30 days when the query leaves the bounds off.
func ExpenseList(repo *expenses.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ownerID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		to := time.Now().UTC().Truncate(24 * time.Hour)
		if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
			to, err = time.Parse(expenseDateLayout, raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid to date"))
				return
			}
		}
		from := to.AddDate(0, 0, -30)
		if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
			from, err = time.Parse(expenseDateLayout, raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid from date"))
				return
			}
		}

		rows, err := repo.ListByDateRange(ctx, ownerID, from, to)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing expenses"))
			return
		}
		total, err := repo.Total(ctx, ownerID, from, to)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summing expenses"))
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"expenses": rows,
			"total":    total,
		})
	}
}

// ExpenseDelete removes one of the caller's expenses.
func ExpenseDelete(repo *expenses.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ownerID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "expenseId")))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid expense id"))
			return
		}

		if err := repo.Delete(ctx, ownerID, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "expense not found"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting expense"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
