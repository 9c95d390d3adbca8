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
	"github.com/warunglabs/kasirpos-backend/internal/products"
	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
	pkgerrors "github.com/warunglabs/kasirpos-backend/pkg/errors"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
	"github.com/warunglabs/kasirpos-backend/pkg/types"
)

type modifierPayload struct {
	Name  string `json:"name" validate:"required"`
	Price int64  `json:"price"`
	Cost  int64  `json:"cost" validate:"gte=0"`
}

type productPayload struct {
	Name      string            `json:"name" validate:"required"`
	Category  string            `json:"category" validate:"omitempty,max=100"`
	SellPrice int64             `json:"sell_price" validate:"gte=0"`
	CostPrice int64             `json:"cost_price" validate:"gte=0"`
	Modifiers []modifierPayload `json:"modifiers" validate:"omitempty,dive"`
}

func (p productPayload) modifiers() types.Modifiers {
	if len(p.Modifiers) == 0 {
		return nil
	}
	mods := make(types.Modifiers, 0, len(p.Modifiers))
	for _, m := range p.Modifiers {
		mods = append(mods, types.Modifier{
			Name:  strings.TrimSpace(m.Name),
			Price: m.Price,
			Cost:  m.Cost,
		})
	}
	return mods
}

// ProductCreate adds a sellable item to the caller's catalog.
func ProductCreate(repo *products.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ownerID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload productPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product := &models.Product{
			OwnerID:   ownerID,
			Name:      strings.TrimSpace(payload.Name),
			Category:  strings.TrimSpace(payload.Category),
			SellPrice: payload.SellPrice,
			CostPrice: payload.CostPrice,
			Modifiers: payload.modifiers(),
		}
		if err := repo.Create(ctx, product); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product"))
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// ProductList returns the catalog, optionally filtered by category.
func ProductList(repo *products.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ownerID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		category := strings.TrimSpace(r.URL.Query().Get("category"))
		rows, err := repo.List(ctx, ownerID, category)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products"))
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// ProductGet returns one catalog item.
func ProductGet(repo *products.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "productId")))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		product, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product"))
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductUpdate replaces a catalog item's details. Cost price also moves
// automatically when purchases are received.
func ProductUpdate(repo *products.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "productId")))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		var payload productPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product"))
			return
		}

		product.Name = strings.TrimSpace(payload.Name)
		product.Category = strings.TrimSpace(payload.Category)
		product.SellPrice = payload.SellPrice
		product.CostPrice = payload.CostPrice
		product.Modifiers = payload.modifiers()
		if err := repo.Update(ctx, product); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating product"))
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductDelete removes a catalog item. Historic transaction lines keep their
// denormalized snapshot.
func ProductDelete(repo *products.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "productId")))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		if err := repo.Delete(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting product"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
