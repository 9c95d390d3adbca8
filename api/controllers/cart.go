package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/api/responses"
	"github.com/warunglabs/kasirpos-backend/api/validators"
	"github.com/warunglabs/kasirpos-backend/internal/cart"
	"github.com/warunglabs/kasirpos-backend/internal/pricing"
	"github.com/warunglabs/kasirpos-backend/internal/products"
	"github.com/warunglabs/kasirpos-backend/pkg/enums"
	pkgerrors "github.com/warunglabs/kasirpos-backend/pkg/errors"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
)

type cartAddPayload struct {
	ProductID string   `json:"product_id" validate:"required,uuid4"`
	Modifiers []string `json:"modifiers" validate:"omitempty,dive,min=1"`
}

type cartQuantityPayload struct {
	Key   string `json:"key" validate:"required"`
	Delta int64  `json:"delta" validate:"required"`
}

type cartRemovePayload struct {
	Key string `json:"key" validate:"required"`
}

type cartQuotePayload struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cash qr"`
	CashReceived  int64  `json:"cash_received" validate:"omitempty,min=0"`
	Discount      int64  `json:"discount" validate:"omitempty,min=0"`
}

type cartView struct {
	Lines  []cart.Line `json:"lines"`
	Totals cart.Totals `json:"totals"`
}

type quoteView struct {
	pricing.Quote
	QuickAmounts []int64 `json:"quick_amounts"`
}

func viewOf(c *cart.Cart) cartView {
	return cartView{Lines: c.Lines(), Totals: c.Totals()}
}

// CartGet returns the caller's current cart.
func CartGet(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, viewOf(registry.Get(userID)))
	}
}

// CartAddItem adds one unit of a product with the selected modifiers.
func CartAddItem(registry *cart.Registry, repo *products.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload cartAddPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		productID, err := uuid.Parse(strings.TrimSpace(payload.ProductID))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		product, err := repo.FindByID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product"))
			return
		}

		userCart := registry.Get(userID)
		if _, err := userCart.AddLine(*product, payload.Modifiers); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, viewOf(userCart))
	}
}

// CartChangeQuantity applies a signed quantity delta to one line. Reaching
// zero removes the line.
func CartChangeQuantity(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload cartQuantityPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		userCart := registry.Get(userID)
		if err := userCart.ChangeQuantity(payload.Key, payload.Delta); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, viewOf(userCart))
	}
}

// CartRemoveItem deletes one line from the cart.
func CartRemoveItem(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload cartRemovePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		userCart := registry.Get(userID)
		if err := userCart.RemoveLine(payload.Key); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, viewOf(userCart))
	}
}

// CartClear drops all lines.
func CartClear(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		userCart := registry.Get(userID)
		userCart.Clear()
		responses.WriteSuccess(w, viewOf(userCart))
	}
}

// CartQuote previews the payable total, change, and suggested cash
// denominations without settling.
func CartQuote(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload cartQuotePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		method := enums.PaymentMethod(payload.PaymentMethod)
		if !method.IsValid() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method"))
			return
		}

		totals := registry.Get(userID).Totals()
		quote := pricing.Compute(totals.Subtotal, payload.Discount, method, payload.CashReceived)
		responses.WriteSuccess(w, quoteView{
			Quote:        quote,
			QuickAmounts: pricing.QuickAmounts(quote.FinalTotal),
		})
	}
}
