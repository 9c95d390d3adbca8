package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warunglabs/kasirpos-backend/api/responses"
	"github.com/warunglabs/kasirpos-backend/api/validators"
	"github.com/warunglabs/kasirpos-backend/internal/purchasing"
	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
	pkgerrors "github.com/warunglabs/kasirpos-backend/pkg/errors"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
)

type supplierPayload struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"omitempty,min=6"`
	Address string `json:"address" validate:"omitempty,max=500"`
}

type purchaseLinePayload struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Qty       string `json:"qty" validate:"required"`
	UnitCost  int64  `json:"unit_cost" validate:"gte=0"`
}

type purchasePayload struct {
	SupplierID   string                `json:"supplier_id" validate:"required,uuid4"`
	WarehouseID  string                `json:"warehouse_id" validate:"required,uuid4"`
	PurchaseDate string                `json:"purchase_date" validate:"omitempty"`
	Items        []purchaseLinePayload `json:"items" validate:"required,min=1,dive"`
}

// SupplierCreate adds a supplier to the caller's directory.
func SupplierCreate(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ownerID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload supplierPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		supplier := &models.Supplier{
			OwnerID: ownerID,
			Name:    strings.TrimSpace(payload.Name),
			Phone:   strings.TrimSpace(payload.Phone),
			Address: strings.TrimSpace(payload.Address),
		}
		if err := svc.CreateSupplier(ctx, supplier); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, supplier)
	}
}

// SupplierList returns the caller's suppliers ordered by name.
func SupplierList(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ownerID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.Suppliers(ctx, ownerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// SupplierUpdate edits a supplier's contact details.
func SupplierUpdate(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ownerID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "supplierId")))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid supplier id"))
			return
		}

		var payload supplierPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		supplier := &models.Supplier{
			ID:      id,
			OwnerID: ownerID,
			Name:    strings.TrimSpace(payload.Name),
			Phone:   strings.TrimSpace(payload.Phone),
			Address: strings.TrimSpace(payload.Address),
		}
		if err := svc.UpdateSupplier(ctx, supplier); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, supplier)
	}
}

// SupplierDelete removes a supplier. Past purchases keep the reference.
func SupplierDelete(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "supplierId")))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid supplier id"))
			return
		}

		if err := svc.DeleteSupplier(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// PurchaseCreate books a supplier delivery: receipt, product cost refresh and
// stock top-up happen in one transaction.
func PurchaseCreate(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload purchasePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		supplierID, err := uuid.Parse(payload.SupplierID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid supplier id"))
			return
		}
		warehouseID, err := uuid.Parse(payload.WarehouseID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid warehouse id"))
			return
		}

		purchaseDate := time.Now()
		if payload.PurchaseDate != "" {
			purchaseDate, err = time.Parse(time.RFC3339, payload.PurchaseDate)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchase date"))
				return
			}
		}

		lines := make([]purchasing.ReceiptLine, 0, len(payload.Items))
		for _, item := range payload.Items {
			productID, err := uuid.Parse(item.ProductID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
				return
			}
			qty, err := decimal.NewFromString(item.Qty)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quantity"))
				return
			}
			lines = append(lines, purchasing.ReceiptLine{
				ProductID: productID,
				Qty:       qty,
				UnitCost:  item.UnitCost,
			})
		}

		purchase, err := svc.Receive(ctx, purchasing.ReceiptInput{
			SupplierID:   supplierID,
			WarehouseID:  warehouseID,
			PurchaseDate: purchaseDate,
			CreatedBy:    userID,
			Lines:        lines,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, purchase)
	}
}

// PurchaseList returns receipts booked by the caller, newest first.
func PurchaseList(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.Purchases(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// PurchaseGet returns one receipt with its line items.
func PurchaseGet(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "purchaseId")))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchase id"))
			return
		}

		purchase, err := svc.Purchase(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, purchase)
	}
}
