package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fleetyard/partsdepot-backend/api/middleware"
	"github.com/fleetyard/partsdepot-backend/api/responses"
	"github.com/fleetyard/partsdepot-backend/api/validators"
	"github.com/fleetyard/partsdepot-backend/internal/receipts"
	"github.com/fleetyard/partsdepot-backend/pkg/enums"
	pkgerrors "github.com/fleetyard/partsdepot-backend/pkg/errors"
	"github.com/fleetyard/partsdepot-backend/pkg/logger"
	"github.com/fleetyard/partsdepot-backend/pkg/pagination"
)

type createReceiptItem struct {
	PartID             uuid.UUID       `json:"part_id" validate:"required"`
	InternalSerial     string          `json:"internal_serial" validate:"required,min=1,max=128"`
	ManufacturerSerial string          `json:"manufacturer_serial" validate:"required,min=1,max=128"`
	UnitCost           decimal.Decimal `json:"unit_cost"`
}

type createReceiptPayload struct {
	WarehouseID   uuid.UUID           `json:"warehouse_id" validate:"required"`
	SupplierName  string              `json:"supplier_name" validate:"required,min=1,max=255"`
	InvoiceNumber *string             `json:"invoice_number,omitempty"`
	InvoiceDate   *time.Time          `json:"invoice_date,omitempty"`
	Notes         *string             `json:"notes,omitempty"`
	Items         []createReceiptItem `json:"items" validate:"required,min=1,dive"`
}

// ReceiptCreate records a draft receipt for the acting user.
func ReceiptCreate(svc receipts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "receipt service unavailable"))
			return
		}

		var payload createReceiptPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]receipts.CreateReceiptItemInput, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, receipts.CreateReceiptItemInput{
				PartID:             item.PartID,
				InternalSerial:     item.InternalSerial,
				ManufacturerSerial: item.ManufacturerSerial,
				UnitCost:           item.UnitCost,
			})
		}

		created, err := svc.CreateDraft(r.Context(), receipts.CreateReceiptInput{
			WarehouseID:    payload.WarehouseID,
			SupplierName:   payload.SupplierName,
			InvoiceNumber:  payload.InvoiceNumber,
			InvoiceDate:    payload.InvoiceDate,
			ReceiverUserID: middleware.ActorIDFromContext(r.Context()),
			Notes:          payload.Notes,
			Items:          items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// ReceiptGet loads one receipt with its declared items.
func ReceiptGet(svc receipts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "receipt service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "receiptId"), "receiptId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// ReceiptList returns one cursor page of receipts.
func ReceiptList(svc receipts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "receipt service unavailable"))
			return
		}

		input := receipts.ListReceiptsInput{}

		if raw := validators.ParseQueryString(r, "status"); raw != "" {
			status, err := enums.ParseDocumentStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			input.Status = &status
		}

		warehouseID, err := validators.ParseQueryUUID(r, "warehouse_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.WarehouseID = warehouseID

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Pagination = pagination.Params{
			Limit:  limit,
			Cursor: validators.ParseQueryString(r, "cursor"),
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// ReceiptPost mints the declared units into stock and finalizes the receipt.
func ReceiptPost(svc receipts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "receipt service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "receiptId"), "receiptId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Post(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// ReceiptCancel abandons a draft receipt.
func ReceiptCancel(svc receipts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "receipt service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "receiptId"), "receiptId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Cancel(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// ReceiptExpense loads the cash expense a posted receipt emitted.
func ReceiptExpense(svc receipts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "receipt service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "receiptId"), "receiptId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.GetExpense(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}
