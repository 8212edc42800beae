package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fleetyard/partsdepot-backend/api/responses"
	"github.com/fleetyard/partsdepot-backend/api/validators"
	"github.com/fleetyard/partsdepot-backend/internal/ledger"
	"github.com/fleetyard/partsdepot-backend/pkg/enums"
	pkgerrors "github.com/fleetyard/partsdepot-backend/pkg/errors"
	"github.com/fleetyard/partsdepot-backend/pkg/logger"
	"github.com/fleetyard/partsdepot-backend/pkg/pagination"
)

// PartItemGet loads one ledger row with its catalog relations.
func PartItemGet(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "partItemId"), "partItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.GetPartItem(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

type installPartItemPayload struct {
	VehicleID string `json:"vehicle_id" validate:"required,uuid"`
}

// PartItemInstall marks an issued item as installed on a vehicle.
func PartItemInstall(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "partItemId"), "partItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload installPartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vehicleID, err := validators.ParsePathUUID(payload.VehicleID, "vehicle_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.MarkInstalled(r.Context(), id, vehicleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// PartItemList searches the serialized stock ledger. The q filter matches
// internal and manufacturer serials.
func PartItemList(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		input := ledger.ListPartItemsInput{
			Query: validators.ParseQueryString(r, "q"),
		}

		warehouseID, err := validators.ParseQueryUUID(r, "warehouse_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.WarehouseID = warehouseID

		partID, err := validators.ParseQueryUUID(r, "part_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.PartID = partID

		if raw := validators.ParseQueryString(r, "status"); raw != "" {
			status, err := enums.ParsePartItemStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			input.Status = &status
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Pagination = pagination.Params{
			Limit:  limit,
			Cursor: validators.ParseQueryString(r, "cursor"),
		}

		result, err := svc.ListPartItems(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
