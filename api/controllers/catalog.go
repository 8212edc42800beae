package controllers

import (
	"net/http"

	"github.com/fleetyard/partsdepot-backend/api/responses"
	"github.com/fleetyard/partsdepot-backend/api/validators"
	"github.com/fleetyard/partsdepot-backend/internal/catalog"
	"github.com/fleetyard/partsdepot-backend/pkg/enums"
	pkgerrors "github.com/fleetyard/partsdepot-backend/pkg/errors"
	"github.com/fleetyard/partsdepot-backend/pkg/logger"
	"github.com/fleetyard/partsdepot-backend/pkg/pagination"
)

type createPartRequest struct {
	SKU   string  `json:"sku" validate:"required,min=1,max=64"`
	Name  string  `json:"name" validate:"required,min=1,max=255"`
	Brand *string `json:"brand,omitempty"`
	Unit  string  `json:"unit,omitempty"`
}

// PartCreate registers a new catalog part.
func PartCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createPartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		part, err := svc.CreatePart(r.Context(), catalog.CreatePartInput{
			SKU:   payload.SKU,
			Name:  payload.Name,
			Brand: payload.Brand,
			Unit:  enums.PartUnit(payload.Unit),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, part)
	}
}

// PartList returns one cursor page of catalog parts, optionally filtered by a
// free-text query over sku and name.
func PartList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListParts(r.Context(), catalog.ListPartsInput{
			Query: validators.ParseQueryString(r, "q"),
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: validators.ParseQueryString(r, "cursor"),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type createWarehouseRequest struct {
	Code    string  `json:"code" validate:"required,min=1,max=32"`
	Name    string  `json:"name" validate:"required,min=1,max=255"`
	Address *string `json:"address,omitempty"`
}

// WarehouseCreate registers a new stock location.
func WarehouseCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createWarehouseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		warehouse, err := svc.CreateWarehouse(r.Context(), catalog.CreateWarehouseInput{
			Code:    payload.Code,
			Name:    payload.Name,
			Address: payload.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, warehouse)
	}
}

// WarehouseList returns every stock location ordered by code.
func WarehouseList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		warehouses, err := svc.ListWarehouses(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"warehouses": warehouses})
	}
}
