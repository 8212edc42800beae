package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fleetyard/partsdepot-backend/api/middleware"
	"github.com/fleetyard/partsdepot-backend/api/responses"
	"github.com/fleetyard/partsdepot-backend/api/validators"
	"github.com/fleetyard/partsdepot-backend/internal/issues"
	"github.com/fleetyard/partsdepot-backend/pkg/enums"
	pkgerrors "github.com/fleetyard/partsdepot-backend/pkg/errors"
	"github.com/fleetyard/partsdepot-backend/pkg/logger"
	"github.com/fleetyard/partsdepot-backend/pkg/pagination"
)

type createIssueLine struct {
	PartItemID uuid.UUID `json:"part_item_id" validate:"required"`
	Notes      *string   `json:"notes,omitempty"`
}

type createIssuePayload struct {
	WarehouseID uuid.UUID         `json:"warehouse_id" validate:"required"`
	WorkOrderID uuid.UUID         `json:"work_order_id" validate:"required"`
	RequestID   *uuid.UUID        `json:"request_id,omitempty"`
	Notes       *string           `json:"notes,omitempty"`
	Lines       []createIssueLine `json:"lines" validate:"required,min=1,dive"`
}

// IssueCreate records a draft issue for the acting user.
func IssueCreate(svc issues.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "issue service unavailable"))
			return
		}

		var payload createIssuePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]issues.CreateIssueLineInput, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			lines = append(lines, issues.CreateIssueLineInput{
				PartItemID: line.PartItemID,
				Notes:      line.Notes,
			})
		}

		created, err := svc.CreateDraft(r.Context(), issues.CreateIssueInput{
			WarehouseID:  payload.WarehouseID,
			WorkOrderID:  payload.WorkOrderID,
			RequestID:    payload.RequestID,
			IssuerUserID: middleware.ActorIDFromContext(r.Context()),
			Notes:        payload.Notes,
			Lines:        lines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// IssueGet loads one issue with its lines.
func IssueGet(svc issues.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "issue service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "issueId"), "issueId")
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

// IssueList returns one cursor page of issues.
func IssueList(svc issues.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "issue service unavailable"))
			return
		}

		input := issues.ListIssuesInput{}

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

		workOrderID, err := validators.ParseQueryUUID(r, "work_order_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.WorkOrderID = workOrderID

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

// IssuePost finalizes the custody transfer for every line of a draft issue.
func IssuePost(svc issues.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "issue service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "issueId"), "issueId")
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

// IssueCancel abandons a draft issue and releases request-held reservations.
func IssueCancel(svc issues.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "issue service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "issueId"), "issueId")
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
