package requests

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleetyard/partsdepot-backend/pkg/db/models"
	"github.com/fleetyard/partsdepot-backend/pkg/enums"
	pkgerrors "github.com/fleetyard/partsdepot-backend/pkg/errors"
	"github.com/fleetyard/partsdepot-backend/pkg/metrics"
	"github.com/fleetyard/partsdepot-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogFinder interface {
	FindPartByID(ctx context.Context, id uuid.UUID) (*models.Part, error)
	FindWarehouseByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
}

// Reserver secures and releases part item holds for a request.
type Reserver interface {
	ReserveForLine(ctx context.Context, tx *gorm.DB, line *models.RequestLine, warehouseID uuid.UUID) ([]models.Reservation, error)
	Unreserve(ctx context.Context, tx *gorm.DB, requestID uuid.UUID) (int, error)
}

// Service exposes the inventory request lifecycle.
type Service interface {
	Create(ctx context.Context, input CreateRequestInput) (*RequestDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*RequestDTO, error)
	List(ctx context.Context, input ListRequestsInput) (*RequestListResult, error)
	Approve(ctx context.Context, id uuid.UUID) (*ApprovalReport, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (*RequestDTO, error)
	Unreserve(ctx context.Context, id uuid.UUID) (int, error)
}

type service struct {
	repo      *Repository
	catalog   catalogFinder
	reserver  Reserver
	tx        txRunner
	lifecycle *metrics.LifecycleMetrics
}

// NewService builds a request service with the required collaborators.
// Lifecycle metrics may be nil.
func NewService(repo *Repository, catalog catalogFinder, reserver Reserver, tx txRunner, lifecycle *metrics.LifecycleMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("requests repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog finder required")
	}
	if reserver == nil {
		return nil, fmt.Errorf("reserver required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:      repo,
		catalog:   catalog,
		reserver:  reserver,
		tx:        tx,
		lifecycle: lifecycle,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateRequestInput) (*RequestDTO, error) {
	if input.WarehouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse id required")
	}
	if input.RequesterUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "requester identity missing")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line required")
	}

	if _, err := s.catalog.FindWarehouseByID(ctx, input.WarehouseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown warehouse")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load warehouse")
	}

	lines := make([]models.RequestLine, 0, len(input.Lines))
	for i, line := range input.Lines {
		if line.NeededQty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: needed qty must be positive", i))
		}
		if _, err := s.catalog.FindPartByID(ctx, line.PartID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: unknown part", i))
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load part")
		}
		lines = append(lines, models.RequestLine{
			PartID:    line.PartID,
			NeededQty: line.NeededQty,
			Notes:     line.Notes,
		})
	}

	request := &models.InventoryRequest{
		WarehouseID:     input.WarehouseID,
		WorkOrderID:     input.WorkOrderID,
		RequesterUserID: input.RequesterUserID,
		Status:          enums.RequestStatusPending,
		Notes:           input.Notes,
		Lines:           lines,
	}
	if _, err := s.repo.Create(ctx, request); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create request")
	}
	return s.Get(ctx, request.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*RequestDTO, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load request")
	}
	return FromModel(request), nil
}

func (s *service) List(ctx context.Context, input ListRequestsInput) (*RequestListResult, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, nextCursor, err := s.repo.List(ctx, input, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list requests")
	}

	dtos := make([]RequestDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return &RequestListResult{Requests: dtos, NextCursor: nextCursor}, nil
}

// Approve moves a PENDING request to APPROVED and secures what it can of every
// line. Shortfalls never block the approval; the report carries the per-line
// reserved counts so the caller can see what is still missing.
func (s *service) Approve(ctx context.Context, id uuid.UUID) (*ApprovalReport, error) {
	started := time.Now()

	var report *ApprovalReport
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load request")
		}

		now := time.Now().UTC()
		swapped, err := repo.UpdateStatusIf(ctx, id, enums.RequestStatusPending, enums.RequestStatusApproved, map[string]any{
			"decided_at": now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update request status")
		}
		if !swapped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending requests can be approved")
		}

		fulfillments := make([]LineFulfillment, 0, len(request.Lines))
		fullyReserved := true
		for i := range request.Lines {
			line := request.Lines[i]
			secured, err := s.reserver.ReserveForLine(ctx, tx, &line, request.WarehouseID)
			if err != nil {
				return err
			}
			if len(secured) < line.NeededQty {
				fullyReserved = false
			}
			fulfillments = append(fulfillments, LineFulfillment{
				LineID:       line.ID,
				PartID:       line.PartID,
				RequestedQty: line.NeededQty,
				ReservedQty:  len(secured),
			})
		}

		report = &ApprovalReport{
			RequestID:     id,
			Status:        enums.RequestStatusApproved,
			FullyReserved: fullyReserved,
			Lines:         fulfillments,
		}
		return nil
	})

	s.lifecycle.ObserveDuration("request_approve", time.Since(started))
	if err != nil {
		s.lifecycle.IncFailure("request_approve")
		return nil, err
	}
	s.lifecycle.IncSuccess("request_approve")
	return report, nil
}

// Reject moves a PENDING request to REJECTED. Terminal.
func (s *service) Reject(ctx context.Context, id uuid.UUID, reason string) (*RequestDTO, error) {
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reject reason required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load request")
		}

		swapped, err := repo.UpdateStatusIf(ctx, id, enums.RequestStatusPending, enums.RequestStatusRejected, map[string]any{
			"decided_at":    time.Now().UTC(),
			"reject_reason": reason,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update request status")
		}
		if !swapped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending requests can be rejected")
		}
		return nil
	})
	if err != nil {
		s.lifecycle.IncFailure("request_reject")
		return nil, err
	}
	s.lifecycle.IncSuccess("request_reject")
	return s.Get(ctx, id)
}

// Unreserve returns every hold of an APPROVED request to the pool. The request
// stays APPROVED; calling it again is a no-op returning zero.
func (s *service) Unreserve(ctx context.Context, id uuid.UUID) (int, error) {
	released := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load request")
		}
		if request.Status != enums.RequestStatusApproved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only approved requests hold reservations")
		}

		released, err = s.reserver.Unreserve(ctx, tx, id)
		return err
	})
	if err != nil {
		s.lifecycle.IncFailure("request_unreserve")
		return 0, err
	}
	s.lifecycle.IncSuccess("request_unreserve")
	return released, nil
}
