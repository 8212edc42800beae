package issues

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleetyard/partsdepot-backend/internal/ledger"
	"github.com/fleetyard/partsdepot-backend/internal/reservation"
	"github.com/fleetyard/partsdepot-backend/pkg/db/models"
	"github.com/fleetyard/partsdepot-backend/pkg/enums"
	pkgerrors "github.com/fleetyard/partsdepot-backend/pkg/errors"
	"github.com/fleetyard/partsdepot-backend/pkg/metrics"
	"github.com/fleetyard/partsdepot-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the inventory issue lifecycle.
type Service interface {
	CreateDraft(ctx context.Context, input CreateIssueInput) (*IssueDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*IssueDTO, error)
	List(ctx context.Context, input ListIssuesInput) (*IssueListResult, error)
	Post(ctx context.Context, id uuid.UUID) (*IssueDTO, error)
	Cancel(ctx context.Context, id uuid.UUID) (*IssueDTO, error)
}

type service struct {
	repo         *Repository
	items        *ledger.Repository
	reservations *reservation.Repository
	tx           txRunner
	lifecycle    *metrics.LifecycleMetrics
}

// NewService builds an issue service with the required collaborators.
// Lifecycle metrics may be nil.
func NewService(repo *Repository, items *ledger.Repository, reservations *reservation.Repository, tx txRunner, lifecycle *metrics.LifecycleMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("issues repository required")
	}
	if items == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if reservations == nil {
		return nil, fmt.Errorf("reservation repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:         repo,
		items:        items,
		reservations: reservations,
		tx:           tx,
		lifecycle:    lifecycle,
	}, nil
}

// CreateDraft validates the referenced part items and records the issue in
// DRAFT. Items must be RESERVED against the referenced request, or IN_STOCK
// when the issue is ad hoc. Nothing changes custody state yet.
func (s *service) CreateDraft(ctx context.Context, input CreateIssueInput) (*IssueDTO, error) {
	if input.WarehouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse id required")
	}
	if input.WorkOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "work order id required")
	}
	if input.IssuerUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "issuer identity missing")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line required")
	}

	seen := make(map[uuid.UUID]bool, len(input.Lines))
	itemIDs := make([]uuid.UUID, 0, len(input.Lines))
	for i, line := range input.Lines {
		if line.PartItemID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: part item id required", i))
		}
		if seen[line.PartItemID] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("part item %s appears twice", line.PartItemID))
		}
		seen[line.PartItemID] = true
		itemIDs = append(itemIDs, line.PartItemID)
	}

	items, err := s.items.FindByIDs(ctx, itemIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load part items")
	}
	byID := make(map[uuid.UUID]models.PartItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	for _, id := range itemIDs {
		item, found := byID[id]
		if !found {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown part item %s", id))
		}
		if item.WarehouseID != input.WarehouseID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("part item %s is in another warehouse", id))
		}
		if err := s.validateItemEligible(ctx, &item, input.RequestID); err != nil {
			return nil, err
		}
	}

	lines := make([]models.IssueLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		lines = append(lines, models.IssueLine{
			PartItemID: line.PartItemID,
			Notes:      line.Notes,
		})
	}

	issue := &models.InventoryIssue{
		WarehouseID:  input.WarehouseID,
		WorkOrderID:  input.WorkOrderID,
		RequestID:    input.RequestID,
		IssuerUserID: input.IssuerUserID,
		Status:       enums.DocumentStatusDraft,
		Notes:        input.Notes,
		Lines:        lines,
	}
	if _, err := s.repo.Create(ctx, issue); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create issue")
	}
	return s.Get(ctx, issue.ID)
}

// validateItemEligible checks the custody state an issue line may reference:
// RESERVED held by the referenced request, or IN_STOCK for ad hoc issues.
func (s *service) validateItemEligible(ctx context.Context, item *models.PartItem, requestID *uuid.UUID) error {
	switch item.Status {
	case enums.PartItemStatusInStock:
		return nil
	case enums.PartItemStatusReserved:
		if requestID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("part item %s is reserved and cannot be issued ad hoc", item.ID))
		}
		held, err := s.reservations.FindByPartItem(ctx, item.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("part item %s is reserved without an active reservation", item.ID))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservation")
		}
		if held.RequestID != *requestID {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("part item %s is reserved for another request", item.ID))
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("part item %s is %s and cannot be issued", item.ID, item.Status))
	}
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*IssueDTO, error) {
	issue, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "issue not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load issue")
	}
	return FromModel(issue), nil
}

func (s *service) List(ctx context.Context, input ListIssuesInput) (*IssueListResult, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, nextCursor, err := s.repo.List(ctx, input, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list issues")
	}

	dtos := make([]IssueDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return &IssueListResult{Issues: dtos, NextCursor: nextCursor}, nil
}

// Post finalizes custody transfer: every referenced item moves to ISSUED, or
// nothing does. Consumed reservations are deleted in the same transaction.
func (s *service) Post(ctx context.Context, id uuid.UUID) (*IssueDTO, error) {
	started := time.Now()

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		items := s.items.WithTx(tx)
		reservations := s.reservations.WithTx(tx)

		issue, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "issue not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load issue")
		}

		swapped, err := repo.UpdateStatusIf(ctx, id, enums.DocumentStatusDraft, enums.DocumentStatusPosted, map[string]any{
			"posted_at": time.Now().UTC(),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update issue status")
		}
		if !swapped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft issues can be posted")
		}

		for _, line := range issue.Lines {
			item, err := items.FindByID(ctx, line.PartItemID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load part item")
			}

			switch item.Status {
			case enums.PartItemStatusReserved:
				held, err := reservations.FindByPartItem(ctx, item.ID)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return pkgerrors.New(pkgerrors.CodeStateConflict,
							fmt.Sprintf("part item %s is reserved without an active reservation", item.ID))
					}
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservation")
				}
				if issue.RequestID == nil || held.RequestID != *issue.RequestID {
					return pkgerrors.New(pkgerrors.CodeStateConflict,
						fmt.Sprintf("part item %s is reserved for another request", item.ID))
				}
				if err := reservations.DeleteByID(ctx, held.ID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume reservation")
				}
				ok, err := items.Transition(ctx, item.ID, enums.PartItemStatusReserved, enums.PartItemStatusIssued)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issue part item")
				}
				if !ok {
					return pkgerrors.New(pkgerrors.CodeStateConflict,
						fmt.Sprintf("part item %s changed state before posting", item.ID))
				}
			case enums.PartItemStatusInStock:
				ok, err := items.Transition(ctx, item.ID, enums.PartItemStatusInStock, enums.PartItemStatusIssued)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issue part item")
				}
				if !ok {
					return pkgerrors.New(pkgerrors.CodeStateConflict,
						fmt.Sprintf("part item %s changed state before posting", item.ID))
				}
			default:
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("part item %s is %s and cannot be issued", item.ID, item.Status))
			}
		}
		return nil
	})

	s.lifecycle.ObserveDuration("issue_post", time.Since(started))
	if err != nil {
		s.lifecycle.IncFailure("issue_post")
		return nil, err
	}
	s.lifecycle.IncSuccess("issue_post")
	return s.Get(ctx, id)
}

// Cancel abandons a draft. Items the draft referenced through the request's
// reservations go back to the pool.
func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*IssueDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		items := s.items.WithTx(tx)
		reservations := s.reservations.WithTx(tx)

		issue, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "issue not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load issue")
		}

		swapped, err := repo.UpdateStatusIf(ctx, id, enums.DocumentStatusDraft, enums.DocumentStatusCancelled, map[string]any{
			"cancelled_at": time.Now().UTC(),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update issue status")
		}
		if !swapped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft issues can be cancelled")
		}

		if issue.RequestID == nil {
			return nil
		}
		for _, line := range issue.Lines {
			held, err := reservations.FindByPartItem(ctx, line.PartItemID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservation")
			}
			if held.RequestID != *issue.RequestID {
				continue
			}
			ok, err := items.Transition(ctx, line.PartItemID, enums.PartItemStatusReserved, enums.PartItemStatusInStock)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release part item")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("part item %s changed state before cancel", line.PartItemID))
			}
			if err := reservations.DeleteByID(ctx, held.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete reservation")
			}
		}
		return nil
	})
	if err != nil {
		s.lifecycle.IncFailure("issue_cancel")
		return nil, err
	}
	s.lifecycle.IncSuccess("issue_cancel")
	return s.Get(ctx, id)
}
