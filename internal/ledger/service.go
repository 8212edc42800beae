package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleetyard/partsdepot-backend/pkg/db/models"
	"github.com/fleetyard/partsdepot-backend/pkg/enums"
	pkgerrors "github.com/fleetyard/partsdepot-backend/pkg/errors"
	"github.com/fleetyard/partsdepot-backend/pkg/pagination"
)

type ledgerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.PartItem, error)
	List(ctx context.Context, input ListPartItemsInput, cursor *pagination.Cursor) ([]models.PartItem, string, error)
	Transition(ctx context.Context, itemID uuid.UUID, from, to enums.PartItemStatus) (bool, error)
	SetInstalledVehicle(ctx context.Context, itemID uuid.UUID, vehicleID *uuid.UUID) error
}

// Service exposes the part item ledger. Custody writes happen through the
// lifecycle managers; the one direct write is marking an issued item installed.
type Service interface {
	GetPartItem(ctx context.Context, id uuid.UUID) (*PartItemDTO, error)
	ListPartItems(ctx context.Context, input ListPartItemsInput) (*PartItemListResult, error)
	MarkInstalled(ctx context.Context, id uuid.UUID, vehicleID uuid.UUID) (*PartItemDTO, error)
}

type service struct {
	repo ledgerRepository
}

// NewService builds a ledger read service with the provided repository.
func NewService(repo ledgerRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetPartItem(ctx context.Context, id uuid.UUID) (*PartItemDTO, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "part item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load part item")
	}
	return FromModel(item), nil
}

func (s *service) ListPartItems(ctx context.Context, input ListPartItemsInput) (*PartItemListResult, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, nextCursor, err := s.repo.List(ctx, input, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list part items")
	}

	items := make([]PartItemDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return &PartItemListResult{Items: items, NextCursor: nextCursor}, nil
}

// MarkInstalled moves an ISSUED item to INSTALLED and records the vehicle it
// went onto. Any other custody state is a conflict.
func (s *service) MarkInstalled(ctx context.Context, id uuid.UUID, vehicleID uuid.UUID) (*PartItemDTO, error) {
	if vehicleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle id is required")
	}

	ok, err := s.repo.Transition(ctx, id, enums.PartItemStatusIssued, enums.PartItemStatusInstalled)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "install part item")
	}
	if !ok {
		item, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "part item not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load part item")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("part item is %s and cannot be installed", item.Status))
	}

	if err := s.repo.SetInstalledVehicle(ctx, id, &vehicleID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record installed vehicle")
	}
	return s.GetPartItem(ctx, id)
}
