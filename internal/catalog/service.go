package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleetyard/partsdepot-backend/pkg/db"
	"github.com/fleetyard/partsdepot-backend/pkg/db/models"
	"github.com/fleetyard/partsdepot-backend/pkg/enums"
	pkgerrors "github.com/fleetyard/partsdepot-backend/pkg/errors"
	"github.com/fleetyard/partsdepot-backend/pkg/pagination"
)

type catalogRepository interface {
	CreatePart(ctx context.Context, part *models.Part) (*models.Part, error)
	FindPartByID(ctx context.Context, id uuid.UUID) (*models.Part, error)
	ListParts(ctx context.Context, input ListPartsInput, cursor *pagination.Cursor) ([]models.Part, string, error)
	CreateWarehouse(ctx context.Context, warehouse *models.Warehouse) (*models.Warehouse, error)
	FindWarehouseByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
	ListWarehouses(ctx context.Context) ([]models.Warehouse, error)
}

// Service exposes catalog operations.
type Service interface {
	CreatePart(ctx context.Context, input CreatePartInput) (*PartDTO, error)
	GetPart(ctx context.Context, id uuid.UUID) (*PartDTO, error)
	ListParts(ctx context.Context, input ListPartsInput) (*PartListResult, error)
	CreateWarehouse(ctx context.Context, input CreateWarehouseInput) (*WarehouseDTO, error)
	GetWarehouse(ctx context.Context, id uuid.UUID) (*WarehouseDTO, error)
	ListWarehouses(ctx context.Context) ([]WarehouseDTO, error)
}

type service struct {
	repo catalogRepository
}

// NewService builds a catalog service with the provided repository.
func NewService(repo catalogRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreatePart(ctx context.Context, input CreatePartInput) (*PartDTO, error) {
	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	unit := input.Unit
	if unit == "" {
		unit = enums.PartUnitPiece
	}
	if !unit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit")
	}

	part, err := s.repo.CreatePart(ctx, &models.Part{
		SKU:   sku,
		Name:  name,
		Brand: input.Brand,
		Unit:  unit,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicate, "sku already exists").
				WithDetails(map[string]string{"sku": sku})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create part")
	}
	return FromPartModel(part), nil
}

func (s *service) GetPart(ctx context.Context, id uuid.UUID) (*PartDTO, error) {
	part, err := s.repo.FindPartByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "part not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load part")
	}
	return FromPartModel(part), nil
}

func (s *service) ListParts(ctx context.Context, input ListPartsInput) (*PartListResult, error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, nextCursor, err := s.repo.ListParts(ctx, input, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list parts")
	}

	parts := make([]PartDTO, 0, len(rows))
	for i := range rows {
		parts = append(parts, *FromPartModel(&rows[i]))
	}
	return &PartListResult{Parts: parts, NextCursor: nextCursor}, nil
}

func (s *service) CreateWarehouse(ctx context.Context, input CreateWarehouseInput) (*WarehouseDTO, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	warehouse, err := s.repo.CreateWarehouse(ctx, &models.Warehouse{
		Code:    code,
		Name:    name,
		Address: input.Address,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicate, "warehouse code already exists").
				WithDetails(map[string]string{"code": code})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create warehouse")
	}
	return FromWarehouseModel(warehouse), nil
}

func (s *service) GetWarehouse(ctx context.Context, id uuid.UUID) (*WarehouseDTO, error) {
	warehouse, err := s.repo.FindWarehouseByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warehouse not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load warehouse")
	}
	return FromWarehouseModel(warehouse), nil
}

func (s *service) ListWarehouses(ctx context.Context) ([]WarehouseDTO, error) {
	rows, err := s.repo.ListWarehouses(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list warehouses")
	}

	warehouses := make([]WarehouseDTO, 0, len(rows))
	for i := range rows {
		warehouses = append(warehouses, *FromWarehouseModel(&rows[i]))
	}
	return warehouses, nil
}
