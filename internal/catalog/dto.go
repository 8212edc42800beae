package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/fleetyard/partsdepot-backend/pkg/db/models"
	"github.com/fleetyard/partsdepot-backend/pkg/enums"
	"github.com/fleetyard/partsdepot-backend/pkg/pagination"
)

// PartDTO exposes catalog part data in API responses.
type PartDTO struct {
	ID        uuid.UUID      `json:"id"`
	SKU       string         `json:"sku"`
	Name      string         `json:"name"`
	Brand     *string        `json:"brand,omitempty"`
	Unit      enums.PartUnit `json:"unit"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// WarehouseDTO exposes stock location data in API responses.
type WarehouseDTO struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreatePartInput holds creation-time data for a catalog part.
type CreatePartInput struct {
	SKU   string
	Name  string
	Brand *string
	Unit  enums.PartUnit
}

// CreateWarehouseInput holds creation-time data for a stock location.
type CreateWarehouseInput struct {
	Code    string
	Name    string
	Address *string
}

// ListPartsInput captures filter and pagination knobs for part listings.
type ListPartsInput struct {
	Query      string
	Pagination pagination.Params
}

// PartListResult is one page of catalog parts.
type PartListResult struct {
	Parts      []PartDTO `json:"parts"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// FromPartModel maps the persisted part into a DTO.
func FromPartModel(m *models.Part) *PartDTO {
	if m == nil {
		return nil
	}
	return &PartDTO{
		ID:        m.ID,
		SKU:       m.SKU,
		Name:      m.Name,
		Brand:     m.Brand,
		Unit:      m.Unit,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromWarehouseModel maps the persisted warehouse into a DTO.
func FromWarehouseModel(m *models.Warehouse) *WarehouseDTO {
	if m == nil {
		return nil
	}
	return &WarehouseDTO{
		ID:        m.ID,
		Code:      m.Code,
		Name:      m.Name,
		Address:   m.Address,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
