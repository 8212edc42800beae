package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fleetyard/partsdepot-backend/pkg/db/models"
	"github.com/fleetyard/partsdepot-backend/pkg/enums"
	"github.com/fleetyard/partsdepot-backend/pkg/pagination"
)

// PartItemDTO exposes one serialized unit in API responses.
type PartItemDTO struct {
	ID                 uuid.UUID            `json:"id"`
	PartID             uuid.UUID            `json:"part_id"`
	PartSKU            string               `json:"part_sku,omitempty"`
	PartName           string               `json:"part_name,omitempty"`
	WarehouseID        uuid.UUID            `json:"warehouse_id"`
	WarehouseCode      string               `json:"warehouse_code,omitempty"`
	InternalSerial     string               `json:"internal_serial"`
	ManufacturerSerial string               `json:"manufacturer_serial"`
	Status             enums.PartItemStatus `json:"status"`
	UnitCost           decimal.Decimal      `json:"unit_cost"`
	InstalledVehicleID *uuid.UUID           `json:"installed_vehicle_id,omitempty"`
	ReceivedAt         time.Time            `json:"received_at"`
	LastMovedAt        time.Time            `json:"last_moved_at"`
	CreatedAt          time.Time            `json:"created_at"`
}

// ListPartItemsInput captures filter and pagination knobs for ledger listings.
type ListPartItemsInput struct {
	Query       string
	WarehouseID *uuid.UUID
	PartID      *uuid.UUID
	Status      *enums.PartItemStatus
	Pagination  pagination.Params
}

// PartItemListResult is one page of ledger rows.
type PartItemListResult struct {
	Items      []PartItemDTO `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// FromModel maps the persisted part item into a DTO.
func FromModel(m *models.PartItem) *PartItemDTO {
	if m == nil {
		return nil
	}
	dto := &PartItemDTO{
		ID:                 m.ID,
		PartID:             m.PartID,
		WarehouseID:        m.WarehouseID,
		InternalSerial:     m.InternalSerial,
		ManufacturerSerial: m.ManufacturerSerial,
		Status:             m.Status,
		UnitCost:           m.UnitCost,
		InstalledVehicleID: m.InstalledVehicleID,
		ReceivedAt:         m.ReceivedAt,
		LastMovedAt:        m.LastMovedAt,
		CreatedAt:          m.CreatedAt,
	}
	if m.Part != nil {
		dto.PartSKU = m.Part.SKU
		dto.PartName = m.Part.Name
	}
	if m.Warehouse != nil {
		dto.WarehouseCode = m.Warehouse.Code
	}
	return dto
}
