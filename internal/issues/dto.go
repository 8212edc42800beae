package issues

import (
	"time"

	"github.com/google/uuid"

	"github.com/fleetyard/partsdepot-backend/pkg/db/models"
	"github.com/fleetyard/partsdepot-backend/pkg/enums"
	"github.com/fleetyard/partsdepot-backend/pkg/pagination"
)

// CreateIssueLineInput references one part item to hand over.
type CreateIssueLineInput struct {
	PartItemID uuid.UUID
	Notes      *string
}

// CreateIssueInput holds creation-time data for an issue draft.
type CreateIssueInput struct {
	WarehouseID  uuid.UUID
	WorkOrderID  uuid.UUID
	RequestID    *uuid.UUID
	IssuerUserID uuid.UUID
	Notes        *string
	Lines        []CreateIssueLineInput
}

// IssueLineDTO exposes one issue line in API responses.
type IssueLineDTO struct {
	ID                 uuid.UUID `json:"id"`
	PartItemID         uuid.UUID `json:"part_item_id"`
	InternalSerial     string    `json:"internal_serial,omitempty"`
	ManufacturerSerial string    `json:"manufacturer_serial,omitempty"`
	Notes              *string   `json:"notes,omitempty"`
}

// IssueDTO exposes an inventory issue with its lines.
type IssueDTO struct {
	ID           uuid.UUID            `json:"id"`
	WarehouseID  uuid.UUID            `json:"warehouse_id"`
	WorkOrderID  uuid.UUID            `json:"work_order_id"`
	RequestID    *uuid.UUID           `json:"request_id,omitempty"`
	IssuerUserID uuid.UUID            `json:"issuer_user_id"`
	Status       enums.DocumentStatus `json:"status"`
	Notes        *string              `json:"notes,omitempty"`
	PostedAt     *time.Time           `json:"posted_at,omitempty"`
	CancelledAt  *time.Time           `json:"cancelled_at,omitempty"`
	Lines        []IssueLineDTO       `json:"lines"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// ListIssuesInput captures filter and pagination knobs for issue listings.
type ListIssuesInput struct {
	Status      *enums.DocumentStatus
	WarehouseID *uuid.UUID
	WorkOrderID *uuid.UUID
	Pagination  pagination.Params
}

// IssueListResult is one page of inventory issues.
type IssueListResult struct {
	Issues     []IssueDTO `json:"issues"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// FromModel maps the persisted issue into a DTO.
func FromModel(m *models.InventoryIssue) *IssueDTO {
	if m == nil {
		return nil
	}

	lines := make([]IssueLineDTO, 0, len(m.Lines))
	for _, line := range m.Lines {
		dto := IssueLineDTO{
			ID:         line.ID,
			PartItemID: line.PartItemID,
			Notes:      line.Notes,
		}
		if line.PartItem != nil {
			dto.InternalSerial = line.PartItem.InternalSerial
			dto.ManufacturerSerial = line.PartItem.ManufacturerSerial
		}
		lines = append(lines, dto)
	}

	return &IssueDTO{
		ID:           m.ID,
		WarehouseID:  m.WarehouseID,
		WorkOrderID:  m.WorkOrderID,
		RequestID:    m.RequestID,
		IssuerUserID: m.IssuerUserID,
		Status:       m.Status,
		Notes:        m.Notes,
		PostedAt:     m.PostedAt,
		CancelledAt:  m.CancelledAt,
		Lines:        lines,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
