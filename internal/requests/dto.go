package requests

import (
	"time"

	"github.com/google/uuid"

	"github.com/fleetyard/partsdepot-backend/pkg/db/models"
	"github.com/fleetyard/partsdepot-backend/pkg/enums"
	"github.com/fleetyard/partsdepot-backend/pkg/pagination"
)

// CreateRequestLineInput is one part demand on a new request.
type CreateRequestLineInput struct {
	PartID    uuid.UUID
	NeededQty int
	Notes     *string
}

// CreateRequestInput holds creation-time data for an inventory request.
type CreateRequestInput struct {
	WarehouseID     uuid.UUID
	WorkOrderID     *uuid.UUID
	RequesterUserID uuid.UUID
	Notes           *string
	Lines           []CreateRequestLineInput
}

// RequestLineDTO exposes one request line with its current reservation count.
type RequestLineDTO struct {
	ID          uuid.UUID `json:"id"`
	PartID      uuid.UUID `json:"part_id"`
	PartSKU     string    `json:"part_sku,omitempty"`
	PartName    string    `json:"part_name,omitempty"`
	NeededQty   int       `json:"needed_qty"`
	ReservedQty int       `json:"reserved_qty"`
	Notes       *string   `json:"notes,omitempty"`
}

// ReservationDTO exposes one secured part item hold.
type ReservationDTO struct {
	ID         uuid.UUID `json:"id"`
	LineID     uuid.UUID `json:"line_id"`
	PartItemID uuid.UUID `json:"part_item_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// RequestDTO exposes an inventory request with lines and active holds.
type RequestDTO struct {
	ID              uuid.UUID           `json:"id"`
	WarehouseID     uuid.UUID           `json:"warehouse_id"`
	WorkOrderID     *uuid.UUID          `json:"work_order_id,omitempty"`
	RequesterUserID uuid.UUID           `json:"requester_user_id"`
	Status          enums.RequestStatus `json:"status"`
	Notes           *string             `json:"notes,omitempty"`
	RejectReason    *string             `json:"reject_reason,omitempty"`
	DecidedAt       *time.Time          `json:"decided_at,omitempty"`
	Lines           []RequestLineDTO    `json:"lines"`
	Reservations    []ReservationDTO    `json:"reservations"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// LineFulfillment reports how much of one line's demand was secured at
// approval time.
type LineFulfillment struct {
	LineID       uuid.UUID `json:"line_id"`
	PartID       uuid.UUID `json:"part_id"`
	RequestedQty int       `json:"requested_qty"`
	ReservedQty  int       `json:"reserved_qty"`
}

// ApprovalReport summarizes the outcome of approving a request. The request is
// APPROVED even when some lines came up short; FullyReserved tells the two
// cases apart.
type ApprovalReport struct {
	RequestID     uuid.UUID           `json:"request_id"`
	Status        enums.RequestStatus `json:"status"`
	FullyReserved bool                `json:"fully_reserved"`
	Lines         []LineFulfillment   `json:"lines"`
}

// ListRequestsInput captures filter and pagination knobs for request listings.
type ListRequestsInput struct {
	Status      *enums.RequestStatus
	WarehouseID *uuid.UUID
	WorkOrderID *uuid.UUID
	Pagination  pagination.Params
}

// RequestListResult is one page of inventory requests.
type RequestListResult struct {
	Requests   []RequestDTO `json:"requests"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// FromModel maps the persisted request into a DTO.
func FromModel(m *models.InventoryRequest) *RequestDTO {
	if m == nil {
		return nil
	}

	reservedByLine := make(map[uuid.UUID]int, len(m.Lines))
	reservations := make([]ReservationDTO, 0, len(m.Reservations))
	for _, reservation := range m.Reservations {
		reservedByLine[reservation.LineID]++
		reservations = append(reservations, ReservationDTO{
			ID:         reservation.ID,
			LineID:     reservation.LineID,
			PartItemID: reservation.PartItemID,
			CreatedAt:  reservation.CreatedAt,
		})
	}

	lines := make([]RequestLineDTO, 0, len(m.Lines))
	for _, line := range m.Lines {
		dto := RequestLineDTO{
			ID:          line.ID,
			PartID:      line.PartID,
			NeededQty:   line.NeededQty,
			ReservedQty: reservedByLine[line.ID],
			Notes:       line.Notes,
		}
		if line.Part != nil {
			dto.PartSKU = line.Part.SKU
			dto.PartName = line.Part.Name
		}
		lines = append(lines, dto)
	}

	return &RequestDTO{
		ID:              m.ID,
		WarehouseID:     m.WarehouseID,
		WorkOrderID:     m.WorkOrderID,
		RequesterUserID: m.RequesterUserID,
		Status:          m.Status,
		Notes:           m.Notes,
		RejectReason:    m.RejectReason,
		DecidedAt:       m.DecidedAt,
		Lines:           lines,
		Reservations:    reservations,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
