package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fleetyard/partsdepot-backend/pkg/enums"
)

// InventoryRequest is a demand document for parts, optionally tied to a work
// order from the maintenance subsystem. Lines are fixed at creation.
type InventoryRequest struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WarehouseID     uuid.UUID           `gorm:"column:warehouse_id;type:uuid;not null;index"`
	WorkOrderID     *uuid.UUID          `gorm:"column:work_order_id;type:uuid;index"`
	RequesterUserID uuid.UUID           `gorm:"column:requester_user_id;type:uuid;not null"`
	Status          enums.RequestStatus `gorm:"column:status;not null;default:'pending';index"`
	Notes           *string             `gorm:"column:notes"`
	RejectReason    *string             `gorm:"column:reject_reason"`
	DecidedAt       *time.Time          `gorm:"column:decided_at"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Lines        []RequestLine `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
	Reservations []Reservation `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
}

// RequestLine is one part demand within a request.
type RequestLine struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID uuid.UUID `gorm:"column:request_id;type:uuid;not null;index"`
	PartID    uuid.UUID `gorm:"column:part_id;type:uuid;not null"`
	NeededQty int       `gorm:"column:needed_qty;not null"`
	Notes     *string   `gorm:"column:notes"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`

	Part *Part `gorm:"foreignKey:PartID"`
}

// Reservation binds one request line's demand to one concrete part item. A part
// item backs at most one reservation at a time; unreserving deletes the row.
type Reservation struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID  uuid.UUID `gorm:"column:request_id;type:uuid;not null;index"`
	LineID     uuid.UUID `gorm:"column:line_id;type:uuid;not null;index"`
	PartItemID uuid.UUID `gorm:"column:part_item_id;type:uuid;not null;uniqueIndex"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`

	PartItem *PartItem `gorm:"foreignKey:PartItemID"`
}
