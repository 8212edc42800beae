package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fleetyard/partsdepot-backend/pkg/enums"
)

// InventoryIssue is an outbound custody transfer of part items to a work order.
type InventoryIssue struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WarehouseID  uuid.UUID            `gorm:"column:warehouse_id;type:uuid;not null;index"`
	WorkOrderID  uuid.UUID            `gorm:"column:work_order_id;type:uuid;not null;index"`
	RequestID    *uuid.UUID           `gorm:"column:request_id;type:uuid;index"`
	IssuerUserID uuid.UUID            `gorm:"column:issuer_user_id;type:uuid;not null"`
	Status       enums.DocumentStatus `gorm:"column:status;not null;default:'draft';index"`
	Notes        *string              `gorm:"column:notes"`
	PostedAt     *time.Time           `gorm:"column:posted_at"`
	CancelledAt  *time.Time           `gorm:"column:cancelled_at"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`

	Lines []IssueLine `gorm:"foreignKey:IssueID;constraint:OnDelete:CASCADE"`
}

// IssueLine references exactly one part item; items are serialized, so the
// quantity of every line is one.
type IssueLine struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	IssueID    uuid.UUID `gorm:"column:issue_id;type:uuid;not null;index"`
	PartItemID uuid.UUID `gorm:"column:part_item_id;type:uuid;not null"`
	Notes      *string   `gorm:"column:notes"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`

	PartItem *PartItem `gorm:"foreignKey:PartItemID"`
}
