package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fleetyard/partsdepot-backend/pkg/enums"
)

// InventoryReceipt is an inbound transaction seeding new part items from a
// supplier delivery.
type InventoryReceipt struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WarehouseID    uuid.UUID            `gorm:"column:warehouse_id;type:uuid;not null;index"`
	SupplierName   string               `gorm:"column:supplier_name;not null"`
	InvoiceNumber  *string              `gorm:"column:invoice_number"`
	InvoiceDate    *time.Time           `gorm:"column:invoice_date"`
	ReceiverUserID uuid.UUID            `gorm:"column:receiver_user_id;type:uuid;not null"`
	Status         enums.DocumentStatus `gorm:"column:status;not null;default:'draft';index"`
	TotalAmount    decimal.Decimal      `gorm:"column:total_amount;type:numeric(12,2);not null;default:0"`
	Notes          *string              `gorm:"column:notes"`
	PostedAt       *time.Time           `gorm:"column:posted_at"`
	CancelledAt    *time.Time           `gorm:"column:cancelled_at"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`

	Items []ReceiptItem `gorm:"foreignKey:ReceiptID;constraint:OnDelete:CASCADE"`
}

// ReceiptItem declares one brand-new serialized unit arriving on a receipt.
type ReceiptItem struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReceiptID          uuid.UUID       `gorm:"column:receipt_id;type:uuid;not null;index"`
	PartID             uuid.UUID       `gorm:"column:part_id;type:uuid;not null"`
	InternalSerial     string          `gorm:"column:internal_serial;not null"`
	ManufacturerSerial string          `gorm:"column:manufacturer_serial;not null"`
	UnitCost           decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,2);not null"`
	PartItemID         *uuid.UUID      `gorm:"column:part_item_id;type:uuid"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`

	Part *Part `gorm:"foreignKey:PartID"`
}
