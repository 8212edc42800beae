package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fleetyard/partsdepot-backend/pkg/enums"
)

// PartItem is one serialized physical unit of a Part moving through custody
// states. Status is only ever written by the ledger repository; every change is
// a conditional transition guarded on the current value.
type PartItem struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PartID             uuid.UUID            `gorm:"column:part_id;type:uuid;not null;index"`
	WarehouseID        uuid.UUID            `gorm:"column:warehouse_id;type:uuid;not null;index"`
	InternalSerial     string               `gorm:"column:internal_serial;not null;uniqueIndex"`
	ManufacturerSerial string               `gorm:"column:manufacturer_serial;not null;uniqueIndex"`
	Status             enums.PartItemStatus `gorm:"column:status;not null;default:'in_stock';index"`
	UnitCost           decimal.Decimal      `gorm:"column:unit_cost;type:numeric(12,2);not null"`
	InstalledVehicleID *uuid.UUID           `gorm:"column:installed_vehicle_id;type:uuid"`
	ReceivedAt         time.Time            `gorm:"column:received_at;not null"`
	LastMovedAt        time.Time            `gorm:"column:last_moved_at;not null"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time            `gorm:"column:updated_at;autoUpdateTime"`

	Part      *Part      `gorm:"foreignKey:PartID"`
	Warehouse *Warehouse `gorm:"foreignKey:WarehouseID"`
}
