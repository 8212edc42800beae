package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fleetyard/partsdepot-backend/pkg/enums"
)

// Part is the catalog definition of an interchangeable component type.
// Physical units are tracked individually as PartItem rows.
type Part struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU       string         `gorm:"column:sku;not null;uniqueIndex"`
	Name      string         `gorm:"column:name;not null"`
	Brand     *string        `gorm:"column:brand"`
	Unit      enums.PartUnit `gorm:"column:unit;not null;default:'piece'"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
