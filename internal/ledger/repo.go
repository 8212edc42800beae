package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleetyard/partsdepot-backend/pkg/db/models"
	"github.com/fleetyard/partsdepot-backend/pkg/enums"
	"github.com/fleetyard/partsdepot-backend/pkg/pagination"
)

// Repository is the single writer of part item custody state. Every status
// change goes through Transition so a row can never skip the compare-and-swap
// guard.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to ledger operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new in-stock part item row.
func (r *Repository) Create(ctx context.Context, item *models.PartItem) (*models.PartItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.Status == "" {
		item.Status = enums.PartItemStatusInStock
	}
	if item.ReceivedAt.IsZero() {
		item.ReceivedAt = time.Now().UTC()
	}
	if item.LastMovedAt.IsZero() {
		item.LastMovedAt = item.ReceivedAt
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// FindByID loads a part item by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PartItem, error) {
	var item models.PartItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByIDs loads the given part items in one query.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.PartItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.PartItem
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindAvailable returns up to limit IN_STOCK items for the part at the
// warehouse, oldest received first.
func (r *Repository) FindAvailable(ctx context.Context, partID, warehouseID uuid.UUID, limit int) ([]models.PartItem, error) {
	var items []models.PartItem
	err := r.db.WithContext(ctx).
		Where("part_id = ? AND warehouse_id = ? AND status = ?", partID, warehouseID, enums.PartItemStatusInStock).
		Order("received_at ASC").Order("id ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Transition atomically swaps the item status from one value to another and
// bumps last_moved_at. It reports false when the row was not in the expected
// status, which is how concurrent losers learn they lost.
func (r *Repository) Transition(ctx context.Context, itemID uuid.UUID, from, to enums.PartItemStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PartItem{}).
		Where("id = ? AND status = ?", itemID, from).
		Updates(map[string]any{
			"status":        to,
			"last_moved_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SetInstalledVehicle records the vehicle an issued item ended up on. The row
// must already be ISSUED or INSTALLED.
func (r *Repository) SetInstalledVehicle(ctx context.Context, itemID uuid.UUID, vehicleID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PartItem{}).
		Where("id = ? AND status IN ?", itemID, []enums.PartItemStatus{enums.PartItemStatusIssued, enums.PartItemStatusInstalled}).
		Update("installed_vehicle_id", vehicleID).Error
}

// FindSerialCollisions returns every provided serial that already exists in the
// ledger, on either serial column.
func (r *Repository) FindSerialCollisions(ctx context.Context, internalSerials, manufacturerSerials []string) ([]string, error) {
	collisions := make([]string, 0)

	if len(internalSerials) > 0 {
		var found []string
		err := r.db.WithContext(ctx).
			Model(&models.PartItem{}).
			Where("internal_serial IN ?", internalSerials).
			Pluck("internal_serial", &found).Error
		if err != nil {
			return nil, err
		}
		collisions = append(collisions, found...)
	}

	if len(manufacturerSerials) > 0 {
		var found []string
		err := r.db.WithContext(ctx).
			Model(&models.PartItem{}).
			Where("manufacturer_serial IN ?", manufacturerSerials).
			Pluck("manufacturer_serial", &found).Error
		if err != nil {
			return nil, err
		}
		collisions = append(collisions, found...)
	}

	return collisions, nil
}

// List returns one cursor page of ledger rows with catalog relations preloaded.
// The cursor, when present, must already be decoded by the caller.
func (r *Repository) List(ctx context.Context, input ListPartItemsInput, cursor *pagination.Cursor) ([]models.PartItem, string, error) {
	pageSize := pagination.NormalizeLimit(input.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(input.Pagination.Limit)
	if limitWithBuffer <= pageSize {
		limitWithBuffer = pageSize + 1
	}

	qb := r.db.WithContext(ctx).
		Model(&models.PartItem{}).
		Preload("Part").
		Preload("Warehouse")

	if input.WarehouseID != nil {
		qb = qb.Where("warehouse_id = ?", *input.WarehouseID)
	}
	if input.PartID != nil {
		qb = qb.Where("part_id = ?", *input.PartID)
	}
	if input.Status != nil {
		qb = qb.Where("status = ?", *input.Status)
	}
	if search := strings.TrimSpace(input.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(internal_serial) LIKE ? OR LOWER(manufacturer_serial) LIKE ?)", pattern, pattern)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.PartItem
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}
