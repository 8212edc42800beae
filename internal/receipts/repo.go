package receipts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleetyard/partsdepot-backend/pkg/db/models"
	"github.com/fleetyard/partsdepot-backend/pkg/enums"
	"github.com/fleetyard/partsdepot-backend/pkg/pagination"
)

// Repository handles inventory receipt persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to receipt operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create persists a new receipt draft together with its declared items.
func (r *Repository) Create(ctx context.Context, receipt *models.InventoryReceipt) (*models.InventoryReceipt, error) {
	if receipt.ID == uuid.Nil {
		receipt.ID = uuid.New()
	}
	if receipt.Status == "" {
		receipt.Status = enums.DocumentStatusDraft
	}
	for i := range receipt.Items {
		if receipt.Items[i].ID == uuid.Nil {
			receipt.Items[i].ID = uuid.New()
		}
		receipt.Items[i].ReceiptID = receipt.ID
	}
	if err := r.db.WithContext(ctx).Create(receipt).Error; err != nil {
		return nil, err
	}
	return receipt, nil
}

// FindByID loads a receipt with its declared items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryReceipt, error) {
	var receipt models.InventoryReceipt
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Items.Part").
		First(&receipt, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// UpdateStatusIf swaps the receipt status only when the current value matches.
// Reports false when the guard missed.
func (r *Repository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to enums.DocumentStatus, extra map[string]any) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	for column, value := range extra {
		updates[column] = value
	}

	result := r.db.WithContext(ctx).
		Model(&models.InventoryReceipt{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SetItemPartItem links a declared receipt item to the part item minted for it.
func (r *Repository) SetItemPartItem(ctx context.Context, itemID, partItemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ReceiptItem{}).
		Where("id = ?", itemID).
		Update("part_item_id", partItemID).Error
}

// CreateCashExpense persists the expense derived from a posted receipt.
func (r *Repository) CreateCashExpense(ctx context.Context, expense *models.CashExpense) (*models.CashExpense, error) {
	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(expense).Error; err != nil {
		return nil, err
	}
	return expense, nil
}

// FindCashExpenseByReceipt looks up the expense emitted for a receipt, if any.
func (r *Repository) FindCashExpenseByReceipt(ctx context.Context, receiptID uuid.UUID) (*models.CashExpense, error) {
	var expense models.CashExpense
	err := r.db.WithContext(ctx).First(&expense, "receipt_id = ?", receiptID).Error
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

// List returns one cursor page of receipts with items preloaded. The cursor,
// when present, must already be decoded by the caller.
func (r *Repository) List(ctx context.Context, input ListReceiptsInput, cursor *pagination.Cursor) ([]models.InventoryReceipt, string, error) {
	pageSize := pagination.NormalizeLimit(input.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(input.Pagination.Limit)
	if limitWithBuffer <= pageSize {
		limitWithBuffer = pageSize + 1
	}

	qb := r.db.WithContext(ctx).
		Model(&models.InventoryReceipt{}).
		Preload("Items")

	if input.Status != nil {
		qb = qb.Where("status = ?", *input.Status)
	}
	if input.WarehouseID != nil {
		qb = qb.Where("warehouse_id = ?", *input.WarehouseID)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.InventoryReceipt
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
