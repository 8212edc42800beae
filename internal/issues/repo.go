package issues

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleetyard/partsdepot-backend/pkg/db/models"
	"github.com/fleetyard/partsdepot-backend/pkg/enums"
	"github.com/fleetyard/partsdepot-backend/pkg/pagination"
)

// Repository handles inventory issue persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to issue operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create persists a new issue draft together with its lines.
func (r *Repository) Create(ctx context.Context, issue *models.InventoryIssue) (*models.InventoryIssue, error) {
	if issue.ID == uuid.Nil {
		issue.ID = uuid.New()
	}
	if issue.Status == "" {
		issue.Status = enums.DocumentStatusDraft
	}
	for i := range issue.Lines {
		if issue.Lines[i].ID == uuid.Nil {
			issue.Lines[i].ID = uuid.New()
		}
		issue.Lines[i].IssueID = issue.ID
	}
	if err := r.db.WithContext(ctx).Create(issue).Error; err != nil {
		return nil, err
	}
	return issue, nil
}

// FindByID loads an issue with lines and their part items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryIssue, error) {
	var issue models.InventoryIssue
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Lines.PartItem").
		First(&issue, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

// UpdateStatusIf swaps the issue status only when the current value matches.
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
		Model(&models.InventoryIssue{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// List returns one cursor page of issues with lines preloaded. The cursor,
// when present, must already be decoded by the caller.
func (r *Repository) List(ctx context.Context, input ListIssuesInput, cursor *pagination.Cursor) ([]models.InventoryIssue, string, error) {
	pageSize := pagination.NormalizeLimit(input.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(input.Pagination.Limit)
	if limitWithBuffer <= pageSize {
		limitWithBuffer = pageSize + 1
	}

	qb := r.db.WithContext(ctx).
		Model(&models.InventoryIssue{}).
		Preload("Lines")

	if input.Status != nil {
		qb = qb.Where("status = ?", *input.Status)
	}
	if input.WarehouseID != nil {
		qb = qb.Where("warehouse_id = ?", *input.WarehouseID)
	}
	if input.WorkOrderID != nil {
		qb = qb.Where("work_order_id = ?", *input.WorkOrderID)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.InventoryIssue
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
