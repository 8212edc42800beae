package receipts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fleetyard/partsdepot-backend/internal/ledger"
	"github.com/fleetyard/partsdepot-backend/pkg/config"
	"github.com/fleetyard/partsdepot-backend/pkg/db"
	"github.com/fleetyard/partsdepot-backend/pkg/db/models"
	"github.com/fleetyard/partsdepot-backend/pkg/enums"
	pkgerrors "github.com/fleetyard/partsdepot-backend/pkg/errors"
	"github.com/fleetyard/partsdepot-backend/pkg/metrics"
	"github.com/fleetyard/partsdepot-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogFinder interface {
	FindPartByID(ctx context.Context, id uuid.UUID) (*models.Part, error)
	FindWarehouseByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
}

// Service exposes the inventory receipt lifecycle.
type Service interface {
	CreateDraft(ctx context.Context, input CreateReceiptInput) (*ReceiptDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ReceiptDTO, error)
	List(ctx context.Context, input ListReceiptsInput) (*ReceiptListResult, error)
	Post(ctx context.Context, id uuid.UUID) (*ReceiptDTO, error)
	Cancel(ctx context.Context, id uuid.UUID) (*ReceiptDTO, error)
	GetExpense(ctx context.Context, receiptID uuid.UUID) (*CashExpenseDTO, error)
}

type service struct {
	repo      *Repository
	items     *ledger.Repository
	catalog   catalogFinder
	tx        txRunner
	expense   config.ExpenseConfig
	lifecycle *metrics.LifecycleMetrics
}

// NewService builds a receipt service with the required collaborators.
// Lifecycle metrics may be nil.
func NewService(repo *Repository, items *ledger.Repository, catalog catalogFinder, tx txRunner, expense config.ExpenseConfig, lifecycle *metrics.LifecycleMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("receipts repository required")
	}
	if items == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog finder required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:      repo,
		items:     items,
		catalog:   catalog,
		tx:        tx,
		expense:   expense,
		lifecycle: lifecycle,
	}, nil
}

// CreateDraft validates the declared units and records the receipt in DRAFT.
// No ledger rows exist until the receipt is posted.
func (s *service) CreateDraft(ctx context.Context, input CreateReceiptInput) (*ReceiptDTO, error) {
	if input.WarehouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse id required")
	}
	if strings.TrimSpace(input.SupplierName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name required")
	}
	if input.ReceiverUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "receiver identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}

	if _, err := s.catalog.FindWarehouseByID(ctx, input.WarehouseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown warehouse")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load warehouse")
	}

	seenInternal := make(map[string]bool, len(input.Items))
	seenManufacturer := make(map[string]bool, len(input.Items))
	seenParts := make(map[uuid.UUID]bool, len(input.Items))
	for i, item := range input.Items {
		internal := strings.TrimSpace(item.InternalSerial)
		manufacturer := strings.TrimSpace(item.ManufacturerSerial)
		if internal == "" || manufacturer == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("item %d: both serials required", i))
		}
		if seenInternal[internal] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("internal serial %s appears twice", internal))
		}
		if seenManufacturer[manufacturer] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("manufacturer serial %s appears twice", manufacturer))
		}
		seenInternal[internal] = true
		seenManufacturer[manufacturer] = true

		if item.UnitCost.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("item %d: unit cost cannot be negative", i))
		}
		if item.PartID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: part id required", i))
		}
		if !seenParts[item.PartID] {
			if _, err := s.catalog.FindPartByID(ctx, item.PartID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, pkgerrors.New(pkgerrors.CodeValidation,
						fmt.Sprintf("unknown part %s", item.PartID))
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load part")
			}
			seenParts[item.PartID] = true
		}
	}

	items := make([]models.ReceiptItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, models.ReceiptItem{
			PartID:             item.PartID,
			InternalSerial:     strings.TrimSpace(item.InternalSerial),
			ManufacturerSerial: strings.TrimSpace(item.ManufacturerSerial),
			UnitCost:           item.UnitCost,
		})
	}

	receipt := &models.InventoryReceipt{
		WarehouseID:    input.WarehouseID,
		SupplierName:   strings.TrimSpace(input.SupplierName),
		InvoiceNumber:  input.InvoiceNumber,
		InvoiceDate:    input.InvoiceDate,
		ReceiverUserID: input.ReceiverUserID,
		Status:         enums.DocumentStatusDraft,
		TotalAmount:    decimal.Zero,
		Notes:          input.Notes,
		Items:          items,
	}
	if _, err := s.repo.Create(ctx, receipt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create receipt")
	}
	return s.Get(ctx, receipt.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ReceiptDTO, error) {
	receipt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load receipt")
	}
	return FromModel(receipt), nil
}

func (s *service) List(ctx context.Context, input ListReceiptsInput) (*ReceiptListResult, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, nextCursor, err := s.repo.List(ctx, input, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list receipts")
	}

	dtos := make([]ReceiptDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return &ReceiptListResult{Receipts: dtos, NextCursor: nextCursor}, nil
}

// Post mints one IN_STOCK ledger row per declared item, links each receipt
// item to the row it produced, stamps the total, and emits the cash expense
// when configured. Any serial already in the ledger aborts the whole receipt.
func (s *service) Post(ctx context.Context, id uuid.UUID) (*ReceiptDTO, error) {
	started := time.Now()

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		items := s.items.WithTx(tx)

		receipt, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load receipt")
		}
		if receipt.Status != enums.DocumentStatusDraft {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft receipts can be posted")
		}

		internals := make([]string, 0, len(receipt.Items))
		manufacturers := make([]string, 0, len(receipt.Items))
		for _, item := range receipt.Items {
			internals = append(internals, item.InternalSerial)
			manufacturers = append(manufacturers, item.ManufacturerSerial)
		}
		collisions, err := items.FindSerialCollisions(ctx, internals, manufacturers)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check serial collisions")
		}
		if len(collisions) > 0 {
			return pkgerrors.New(pkgerrors.CodeDuplicate, "serials already present in the ledger").
				WithDetails(map[string]any{"serials": collisions})
		}

		now := time.Now().UTC()
		total := decimal.Zero
		for _, item := range receipt.Items {
			minted, err := items.Create(ctx, &models.PartItem{
				PartID:             item.PartID,
				WarehouseID:        receipt.WarehouseID,
				InternalSerial:     item.InternalSerial,
				ManufacturerSerial: item.ManufacturerSerial,
				Status:             enums.PartItemStatusInStock,
				UnitCost:           item.UnitCost,
				ReceivedAt:         now,
				LastMovedAt:        now,
			})
			if err != nil {
				return mintItemError(err, &item)
			}
			if err := repo.SetItemPartItem(ctx, item.ID, minted.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link receipt item")
			}
			total = total.Add(item.UnitCost)
		}

		swapped, err := repo.UpdateStatusIf(ctx, id, enums.DocumentStatusDraft, enums.DocumentStatusPosted, map[string]any{
			"posted_at":    now,
			"total_amount": total,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update receipt status")
		}
		if !swapped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft receipts can be posted")
		}

		if s.expense.EmitOnReceipt {
			spentAt := now
			if receipt.InvoiceDate != nil {
				spentAt = *receipt.InvoiceDate
			}
			_, err := repo.CreateCashExpense(ctx, &models.CashExpense{
				ReceiptID:   receipt.ID,
				Amount:      total,
				AccountTag:  s.expense.AccountTag,
				Description: fmt.Sprintf("inventory receipt from %s", receipt.SupplierName),
				SpentAt:     spentAt,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cash expense")
			}
		}
		return nil
	})

	s.lifecycle.ObserveDuration("receipt_post", time.Since(started))
	if err != nil {
		s.lifecycle.IncFailure("receipt_post")
		return nil, err
	}
	s.lifecycle.IncSuccess("receipt_post")
	return s.Get(ctx, id)
}

// Cancel abandons a draft. Posted receipts are immutable.
func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*ReceiptDTO, error) {
	swapped, err := s.repo.UpdateStatusIf(ctx, id, enums.DocumentStatusDraft, enums.DocumentStatusCancelled, map[string]any{
		"cancelled_at": time.Now().UTC(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update receipt status")
	}
	if !swapped {
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft receipts can be cancelled")
	}
	s.lifecycle.IncSuccess("receipt_cancel")
	return s.Get(ctx, id)
}

func (s *service) GetExpense(ctx context.Context, receiptID uuid.UUID) (*CashExpenseDTO, error) {
	expense, err := s.repo.FindCashExpenseByReceipt(ctx, receiptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no expense for receipt")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cash expense")
	}
	return ExpenseFromModel(expense), nil
}

// mintItemError classifies a failed ledger insert during posting. A unique
// violation means a concurrent post claimed one of the serials after the
// collision check ran, which is still a duplicate from the caller's view.
func mintItemError(err error, item *models.ReceiptItem) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.New(pkgerrors.CodeDuplicate, "serials already present in the ledger").
			WithDetails(map[string]any{"serials": []string{item.InternalSerial, item.ManufacturerSerial}})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create part item")
}
