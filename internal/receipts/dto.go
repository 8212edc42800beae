package receipts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fleetyard/partsdepot-backend/pkg/db/models"
	"github.com/fleetyard/partsdepot-backend/pkg/enums"
	"github.com/fleetyard/partsdepot-backend/pkg/pagination"
)

// CreateReceiptItemInput declares one brand-new serialized unit on a draft.
type CreateReceiptItemInput struct {
	PartID             uuid.UUID
	InternalSerial     string
	ManufacturerSerial string
	UnitCost           decimal.Decimal
}

// CreateReceiptInput holds creation-time data for a receipt draft.
type CreateReceiptInput struct {
	WarehouseID    uuid.UUID
	SupplierName   string
	InvoiceNumber  *string
	InvoiceDate    *time.Time
	ReceiverUserID uuid.UUID
	Notes          *string
	Items          []CreateReceiptItemInput
}

// ReceiptItemDTO exposes one declared unit in API responses. PartItemID is set
// once the receipt has been posted.
type ReceiptItemDTO struct {
	ID                 uuid.UUID       `json:"id"`
	PartID             uuid.UUID       `json:"part_id"`
	InternalSerial     string          `json:"internal_serial"`
	ManufacturerSerial string          `json:"manufacturer_serial"`
	UnitCost           decimal.Decimal `json:"unit_cost"`
	PartItemID         *uuid.UUID      `json:"part_item_id,omitempty"`
}

// ReceiptDTO exposes an inventory receipt with its declared items.
type ReceiptDTO struct {
	ID             uuid.UUID            `json:"id"`
	WarehouseID    uuid.UUID            `json:"warehouse_id"`
	SupplierName   string               `json:"supplier_name"`
	InvoiceNumber  *string              `json:"invoice_number,omitempty"`
	InvoiceDate    *time.Time           `json:"invoice_date,omitempty"`
	ReceiverUserID uuid.UUID            `json:"receiver_user_id"`
	Status         enums.DocumentStatus `json:"status"`
	TotalAmount    decimal.Decimal      `json:"total_amount"`
	Notes          *string              `json:"notes,omitempty"`
	PostedAt       *time.Time           `json:"posted_at,omitempty"`
	CancelledAt    *time.Time           `json:"cancelled_at,omitempty"`
	Items          []ReceiptItemDTO     `json:"items"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// CashExpenseDTO exposes the expense row derived from a posted receipt.
type CashExpenseDTO struct {
	ID          uuid.UUID       `json:"id"`
	ReceiptID   uuid.UUID       `json:"receipt_id"`
	Amount      decimal.Decimal `json:"amount"`
	AccountTag  string          `json:"account_tag"`
	Description string          `json:"description"`
	SpentAt     time.Time       `json:"spent_at"`
}

// ListReceiptsInput captures filter and pagination knobs for receipt listings.
type ListReceiptsInput struct {
	Status      *enums.DocumentStatus
	WarehouseID *uuid.UUID
	Pagination  pagination.Params
}

// ReceiptListResult is one page of inventory receipts.
type ReceiptListResult struct {
	Receipts   []ReceiptDTO `json:"receipts"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// FromModel maps the persisted receipt into a DTO.
func FromModel(m *models.InventoryReceipt) *ReceiptDTO {
	if m == nil {
		return nil
	}

	items := make([]ReceiptItemDTO, 0, len(m.Items))
	for _, item := range m.Items {
		items = append(items, ReceiptItemDTO{
			ID:                 item.ID,
			PartID:             item.PartID,
			InternalSerial:     item.InternalSerial,
			ManufacturerSerial: item.ManufacturerSerial,
			UnitCost:           item.UnitCost,
			PartItemID:         item.PartItemID,
		})
	}

	return &ReceiptDTO{
		ID:             m.ID,
		WarehouseID:    m.WarehouseID,
		SupplierName:   m.SupplierName,
		InvoiceNumber:  m.InvoiceNumber,
		InvoiceDate:    m.InvoiceDate,
		ReceiverUserID: m.ReceiverUserID,
		Status:         m.Status,
		TotalAmount:    m.TotalAmount,
		Notes:          m.Notes,
		PostedAt:       m.PostedAt,
		CancelledAt:    m.CancelledAt,
		Items:          items,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// ExpenseFromModel maps the persisted cash expense into a DTO.
func ExpenseFromModel(m *models.CashExpense) *CashExpenseDTO {
	if m == nil {
		return nil
	}
	return &CashExpenseDTO{
		ID:          m.ID,
		ReceiptID:   m.ReceiptID,
		Amount:      m.Amount,
		AccountTag:  m.AccountTag,
		Description: m.Description,
		SpentAt:     m.SpentAt,
	}
}
