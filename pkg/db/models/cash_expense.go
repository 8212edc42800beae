package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashExpense records the derived invoice cost of a posted receipt. Rows are
// immutable once written.
type CashExpense struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReceiptID   uuid.UUID       `gorm:"column:receipt_id;type:uuid;not null;uniqueIndex"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	AccountTag  string          `gorm:"column:account_tag;not null"`
	Description string          `gorm:"column:description;not null"`
	SpentAt     time.Time       `gorm:"column:spent_at;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
