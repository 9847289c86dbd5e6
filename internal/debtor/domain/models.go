// Package domain contains the materialized debtor record model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Debtor is a persisted overdue obligation. The (contract, due date)
// pair is unique; the uniqueness constraint is the safety net against
// concurrent materializer runs.
type Debtor struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	ContractID  snowflake.ID    `gorm:"not null;uniqueIndex:idx_debtors_contract_due" json:"contract_id"`
	CustomerID  snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	PaymentID   *snowflake.ID   `gorm:"" json:"payment_id,omitempty"`
	DueDate     time.Time       `gorm:"not null;uniqueIndex:idx_debtors_contract_due" json:"due_date"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"amount"`
	OverdueDays int             `gorm:"not null;default:0" json:"overdue_days"`
	IsPaid      bool            `gorm:"not null;default:false" json:"is_paid"`
	CreatedBy   *snowflake.ID   `gorm:"" json:"created_by,omitempty"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Debtor) TableName() string { return "debtors" }
