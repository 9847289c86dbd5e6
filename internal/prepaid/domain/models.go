// Package domain contains the prepaid transaction log model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// PrepaidRecord is one excess-payment transaction. The log is
// append-only; only the free-text note may be edited afterwards.
type PrepaidRecord struct {
	ID               snowflake.ID    `gorm:"primaryKey" json:"id"`
	ContractID       snowflake.ID    `gorm:"not null;index" json:"contract_id"`
	ContractCustomID string          `gorm:"type:text;not null;default:''" json:"contract_custom_id"`
	CustomerID       snowflake.ID    `gorm:"not null" json:"customer_id"`
	PaymentID        *snowflake.ID   `gorm:"" json:"payment_id,omitempty"`
	Amount           decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"amount"`
	PaymentMethod    string          `gorm:"type:text;not null;default:''" json:"payment_method"`
	ManagerName      string          `gorm:"type:text;not null;default:''" json:"manager_name"`
	Note             string          `gorm:"type:text;not null;default:''" json:"note"`
	RecordedAt       time.Time       `gorm:"not null" json:"recorded_at"`
	CreatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (PrepaidRecord) TableName() string { return "prepaid_records" }
