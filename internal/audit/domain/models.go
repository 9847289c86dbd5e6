// Package domain contains the audit trail of manager actions: payment
// confirmations and reversals, contract deletions and manual debtor
// declarations.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Well-known actions. Free-form actions are allowed; these are the ones
// the core emits itself.
const (
	ActionPaymentConfirmed = "payment.confirmed"
	ActionPaymentReversed  = "payment.reversed"
	ActionContractDeleted  = "contract.deleted"
	ActionDebtorsDeclared  = "debtors.declared"
)

// AuditLog is one recorded manager action. ManagerID is nil for actions
// taken by the system itself, e.g. the nightly materializer.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	ManagerID  *snowflake.ID     `gorm:"index" json:"manager_id,omitempty"`
	Action     string            `gorm:"type:text;not null;index" json:"action"`
	TargetType string            `gorm:"type:text;not null;default:''" json:"target_type"`
	TargetID   *string           `gorm:"type:text" json:"target_id,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	IPAddress  *string           `gorm:"type:text" json:"ip_address,omitempty"`
	UserAgent  *string           `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;index" json:"created_at"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }

// AuditCursor is the keyset position for paging the log.
type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

// ListFilter narrows a log listing.
type ListFilter struct {
	ManagerID  *snowflake.ID
	Action     string
	TargetType string
	TargetID   string
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *AuditCursor
	Limit      int
}
