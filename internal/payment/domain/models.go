// Package domain contains persistence models for scheduled payments.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents payment settlement states. UNPAID is the
// scheduled default, PENDING means a customer reported the payment and a
// manager has not confirmed it yet, PAID is confirmed and counted.
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "UNPAID"
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// PaymentType distinguishes scheduled monthly obligations from the
// initial down payment and ad-hoc payments.
type PaymentType string

const (
	PaymentTypeMonthly PaymentType = "monthly"
	PaymentTypeInitial PaymentType = "initial"
	PaymentTypeOther   PaymentType = "other"
)

// PaymentMethod is how money was received.
type PaymentMethod string

const (
	PaymentMethodDollar PaymentMethod = "dollar"
	PaymentMethodSum    PaymentMethod = "sum"
	PaymentMethodCard   PaymentMethod = "card"
)

// Payment is one schedule entry of a contract. Amount is the scheduled
// amount; ExpectedAmount overrides it when terms were renegotiated, and
// ActualAmount is what was really received at confirmation.
type Payment struct {
	ID             snowflake.ID        `gorm:"primaryKey" json:"id"`
	ContractID     snowflake.ID        `gorm:"not null;index" json:"contract_id"`
	Type           PaymentType         `gorm:"type:text;not null;default:'monthly'" json:"type"`
	Status         PaymentStatus       `gorm:"type:text;not null;default:'UNPAID';index:idx_payments_status_due" json:"status"`
	Amount         decimal.Decimal     `gorm:"type:numeric(18,2);not null;default:0" json:"amount"`
	ExpectedAmount decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"expected_amount"`
	ActualAmount   decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"actual_amount"`
	PaymentMethod  PaymentMethod       `gorm:"type:text;not null;default:''" json:"payment_method"`
	DueDate        time.Time           `gorm:"not null;index:idx_payments_status_due" json:"due_date"`
	PaidAt         *time.Time          `gorm:"" json:"paid_at,omitempty"`
	ReminderDate   *time.Time          `gorm:"" json:"reminder_date,omitempty"`
	ManagerID      *snowflake.ID       `gorm:"" json:"manager_id,omitempty"`
	Note           string              `gorm:"type:text;not null;default:''" json:"note"`
	CreatedAt      time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// IsPaid reports whether the payment has been confirmed.
func (p Payment) IsPaid() bool { return p.Status == PaymentStatusPaid }

// PaidAmount returns what the payment contributed to settlement:
// ActualAmount when recorded, otherwise the scheduled Amount.
func (p Payment) PaidAmount() decimal.Decimal {
	if p.ActualAmount.Valid {
		return p.ActualAmount.Decimal
	}
	return p.Amount
}

// ExpectedOrScheduled returns ExpectedAmount when set, otherwise Amount.
func (p Payment) ExpectedOrScheduled() decimal.Decimal {
	if p.ExpectedAmount.Valid {
		return p.ExpectedAmount.Decimal
	}
	return p.Amount
}
