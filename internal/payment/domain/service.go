package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type ConfirmPaymentRequest struct {
	PaymentID     snowflake.ID    `json:"payment_id" binding:"required"`
	ActualAmount  decimal.Decimal `json:"actual_amount" binding:"required"`
	PaymentMethod PaymentMethod   `json:"payment_method" binding:"required"`
	ManagerID     snowflake.ID    `json:"manager_id" binding:"required"`
	Note          string          `json:"note"`
}

type ConfirmPaymentResponse struct {
	Payment       Payment         `json:"payment"`
	Excess        decimal.Decimal `json:"excess"`
	PrepaidSaved  bool            `json:"prepaid_saved"`
	ContractState string          `json:"contract_state"`
}

type SetReminderRequest struct {
	PaymentID    snowflake.ID `json:"payment_id" binding:"required"`
	ReminderDate time.Time    `json:"reminder_date" binding:"required"`
}

type Service interface {
	GetByID(ctx context.Context, id snowflake.ID) (Payment, error)
	ListByContract(ctx context.Context, contractID snowflake.ID) ([]Payment, error)

	// Confirm marks a pending payment as paid, moves the contract's
	// schedule pointer forward, credits the manager's balance and
	// captures any overpayment as a prepaid credit. All writes happen
	// in one transaction.
	Confirm(ctx context.Context, req ConfirmPaymentRequest) (ConfirmPaymentResponse, error)

	// Reverse undoes a confirmation, restoring the payment to pending
	// and the contract to active if it had completed.
	Reverse(ctx context.Context, paymentID snowflake.ID) (Payment, error)

	// MarkPending flags an unpaid payment as reported by the customer
	// and awaiting manager confirmation.
	MarkPending(ctx context.Context, paymentID snowflake.ID) (Payment, error)

	SetReminder(ctx context.Context, req SetReminderRequest) (Payment, error)
	ClearReminder(ctx context.Context, paymentID snowflake.ID) (Payment, error)
}

var (
	ErrPaymentNotFound   = errors.New("payment_not_found")
	ErrPaymentNotPending = errors.New("payment_not_pending")
	ErrPaymentNotPaid    = errors.New("payment_not_paid")
	ErrInvalidPayment    = errors.New("invalid_payment")
)
