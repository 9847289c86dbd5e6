// Package domain defines the read views of the reconciliation core.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/paynest/internal/ledger"
)

// ContractDebt is the per-contract listing row shared by the debtor
// views.
type ContractDebt struct {
	ContractID         snowflake.ID             `json:"contract_id"`
	CustomerID         snowflake.ID             `json:"customer_id"`
	FullName           string                   `json:"full_name"`
	PhoneNumber        string                   `json:"phone_number"`
	CustomID           string                   `json:"custom_id,omitempty"`
	ProductName        string                   `json:"product_name,omitempty"`
	TotalPaid          decimal.Decimal          `json:"total_paid"`
	RemainingDebt      decimal.Decimal          `json:"remaining_debt"`
	FinalRemainingDebt decimal.Decimal          `json:"final_remaining_debt"`
	PrepaidBalance     decimal.Decimal          `json:"prepaid_balance"`
	MonthlyPayment     decimal.Decimal          `json:"monthly_payment"`
	DelayDays          int                      `json:"delay_days"`
	NextPaymentDate    *time.Time               `json:"next_payment_date,omitempty"`
	NextPaymentStatus  ledger.NextPaymentStatus `json:"next_payment_status"`
}

// CustomerSummary aggregates one customer across their contracts.
type CustomerSummary struct {
	CustomerID    snowflake.ID    `json:"customer_id"`
	FullName      string          `json:"full_name"`
	PhoneNumber   string          `json:"phone_number"`
	TotalDebt     decimal.Decimal `json:"total_debt"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	RemainingDebt decimal.Decimal `json:"remaining_debt"`
	TotalPrepaid  decimal.Decimal `json:"total_prepaid"`
	DelayDays     int             `json:"delay_days"`
	Contracts     []ContractDebt  `json:"contracts"`
}

// DebtorGroup is one customer's slice of the debtor report: their
// overdue contracts plus aggregated totals.
type DebtorGroup struct {
	CustomerID    snowflake.ID    `json:"customer_id"`
	FullName      string          `json:"full_name"`
	PhoneNumber   string          `json:"phone_number"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	RemainingDebt decimal.Decimal `json:"remaining_debt"`
	DelayDays     int             `json:"delay_days"`
	Contracts     []ContractDebt  `json:"contracts"`
}

type Service interface {
	CustomerSummary(ctx context.Context, customerID snowflake.ID) (CustomerSummary, error)

	// CategorizedDebts partitions a customer's unpaid obligations into
	// overdue, pending and normal buckets.
	CategorizedDebts(ctx context.Context, customerID snowflake.ID) (ledger.CategorizedDebts, error)

	// ListDebtors groups past-due active contracts by customer, worst
	// remaining debt first.
	ListDebtors(ctx context.Context) ([]DebtorGroup, error)

	// ListAllDebtors returns active contracts ordered by the status
	// priority chain, then by delay days descending. A non-nil managerID
	// scopes to that manager's contracts; a non-nil asOf evaluates the
	// ledger at that instant instead of now.
	ListAllDebtors(ctx context.Context, managerID *snowflake.ID, asOf *time.Time) ([]ContractDebt, error)

	// ListUnpaidDebtors lists past-due contracts with reminder
	// suppression: an overdue contract is hidden while a future reminder
	// date is set on its overdue payment. Scoping as in ListAllDebtors.
	ListUnpaidDebtors(ctx context.Context, managerID *snowflake.ID, asOf *time.Time) ([]ContractDebt, error)

	// ListPaidDebtors returns contracts with a confirmed payment inside
	// the trailing recent-paid window.
	ListPaidDebtors(ctx context.Context, managerID *snowflake.ID) ([]ContractDebt, error)

	// ListOverdueContracts is the month-scoped historical view: it
	// reconstructs each contract's virtual due date for the target
	// month and lists contracts that missed it.
	ListOverdueContracts(ctx context.Context, year int, month time.Month) ([]ContractDebt, error)
}

var (
	ErrInvalidMonth  = errors.New("invalid_month")
	ErrInvalidFilter = errors.New("invalid_filter")
)
