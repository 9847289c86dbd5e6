package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/paynest/pkg/db/pagination"
)

type CreateContractRequest struct {
	CustomID           string              `json:"custom_id"`
	CustomerID         snowflake.ID        `json:"customer_id" binding:"required"`
	ManagerID          *snowflake.ID       `json:"manager_id"`
	ProductName        string              `json:"product_name"`
	Price              decimal.Decimal     `json:"price"`
	TotalPrice         decimal.NullDecimal `json:"total_price"`
	InitialPayment     decimal.Decimal     `json:"initial_payment"`
	MonthlyPayment     decimal.Decimal     `json:"monthly_payment"`
	Months             int                 `json:"months" binding:"required"`
	StartDate          time.Time           `json:"start_date" binding:"required"`
	OriginalPaymentDay *int                `json:"original_payment_day"`
	Note               string              `json:"note"`
}

type UpdateContractRequest struct {
	CustomID           *string              `json:"custom_id"`
	ProductName        *string              `json:"product_name"`
	TotalPrice         *decimal.NullDecimal `json:"total_price"`
	MonthlyPayment     *decimal.Decimal     `json:"monthly_payment"`
	NextPaymentDate    *time.Time           `json:"next_payment_date"`
	OriginalPaymentDay *int                 `json:"original_payment_day"`
	Note               *string              `json:"note"`
}

type ListContractRequest struct {
	pagination.Pagination
	CustomerID *snowflake.ID   `form:"customer_id"`
	Status     *ContractStatus `form:"status"`
}

type ListContractResponse struct {
	pagination.PageInfo
	Contracts []Contract `json:"contracts"`
}

type Service interface {
	Create(ctx context.Context, req CreateContractRequest) (Contract, error)
	GetByID(ctx context.Context, id snowflake.ID) (Contract, error)
	List(ctx context.Context, req ListContractRequest) (ListContractResponse, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateContractRequest) (Contract, error)
	SoftDelete(ctx context.Context, id snowflake.ID) error
	HardDelete(ctx context.Context, id snowflake.ID) error

	// RefreshCompletion recomputes the contract's settlement state from
	// its paid payments and prepaid balance, moving it between active
	// and completed in either direction.
	RefreshCompletion(ctx context.Context, id snowflake.ID) (Contract, error)
}

var (
	ErrContractNotFound  = errors.New("contract_not_found")
	ErrInvalidContract   = errors.New("invalid_contract")
	ErrDuplicateCustomID = errors.New("duplicate_custom_id")
)
