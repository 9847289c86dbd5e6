package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReconcileInput describes an excess payment to capture as credit.
type ReconcileInput struct {
	ContractID       snowflake.ID
	ContractCustomID string
	CustomerID       snowflake.ID
	PaymentID        *snowflake.ID
	Excess           decimal.Decimal
	PaymentMethod    string
	ManagerName      string
	RecordedAt       time.Time
	ExtraNote        string
}

// ReconcileResult reports whether a record was written.
type ReconcileResult struct {
	Saved  bool          `json:"saved"`
	Record PrepaidRecord `json:"record,omitempty"`
}

// Stats is a reconciled prepaid total. Total is the larger of the
// transaction-log sum and the cached contract balance.
type Stats struct {
	RecordSum     decimal.Decimal `json:"record_sum"`
	CachedBalance decimal.Decimal `json:"cached_balance"`
	Total         decimal.Decimal `json:"total"`
}

type Service interface {
	// Reconcile appends a PrepaidRecord and increments the contract's
	// cached prepaid balance inside the caller's transaction, so the
	// two writes cannot diverge on a crash. Excess at or below the
	// tolerance is a no-op.
	Reconcile(ctx context.Context, tx *gorm.DB, in ReconcileInput) (ReconcileResult, error)

	ContractHistory(ctx context.Context, contractID snowflake.ID) ([]PrepaidRecord, error)
	ContractStats(ctx context.Context, contractID snowflake.ID) (Stats, error)
	CustomerStats(ctx context.Context, customerID snowflake.ID) (Stats, error)
	UpdateNote(ctx context.Context, id snowflake.ID, note string) (PrepaidRecord, error)
	Delete(ctx context.Context, id snowflake.ID) error
}

var (
	ErrRecordNotFound = errors.New("prepaid_record_not_found")
	ErrInvalidRecord  = errors.New("invalid_prepaid_record")
)
