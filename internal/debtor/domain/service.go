package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// ContractResult is the outcome of materializing one contract. Failures
// are carried as data so a batch report can surface them without
// aborting the run.
type ContractResult struct {
	ContractID snowflake.ID `json:"contract_id"`
	Created    int          `json:"created"`
	Updated    int          `json:"updated"`
	Scanned    int          `json:"scanned"`
	Error      string       `json:"error,omitempty"`
}

// Failed reports whether the contract's processing ended in error.
func (r ContractResult) Failed() bool { return r.Error != "" }

// RunReport aggregates one materializer run.
type RunReport struct {
	Created              int              `json:"created"`
	Updated              int              `json:"updated"`
	TotalOverduePayments int              `json:"total_overdue_payments"`
	Failed               int              `json:"failed"`
	Results              []ContractResult `json:"results,omitempty"`
}

// DeclareReport aggregates a manual declaration.
type DeclareReport struct {
	Declared int `json:"declared"`
	Created  int `json:"created"`
	Skipped  int `json:"skipped"`
}

type Service interface {
	// Materialize walks all eligible contracts and creates or refreshes
	// one Debtor per overdue monthly obligation. One contract's failure
	// never aborts the rest of the run.
	Materialize(ctx context.Context) (RunReport, error)

	// Declare marks contracts as manually declared and force-creates a
	// single Debtor per contract if none exists yet.
	Declare(ctx context.Context, contractIDs []snowflake.ID, createdBy snowflake.ID) (DeclareReport, error)

	ListByContract(ctx context.Context, contractID snowflake.ID) ([]Debtor, error)
}

var (
	ErrNoContracts = errors.New("no_contracts_given")
)
