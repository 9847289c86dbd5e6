// Package domain contains the per-manager cash balance model.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Balance accumulates confirmed payments per manager, split by method.
type Balance struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	ManagerID snowflake.ID    `gorm:"not null;uniqueIndex" json:"manager_id"`
	Dollar    decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"dollar"`
	Sum       decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"sum"`
	Card      decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"card"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Balance) TableName() string { return "balances" }

type Service interface {
	// Apply adds delta to the manager's balance for the given method
	// inside the caller's transaction. Negative deltas reverse earlier
	// confirmations.
	Apply(ctx context.Context, tx *gorm.DB, managerID snowflake.ID, method string, delta decimal.Decimal) error

	Get(ctx context.Context, managerID snowflake.ID) (Balance, error)
	List(ctx context.Context) ([]Balance, error)
}

var (
	ErrBalanceNotFound = errors.New("balance_not_found")
	ErrInvalidMethod   = errors.New("invalid_payment_method")
)
