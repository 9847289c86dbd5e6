// Package domain contains persistence models for installment contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// ContractStatus represents contract lifecycle states.
type ContractStatus string

const (
	ContractStatusActive    ContractStatus = "active"
	ContractStatusCompleted ContractStatus = "completed"
)

// Contract is an installment sale. Price is the legacy single price
// column; TotalPrice supersedes it when set.
type Contract struct {
	ID                  snowflake.ID        `gorm:"primaryKey" json:"id"`
	CustomID            string              `gorm:"type:text;not null;default:''" json:"custom_id"`
	CustomerID          snowflake.ID        `gorm:"not null;index" json:"customer_id"`
	ManagerID           *snowflake.ID       `gorm:"index" json:"manager_id,omitempty"`
	ProductName         string              `gorm:"type:text;not null;default:''" json:"product_name"`
	Price               decimal.Decimal     `gorm:"type:numeric(18,2);not null;default:0" json:"price"`
	TotalPrice          decimal.NullDecimal `gorm:"type:numeric(18,2)" json:"total_price"`
	InitialPayment      decimal.Decimal     `gorm:"type:numeric(18,2);not null;default:0" json:"initial_payment"`
	MonthlyPayment      decimal.Decimal     `gorm:"type:numeric(18,2);not null;default:0" json:"monthly_payment"`
	Months              int                 `gorm:"not null;default:0" json:"months"`
	StartDate           time.Time           `gorm:"not null" json:"start_date"`
	NextPaymentDate     *time.Time          `gorm:"" json:"next_payment_date,omitempty"`
	PreviousPaymentDate *time.Time          `gorm:"" json:"previous_payment_date,omitempty"`
	OriginalPaymentDay  *int                `gorm:"" json:"original_payment_day,omitempty"`
	PrepaidBalance      decimal.Decimal     `gorm:"type:numeric(18,2);not null;default:0" json:"prepaid_balance"`
	Status              ContractStatus      `gorm:"type:text;not null;default:'active';index" json:"status"`
	IsDeclare           bool                `gorm:"not null;default:false" json:"is_declare"`
	IsActive            bool                `gorm:"not null;default:true" json:"is_active"`
	IsDeleted           bool                `gorm:"not null;default:false" json:"is_deleted"`
	Note                string              `gorm:"type:text;not null;default:''" json:"note"`
	CreatedAt           time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Contract) TableName() string { return "contracts" }

// EffectivePrice returns TotalPrice when present, otherwise Price.
func (c Contract) EffectivePrice() decimal.Decimal {
	if c.TotalPrice.Valid {
		return c.TotalPrice.Decimal
	}
	return c.Price
}

// AnchorDay returns the contractual payment day of month. It prefers
// OriginalPaymentDay and falls back to the day of StartDate.
func (c Contract) AnchorDay() int {
	if c.OriginalPaymentDay != nil && *c.OriginalPaymentDay >= 1 && *c.OriginalPaymentDay <= 31 {
		return *c.OriginalPaymentDay
	}
	return c.StartDate.Day()
}
