// Package domain contains persistence models for customers and staff.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Customer is a buyer holding one or more installment contracts.
type Customer struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	FullName         string       `gorm:"type:text;not null" json:"full_name"`
	PhoneNumber      string       `gorm:"type:text;not null;default:''" json:"phone_number"`
	ExtraPhoneNumber string       `gorm:"type:text;not null;default:''" json:"extra_phone_number"`
	Address          string       `gorm:"type:text;not null;default:''" json:"address"`
	PassportID       string       `gorm:"type:text;not null;default:''" json:"passport_id"`
	Note             string       `gorm:"type:text;not null;default:''" json:"note"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }

// Employee is a staff member. Managers confirm payments and carry a
// per-method cash balance.
type Employee struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	FullName    string       `gorm:"type:text;not null" json:"full_name"`
	PhoneNumber string       `gorm:"type:text;not null;default:''" json:"phone_number"`
	Role        string       `gorm:"type:text;not null;default:'manager'" json:"role"`
	IsActive    bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Employee) TableName() string { return "employees" }
