// Package seed loads a small demo data set for local development.
package seed

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	contractdomain "github.com/smallbiznis/paynest/internal/contract/domain"
	customerdomain "github.com/smallbiznis/paynest/internal/customer/domain"
	paymentdomain "github.com/smallbiznis/paynest/internal/payment/domain"
	"gorm.io/gorm"
)

// EnsureDemoData inserts a manager, a customer and one contract with a
// twelve-month schedule when the database is empty. Safe to call on
// every startup.
func EnsureDemoData(conn *gorm.DB, genID *snowflake.Node) error {
	var count int64
	if err := conn.Model(&customerdomain.Customer{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()

	manager := customerdomain.Employee{
		ID:        genID.Generate(),
		FullName:  "Demo Manager",
		Role:      "manager",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	customer := customerdomain.Customer{
		ID:          genID.Generate(),
		FullName:    "Demo Customer",
		PhoneNumber: "+998900000000",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	managerID := manager.ID
	startDate := now.AddDate(0, -1, 0)
	contract := contractdomain.Contract{
		ID:             genID.Generate(),
		CustomID:       "DEMO-1",
		CustomerID:     customer.ID,
		ManagerID:      &managerID,
		ProductName:    "Demo Product",
		Price:          decimal.NewFromInt(1200),
		InitialPayment: decimal.NewFromInt(200),
		MonthlyPayment: decimal.NewFromInt(100),
		Months:         12,
		StartDate:      startDate,
		Status:         contractdomain.ContractStatusActive,
		IsActive:       true,
		PrepaidBalance: decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	return conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&manager).Error; err != nil {
			return err
		}
		if err := tx.Create(&customer).Error; err != nil {
			return err
		}

		var payments []paymentdomain.Payment
		paidAt := startDate
		payments = append(payments, paymentdomain.Payment{
			ID:         genID.Generate(),
			ContractID: contract.ID,
			Type:       paymentdomain.PaymentTypeInitial,
			Status:     paymentdomain.PaymentStatusPaid,
			Amount:     contract.InitialPayment,
			DueDate:    startDate,
			PaidAt:     &paidAt,
			ManagerID:  &managerID,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		for i := 1; i <= contract.Months; i++ {
			payments = append(payments, paymentdomain.Payment{
				ID:         genID.Generate(),
				ContractID: contract.ID,
				Type:       paymentdomain.PaymentTypeMonthly,
				Status:     paymentdomain.PaymentStatusUnpaid,
				Amount:     contract.MonthlyPayment,
				DueDate:    startDate.AddDate(0, i, 0),
				CreatedAt:  now,
				UpdatedAt:  now,
			})
		}

		first := payments[1].DueDate
		contract.NextPaymentDate = &first
		if err := tx.Create(&contract).Error; err != nil {
			return err
		}
		return tx.Create(&payments).Error
	})
}
