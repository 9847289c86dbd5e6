package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/paynest/internal/clock"
	"github.com/smallbiznis/paynest/internal/config"
	contractdomain "github.com/smallbiznis/paynest/internal/contract/domain"
	debtordomain "github.com/smallbiznis/paynest/internal/debtor/domain"
	paymentdomain "github.com/smallbiznis/paynest/internal/payment/domain"
	prepaiddomain "github.com/smallbiznis/paynest/internal/prepaid/domain"
	prepaidservice "github.com/smallbiznis/paynest/internal/prepaid/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (contractdomain.Service, *gorm.DB, *snowflake.Node, *clock.FakeClock) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = conn.AutoMigrate(
		&contractdomain.Contract{},
		&paymentdomain.Payment{},
		&prepaiddomain.PrepaidRecord{},
		&debtordomain.Debtor{},
	)
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC))
	holder := config.NewStaticCollectionsConfigHolder(config.CollectionsConfig{
		AnchorTimeZone:       "UTC",
		RecentPaidWindowDays: 30,
	})

	prepaidSvc := prepaidservice.NewService(prepaidservice.ServiceParam{
		DB: conn, Log: log, GenID: node, Clock: fake, Collections: holder,
	})
	svc := NewService(ServiceParam{
		DB: conn, Log: log, GenID: node, Clock: fake, Collections: holder, PrepaidSvc: prepaidSvc,
	})
	return svc, conn, node, fake
}

func TestCreate_GeneratesSchedule(t *testing.T) {
	svc, conn, node, _ := newTestService(t)

	anchor := 31
	contract, err := svc.Create(context.Background(), contractdomain.CreateContractRequest{
		CustomerID:         node.Generate(),
		Price:              decimal.NewFromInt(1400),
		InitialPayment:     decimal.NewFromInt(200),
		MonthlyPayment:     decimal.NewFromInt(100),
		Months:             12,
		StartDate:          time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
		OriginalPaymentDay: &anchor,
	})
	require.NoError(t, err)

	var payments []paymentdomain.Payment
	require.NoError(t, conn.Where("contract_id = ?", contract.ID).Order("due_date asc").Find(&payments).Error)
	require.Len(t, payments, 13, "initial plus twelve monthlies")

	assert.Equal(t, paymentdomain.PaymentTypeInitial, payments[0].Type)
	assert.Equal(t, paymentdomain.PaymentStatusPaid, payments[0].Status)
	assert.True(t, payments[0].Amount.Equal(decimal.NewFromInt(200)))

	// February clamps the anchor day to the 28th, April to the 30th.
	assert.True(t, payments[1].DueDate.Equal(time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)))
	assert.True(t, payments[2].DueDate.Equal(time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)))
	assert.True(t, payments[3].DueDate.Equal(time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC)))

	// The schedule pointer lands on the first monthly obligation, not
	// the already-paid down payment.
	require.NotNil(t, contract.NextPaymentDate)
	assert.True(t, contract.NextPaymentDate.Equal(payments[1].DueDate))
}

func TestCreate_Validation(t *testing.T) {
	svc, _, node, _ := newTestService(t)

	_, err := svc.Create(context.Background(), contractdomain.CreateContractRequest{
		CustomerID:     node.Generate(),
		Price:          decimal.NewFromInt(1200),
		MonthlyPayment: decimal.NewFromInt(100),
		Months:         0,
		StartDate:      time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, contractdomain.ErrInvalidContract)

	_, err = svc.Create(context.Background(), contractdomain.CreateContractRequest{
		CustomerID:     node.Generate(),
		Price:          decimal.Zero,
		MonthlyPayment: decimal.NewFromInt(100),
		Months:         12,
		StartDate:      time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, contractdomain.ErrInvalidContract)
}

func TestUpdate_TermsChangeTriggersCompletionRecheck(t *testing.T) {
	svc, conn, node, _ := newTestService(t)

	contract, err := svc.Create(context.Background(), contractdomain.CreateContractRequest{
		CustomerID:     node.Generate(),
		Price:          decimal.NewFromInt(1200),
		MonthlyPayment: decimal.NewFromInt(100),
		Months:         12,
		StartDate:      time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// Confirm 300 worth of payments directly.
	err = conn.Model(&paymentdomain.Payment{}).
		Where("contract_id = ?", contract.ID).
		Where("due_date <= ?", time.Date(2025, time.April, 5, 0, 0, 0, 0, time.UTC)).
		Updates(map[string]any{"status": paymentdomain.PaymentStatusPaid}).Error
	require.NoError(t, err)

	// Renegotiate the total down to what was already paid: the contract
	// completes through the terms-change path.
	total := decimal.NewNullDecimal(decimal.NewFromInt(300))
	updated, err := svc.Update(context.Background(), contract.ID, contractdomain.UpdateContractRequest{
		TotalPrice: &total,
	})
	require.NoError(t, err)
	assert.Equal(t, contractdomain.ContractStatusCompleted, updated.Status)
	assert.Nil(t, updated.NextPaymentDate)

	// Raising the total reactivates it and restores the pointer.
	total = decimal.NewNullDecimal(decimal.NewFromInt(1500))
	updated, err = svc.Update(context.Background(), contract.ID, contractdomain.UpdateContractRequest{
		TotalPrice: &total,
	})
	require.NoError(t, err)
	assert.Equal(t, contractdomain.ContractStatusActive, updated.Status)
	require.NotNil(t, updated.NextPaymentDate)
	assert.True(t, updated.NextPaymentDate.Equal(time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC)))
}

func TestSoftDelete_HidesContract(t *testing.T) {
	svc, _, node, _ := newTestService(t)

	contract, err := svc.Create(context.Background(), contractdomain.CreateContractRequest{
		CustomerID:     node.Generate(),
		Price:          decimal.NewFromInt(1200),
		MonthlyPayment: decimal.NewFromInt(100),
		Months:         12,
		StartDate:      time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(context.Background(), contract.ID))

	_, err = svc.GetByID(context.Background(), contract.ID)
	assert.ErrorIs(t, err, contractdomain.ErrContractNotFound)
}

func TestHardDelete_CascadesDerivedRows(t *testing.T) {
	svc, conn, node, _ := newTestService(t)

	contract, err := svc.Create(context.Background(), contractdomain.CreateContractRequest{
		CustomerID:     node.Generate(),
		Price:          decimal.NewFromInt(1200),
		MonthlyPayment: decimal.NewFromInt(100),
		Months:         12,
		StartDate:      time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	record := prepaiddomain.PrepaidRecord{
		ID:         node.Generate(),
		ContractID: contract.ID,
		CustomerID: contract.CustomerID,
		Amount:     decimal.NewFromInt(10),
	}
	require.NoError(t, conn.Create(&record).Error)
	debtor := debtordomain.Debtor{
		ID:         node.Generate(),
		ContractID: contract.ID,
		CustomerID: contract.CustomerID,
		DueDate:    time.Date(2025, time.February, 5, 0, 0, 0, 0, time.UTC),
		Amount:     decimal.NewFromInt(100),
	}
	require.NoError(t, conn.Create(&debtor).Error)

	require.NoError(t, svc.HardDelete(context.Background(), contract.ID))

	for _, model := range []any{
		&paymentdomain.Payment{},
		&prepaiddomain.PrepaidRecord{},
		&debtordomain.Debtor{},
		&contractdomain.Contract{},
	} {
		var count int64
		require.NoError(t, conn.Model(model).Count(&count).Error)
		assert.EqualValues(t, 0, count)
	}

	err = svc.HardDelete(context.Background(), contract.ID)
	assert.ErrorIs(t, err, contractdomain.ErrContractNotFound)
}

func TestList_FiltersByCustomerAndStatus(t *testing.T) {
	svc, _, node, _ := newTestService(t)

	customerID := node.Generate()
	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), contractdomain.CreateContractRequest{
			CustomerID:     customerID,
			Price:          decimal.NewFromInt(1200),
			MonthlyPayment: decimal.NewFromInt(100),
			Months:         12,
			StartDate:      time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}
	_, err := svc.Create(context.Background(), contractdomain.CreateContractRequest{
		CustomerID:     node.Generate(),
		Price:          decimal.NewFromInt(600),
		MonthlyPayment: decimal.NewFromInt(50),
		Months:         12,
		StartDate:      time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	resp, err := svc.List(context.Background(), contractdomain.ListContractRequest{CustomerID: &customerID})
	require.NoError(t, err)
	assert.Len(t, resp.Contracts, 3)

	resp, err = svc.List(context.Background(), contractdomain.ListContractRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Contracts, 4)
}
