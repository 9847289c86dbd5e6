package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	balancedomain "github.com/smallbiznis/paynest/internal/balance/domain"
	balanceservice "github.com/smallbiznis/paynest/internal/balance/service"
	"github.com/smallbiznis/paynest/internal/clock"
	"github.com/smallbiznis/paynest/internal/config"
	contractdomain "github.com/smallbiznis/paynest/internal/contract/domain"
	contractservice "github.com/smallbiznis/paynest/internal/contract/service"
	customerdomain "github.com/smallbiznis/paynest/internal/customer/domain"
	paymentdomain "github.com/smallbiznis/paynest/internal/payment/domain"
	prepaiddomain "github.com/smallbiznis/paynest/internal/prepaid/domain"
	prepaidservice "github.com/smallbiznis/paynest/internal/prepaid/service"
	"github.com/smallbiznis/paynest/pkg/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// harness wires the real balance, prepaid and contract services against
// one in-memory database so Confirm and Reverse run their full flow.
type harness struct {
	svc         paymentdomain.Service
	contractSvc contractdomain.Service
	balanceSvc  balancedomain.Service
	db          *gorm.DB
	node        *snowflake.Node
	clock       *clock.FakeClock
	managerID   snowflake.ID
	registry    *prometheus.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = conn.AutoMigrate(
		&customerdomain.Customer{},
		&customerdomain.Employee{},
		&contractdomain.Contract{},
		&paymentdomain.Payment{},
		&prepaiddomain.PrepaidRecord{},
		&balancedomain.Balance{},
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

	registry := prometheus.NewRegistry()
	metrics := telemetry.NewMetricsWith(registry)

	balanceSvc := balanceservice.NewService(balanceservice.ServiceParam{
		DB: conn, Log: log, GenID: node, Clock: fake,
	})
	prepaidSvc := prepaidservice.NewService(prepaidservice.ServiceParam{
		DB: conn, Log: log, GenID: node, Clock: fake, Collections: holder, Metrics: metrics,
	})
	contractSvc := contractservice.NewService(contractservice.ServiceParam{
		DB: conn, Log: log, GenID: node, Clock: fake, Collections: holder, PrepaidSvc: prepaidSvc,
	})
	svc := NewService(ServiceParam{
		DB: conn, Log: log, GenID: node, Clock: fake, Collections: holder,
		BalanceSvc: balanceSvc, PrepaidSvc: prepaidSvc, ContractSvc: contractSvc, Metrics: metrics,
	})

	manager := customerdomain.Employee{
		ID:       node.Generate(),
		FullName: "Aziz Karimov",
		Role:     "manager",
		IsActive: true,
	}
	require.NoError(t, conn.Create(&manager).Error)

	return &harness{
		svc:         svc,
		contractSvc: contractSvc,
		balanceSvc:  balanceSvc,
		db:          conn,
		node:        node,
		clock:       fake,
		managerID:   manager.ID,
		registry:    registry,
	}
}

func (h *harness) counterValue(t *testing.T, name string) float64 {
	t.Helper()
	families, err := h.registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		var total float64
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	return 0
}

func (h *harness) createContract(t *testing.T, req contractdomain.CreateContractRequest) contractdomain.Contract {
	t.Helper()
	if req.CustomerID == 0 {
		req.CustomerID = h.node.Generate()
	}
	contract, err := h.contractSvc.Create(context.Background(), req)
	require.NoError(t, err)
	return contract
}

func (h *harness) firstUnpaidMonthly(t *testing.T, contractID snowflake.ID) paymentdomain.Payment {
	t.Helper()
	payments, err := h.svc.ListByContract(context.Background(), contractID)
	require.NoError(t, err)
	for _, p := range payments {
		if p.Type == paymentdomain.PaymentTypeMonthly && !p.IsPaid() {
			return p
		}
	}
	t.Fatal("no unpaid monthly payment")
	return paymentdomain.Payment{}
}

func TestConfirm_FullFlow(t *testing.T) {
	h := newHarness(t)

	contract := h.createContract(t, contractdomain.CreateContractRequest{
		Price:          decimal.NewFromInt(1200),
		InitialPayment: decimal.NewFromInt(200),
		MonthlyPayment: decimal.NewFromInt(100),
		Months:         10,
		StartDate:      time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
	})

	target := h.firstUnpaidMonthly(t, contract.ID)

	resp, err := h.svc.Confirm(context.Background(), paymentdomain.ConfirmPaymentRequest{
		PaymentID:     target.ID,
		ActualAmount:  decimal.NewFromInt(130),
		PaymentMethod: paymentdomain.PaymentMethodDollar,
		ManagerID:     h.managerID,
	})
	require.NoError(t, err)

	assert.Equal(t, paymentdomain.PaymentStatusPaid, resp.Payment.Status)
	assert.True(t, resp.Payment.ActualAmount.Valid)
	assert.True(t, resp.Excess.Equal(decimal.NewFromInt(30)))
	assert.True(t, resp.PrepaidSaved)
	assert.Equal(t, string(contractdomain.ContractStatusActive), resp.ContractState)

	// Schedule pointer moved to the next unpaid month.
	refreshed, err := h.contractSvc.GetByID(context.Background(), contract.ID)
	require.NoError(t, err)
	require.NotNil(t, refreshed.PreviousPaymentDate)
	assert.True(t, refreshed.PreviousPaymentDate.Equal(target.DueDate))
	require.NotNil(t, refreshed.NextPaymentDate)
	assert.True(t, refreshed.NextPaymentDate.After(target.DueDate))

	// Manager balance credited with the full collected amount.
	bal, err := h.balanceSvc.Get(context.Background(), h.managerID)
	require.NoError(t, err)
	assert.True(t, bal.Dollar.Equal(decimal.NewFromInt(130)), "dollar = %s", bal.Dollar)

	// Excess captured as prepaid credit.
	assert.True(t, refreshed.PrepaidBalance.Equal(decimal.NewFromInt(30)))
}

func TestConfirm_CountsConfirmationAndCredit(t *testing.T) {
	h := newHarness(t)

	contract := h.createContract(t, contractdomain.CreateContractRequest{
		CustomID:       "K-201",
		Price:          decimal.NewFromInt(1200),
		MonthlyPayment: decimal.NewFromInt(100),
		Months:         12,
		StartDate:      time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
	})
	target := h.firstUnpaidMonthly(t, contract.ID)

	_, err := h.svc.Confirm(context.Background(), paymentdomain.ConfirmPaymentRequest{
		PaymentID:     target.ID,
		ActualAmount:  decimal.NewFromInt(130),
		PaymentMethod: paymentdomain.PaymentMethodDollar,
		ManagerID:     h.managerID,
	})
	require.NoError(t, err)

	assert.EqualValues(t, 1, h.counterValue(t, "paynest_payment_confirmations_total"))
	assert.EqualValues(t, 1, h.counterValue(t, "paynest_prepaid_credits_total"))

	// The credit record keeps the contract's human-facing number.
	var record prepaiddomain.PrepaidRecord
	require.NoError(t, h.db.First(&record, "contract_id = ?", contract.ID).Error)
	assert.Equal(t, "K-201", record.ContractCustomID)

	// An exact payment confirms without appending a credit.
	next := h.firstUnpaidMonthly(t, contract.ID)
	_, err = h.svc.Confirm(context.Background(), paymentdomain.ConfirmPaymentRequest{
		PaymentID:     next.ID,
		ActualAmount:  decimal.NewFromInt(100),
		PaymentMethod: paymentdomain.PaymentMethodSum,
		ManagerID:     h.managerID,
	})
	require.NoError(t, err)

	assert.EqualValues(t, 2, h.counterValue(t, "paynest_payment_confirmations_total"))
	assert.EqualValues(t, 1, h.counterValue(t, "paynest_prepaid_credits_total"))
}

func TestConfirm_RejectsBadInputAndDoubleConfirmation(t *testing.T) {
	h := newHarness(t)

	contract := h.createContract(t, contractdomain.CreateContractRequest{
		Price:          decimal.NewFromInt(1200),
		MonthlyPayment: decimal.NewFromInt(100),
		Months:         12,
		StartDate:      time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
	})
	target := h.firstUnpaidMonthly(t, contract.ID)

	_, err := h.svc.Confirm(context.Background(), paymentdomain.ConfirmPaymentRequest{
		PaymentID:     target.ID,
		ActualAmount:  decimal.Zero,
		PaymentMethod: paymentdomain.PaymentMethodSum,
		ManagerID:     h.managerID,
	})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidPayment)

	req := paymentdomain.ConfirmPaymentRequest{
		PaymentID:     target.ID,
		ActualAmount:  decimal.NewFromInt(100),
		PaymentMethod: paymentdomain.PaymentMethodSum,
		ManagerID:     h.managerID,
	}
	_, err = h.svc.Confirm(context.Background(), req)
	require.NoError(t, err)

	_, err = h.svc.Confirm(context.Background(), req)
	assert.ErrorIs(t, err, paymentdomain.ErrPaymentNotPending)
}

func TestConfirm_LastPaymentCompletesContract(t *testing.T) {
	h := newHarness(t)

	contract := h.createContract(t, contractdomain.CreateContractRequest{
		Price:          decimal.NewFromInt(100),
		MonthlyPayment: decimal.NewFromInt(100),
		Months:         1,
		StartDate:      time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC),
	})
	target := h.firstUnpaidMonthly(t, contract.ID)

	resp, err := h.svc.Confirm(context.Background(), paymentdomain.ConfirmPaymentRequest{
		PaymentID:     target.ID,
		ActualAmount:  decimal.NewFromInt(100),
		PaymentMethod: paymentdomain.PaymentMethodCard,
		ManagerID:     h.managerID,
	})
	require.NoError(t, err)
	assert.Equal(t, string(contractdomain.ContractStatusCompleted), resp.ContractState)

	refreshed, err := h.contractSvc.GetByID(context.Background(), contract.ID)
	require.NoError(t, err)
	assert.Equal(t, contractdomain.ContractStatusCompleted, refreshed.Status)
	assert.Nil(t, refreshed.NextPaymentDate)
}

func TestReverse_RestoresEverything(t *testing.T) {
	h := newHarness(t)

	contract := h.createContract(t, contractdomain.CreateContractRequest{
		Price:          decimal.NewFromInt(100),
		MonthlyPayment: decimal.NewFromInt(100),
		Months:         1,
		StartDate:      time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC),
	})
	target := h.firstUnpaidMonthly(t, contract.ID)

	// Overpay so a prepaid credit exists, then complete the contract.
	_, err := h.svc.Confirm(context.Background(), paymentdomain.ConfirmPaymentRequest{
		PaymentID:     target.ID,
		ActualAmount:  decimal.NewFromInt(120),
		PaymentMethod: paymentdomain.PaymentMethodDollar,
		ManagerID:     h.managerID,
	})
	require.NoError(t, err)

	reversed, err := h.svc.Reverse(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.PaymentStatusUnpaid, reversed.Status)
	assert.False(t, reversed.ActualAmount.Valid)
	assert.Nil(t, reversed.PaidAt)
	assert.Nil(t, reversed.ManagerID)

	// Balance rolled back.
	bal, err := h.balanceSvc.Get(context.Background(), h.managerID)
	require.NoError(t, err)
	assert.True(t, bal.Dollar.IsZero(), "dollar = %s", bal.Dollar)

	// Prepaid credit from this payment removed, cached balance restored.
	var count int64
	require.NoError(t, h.db.Model(&prepaiddomain.PrepaidRecord{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)

	// Completed contract returns to active with its schedule pointer back.
	refreshed, err := h.contractSvc.GetByID(context.Background(), contract.ID)
	require.NoError(t, err)
	assert.Equal(t, contractdomain.ContractStatusActive, refreshed.Status)
	assert.True(t, refreshed.PrepaidBalance.IsZero())
	require.NotNil(t, refreshed.NextPaymentDate)
	assert.True(t, refreshed.NextPaymentDate.Equal(target.DueDate))

	_, err = h.svc.Reverse(context.Background(), target.ID)
	assert.ErrorIs(t, err, paymentdomain.ErrPaymentNotPaid)
}

func TestConfirm_ClearsReminderAndPendingState(t *testing.T) {
	h := newHarness(t)

	contract := h.createContract(t, contractdomain.CreateContractRequest{
		Price:          decimal.NewFromInt(1200),
		MonthlyPayment: decimal.NewFromInt(100),
		Months:         12,
		StartDate:      time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
	})
	target := h.firstUnpaidMonthly(t, contract.ID)

	pending, err := h.svc.MarkPending(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.PaymentStatusPending, pending.Status)

	withReminder, err := h.svc.SetReminder(context.Background(), paymentdomain.SetReminderRequest{
		PaymentID:    target.ID,
		ReminderDate: time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NotNil(t, withReminder.ReminderDate)

	resp, err := h.svc.Confirm(context.Background(), paymentdomain.ConfirmPaymentRequest{
		PaymentID:     target.ID,
		ActualAmount:  decimal.NewFromInt(100),
		PaymentMethod: paymentdomain.PaymentMethodSum,
		ManagerID:     h.managerID,
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Payment.ReminderDate)
	assert.Equal(t, paymentdomain.PaymentStatusPaid, resp.Payment.Status)
}

func TestSetReminder_RejectsPaidPayment(t *testing.T) {
	h := newHarness(t)

	contract := h.createContract(t, contractdomain.CreateContractRequest{
		Price:          decimal.NewFromInt(1200),
		MonthlyPayment: decimal.NewFromInt(100),
		Months:         12,
		StartDate:      time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
	})
	target := h.firstUnpaidMonthly(t, contract.ID)

	_, err := h.svc.Confirm(context.Background(), paymentdomain.ConfirmPaymentRequest{
		PaymentID:     target.ID,
		ActualAmount:  decimal.NewFromInt(100),
		PaymentMethod: paymentdomain.PaymentMethodSum,
		ManagerID:     h.managerID,
	})
	require.NoError(t, err)

	_, err = h.svc.SetReminder(context.Background(), paymentdomain.SetReminderRequest{
		PaymentID:    target.ID,
		ReminderDate: time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, paymentdomain.ErrPaymentNotPending)

	_, err = h.svc.MarkPending(context.Background(), target.ID)
	assert.ErrorIs(t, err, paymentdomain.ErrPaymentNotPending)
}
