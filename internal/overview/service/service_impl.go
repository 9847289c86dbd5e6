package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/paynest/internal/clock"
	"github.com/smallbiznis/paynest/internal/config"
	contractdomain "github.com/smallbiznis/paynest/internal/contract/domain"
	customerdomain "github.com/smallbiznis/paynest/internal/customer/domain"
	"github.com/smallbiznis/paynest/internal/ledger"
	overviewdomain "github.com/smallbiznis/paynest/internal/overview/domain"
	paymentdomain "github.com/smallbiznis/paynest/internal/payment/domain"
	prepaiddomain "github.com/smallbiznis/paynest/internal/prepaid/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	Collections *config.CollectionsConfigHolder
	PrepaidSvc  prepaiddomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	collections *config.CollectionsConfigHolder
	prepaidSvc  prepaiddomain.Service
}

func NewService(p ServiceParam) overviewdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("overview.service"),
		clock:       p.Clock,
		collections: p.Collections,
		prepaidSvc:  p.PrepaidSvc,
	}
}

func (s *Service) ledgerConfig() ledger.Config {
	collections := s.collections.Get()
	return ledger.Config{
		Location:             collections.Location(),
		RecentPaidWindowDays: collections.RecentPaidWindowDays,
		Tolerance:            decimal.NewFromFloat(collections.Tolerance),
	}
}

// contractRow pairs a contract with its computed ledger view and owner.
type contractRow struct {
	contract contractdomain.Contract
	payments []paymentdomain.Payment
	view     ledger.View
	customer customerdomain.Customer
}

// loadActiveRows snapshots every active contract with its payments and
// ledger view, optionally scoped to one manager's contracts. The
// aggregation itself is pure; this method only gathers the inputs.
func (s *Service) loadActiveRows(ctx context.Context, managerID *snowflake.ID, asOf time.Time) ([]contractRow, error) {
	stmt := s.db.WithContext(ctx).
		Where("is_active = ? AND is_deleted = ?", true, false)
	if managerID != nil {
		stmt = stmt.Where("manager_id = ?", *managerID)
	}

	var contracts []contractdomain.Contract
	if err := stmt.Find(&contracts).Error; err != nil {
		return nil, err
	}
	return s.buildRows(ctx, contracts, asOf)
}

func (s *Service) asOfOrNow(asOf *time.Time) time.Time {
	if asOf != nil {
		return *asOf
	}
	return s.clock.Now()
}

func (s *Service) buildRows(ctx context.Context, contracts []contractdomain.Contract, asOf time.Time) ([]contractRow, error) {
	if len(contracts) == 0 {
		return nil, nil
	}

	contractIDs := make([]snowflake.ID, 0, len(contracts))
	customerIDs := make([]snowflake.ID, 0, len(contracts))
	for _, c := range contracts {
		contractIDs = append(contractIDs, c.ID)
		customerIDs = append(customerIDs, c.CustomerID)
	}

	var payments []paymentdomain.Payment
	err := s.db.WithContext(ctx).
		Where("contract_id IN ?", contractIDs).
		Order("due_date asc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	byContract := make(map[snowflake.ID][]paymentdomain.Payment, len(contracts))
	for _, p := range payments {
		byContract[p.ContractID] = append(byContract[p.ContractID], p)
	}

	var customers []customerdomain.Customer
	if err := s.db.WithContext(ctx).Where("id IN ?", customerIDs).Find(&customers).Error; err != nil {
		return nil, err
	}
	customerByID := make(map[snowflake.ID]customerdomain.Customer, len(customers))
	for _, c := range customers {
		customerByID[c.ID] = c
	}

	cfg := s.ledgerConfig()

	rows := make([]contractRow, 0, len(contracts))
	for _, contract := range contracts {
		rows = append(rows, contractRow{
			contract: contract,
			payments: byContract[contract.ID],
			view:     ledger.Compute(contract, byContract[contract.ID], asOf, cfg),
			customer: customerByID[contract.CustomerID],
		})
	}
	return rows, nil
}

func (s *Service) toDebt(row contractRow) overviewdomain.ContractDebt {
	return overviewdomain.ContractDebt{
		ContractID:         row.contract.ID,
		CustomerID:         row.contract.CustomerID,
		FullName:           row.customer.FullName,
		PhoneNumber:        row.customer.PhoneNumber,
		CustomID:           row.contract.CustomID,
		ProductName:        row.contract.ProductName,
		TotalPaid:          row.view.TotalPaid,
		RemainingDebt:      row.view.RemainingDebt,
		FinalRemainingDebt: ledger.FinalRemainingDebt(row.view, row.contract.PrepaidBalance),
		PrepaidBalance:     row.contract.PrepaidBalance,
		MonthlyPayment:     row.contract.MonthlyPayment,
		DelayDays:          row.view.DelayDays,
		NextPaymentDate:    row.contract.NextPaymentDate,
		NextPaymentStatus:  row.view.NextPaymentStatus,
	}
}

func (s *Service) CustomerSummary(ctx context.Context, customerID snowflake.ID) (overviewdomain.CustomerSummary, error) {
	var customer customerdomain.Customer
	err := s.db.WithContext(ctx).First(&customer, "id = ?", customerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return overviewdomain.CustomerSummary{}, customerdomain.ErrCustomerNotFound
	}
	if err != nil {
		return overviewdomain.CustomerSummary{}, err
	}

	var contracts []contractdomain.Contract
	err = s.db.WithContext(ctx).
		Where("customer_id = ? AND is_deleted = ?", customerID, false).
		Find(&contracts).Error
	if err != nil {
		return overviewdomain.CustomerSummary{}, err
	}

	rows, err := s.buildRows(ctx, contracts, s.clock.Now())
	if err != nil {
		return overviewdomain.CustomerSummary{}, err
	}

	stats, err := s.prepaidSvc.CustomerStats(ctx, customerID)
	if err != nil {
		return overviewdomain.CustomerSummary{}, err
	}

	summary := overviewdomain.CustomerSummary{
		CustomerID:    customerID,
		FullName:      customer.FullName,
		PhoneNumber:   customer.PhoneNumber,
		TotalDebt:     decimal.Zero,
		TotalPaid:     decimal.Zero,
		RemainingDebt: decimal.Zero,
		TotalPrepaid:  stats.Total,
	}
	for _, row := range rows {
		debt := s.toDebt(row)
		summary.Contracts = append(summary.Contracts, debt)
		summary.TotalDebt = summary.TotalDebt.Add(row.contract.EffectivePrice())
		summary.TotalPaid = summary.TotalPaid.Add(row.view.TotalPaid)
		summary.RemainingDebt = summary.RemainingDebt.Add(row.view.RemainingDebt)
		if debt.DelayDays > summary.DelayDays {
			summary.DelayDays = debt.DelayDays
		}
	}
	return summary, nil
}

func (s *Service) CategorizedDebts(ctx context.Context, customerID snowflake.ID) (ledger.CategorizedDebts, error) {
	var contracts []contractdomain.Contract
	err := s.db.WithContext(ctx).
		Where("customer_id = ? AND is_active = ? AND is_deleted = ?", customerID, true, false).
		Find(&contracts).Error
	if err != nil {
		return ledger.CategorizedDebts{}, err
	}

	rows, err := s.buildRows(ctx, contracts, s.clock.Now())
	if err != nil {
		return ledger.CategorizedDebts{}, err
	}

	var payments []paymentdomain.Payment
	for _, row := range rows {
		payments = append(payments, row.payments...)
	}

	cfg := s.ledgerConfig()
	return ledger.Categorize(payments, s.clock.Now(), cfg.Location), nil
}

func (s *Service) ListDebtors(ctx context.Context) ([]overviewdomain.DebtorGroup, error) {
	rows, err := s.loadActiveRows(ctx, nil, s.clock.Now())
	if err != nil {
		return nil, err
	}

	groupByCustomer := make(map[snowflake.ID]*overviewdomain.DebtorGroup)
	var groups []*overviewdomain.DebtorGroup
	for _, row := range rows {
		if row.contract.Status != contractdomain.ContractStatusActive {
			continue
		}
		if row.contract.NextPaymentDate == nil || row.view.DelayDays <= 0 {
			continue
		}
		if !row.view.RemainingDebt.GreaterThan(decimal.Zero) {
			continue
		}

		group, ok := groupByCustomer[row.contract.CustomerID]
		if !ok {
			group = &overviewdomain.DebtorGroup{
				CustomerID:    row.contract.CustomerID,
				FullName:      row.customer.FullName,
				PhoneNumber:   row.customer.PhoneNumber,
				TotalPaid:     decimal.Zero,
				RemainingDebt: decimal.Zero,
			}
			groupByCustomer[row.contract.CustomerID] = group
			groups = append(groups, group)
		}

		debt := s.toDebt(row)
		group.Contracts = append(group.Contracts, debt)
		group.TotalPaid = group.TotalPaid.Add(debt.TotalPaid)
		group.RemainingDebt = group.RemainingDebt.Add(debt.RemainingDebt)
		if debt.DelayDays > group.DelayDays {
			group.DelayDays = debt.DelayDays
		}
	}

	// Worst customers first, longest delay first within a customer.
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].RemainingDebt.GreaterThan(groups[j].RemainingDebt)
	})
	out := make([]overviewdomain.DebtorGroup, 0, len(groups))
	for _, group := range groups {
		sort.SliceStable(group.Contracts, func(i, j int) bool {
			return group.Contracts[i].DelayDays > group.Contracts[j].DelayDays
		})
		out = append(out, *group)
	}
	return out, nil
}

func (s *Service) ListAllDebtors(ctx context.Context, managerID *snowflake.ID, asOf *time.Time) ([]overviewdomain.ContractDebt, error) {
	rows, err := s.loadActiveRows(ctx, managerID, s.asOfOrNow(asOf))
	if err != nil {
		return nil, err
	}

	debts := make([]overviewdomain.ContractDebt, 0, len(rows))
	for _, row := range rows {
		debts = append(debts, s.toDebt(row))
	}

	sort.SliceStable(debts, func(i, j int) bool {
		a, b := debts[i], debts[j]
		if a.NextPaymentStatus.Priority() != b.NextPaymentStatus.Priority() {
			return a.NextPaymentStatus.Priority() < b.NextPaymentStatus.Priority()
		}
		return a.DelayDays > b.DelayDays
	})
	return debts, nil
}

func (s *Service) ListUnpaidDebtors(ctx context.Context, managerID *snowflake.ID, asOf *time.Time) ([]overviewdomain.ContractDebt, error) {
	at := s.asOfOrNow(asOf)
	rows, err := s.loadActiveRows(ctx, managerID, at)
	if err != nil {
		return nil, err
	}

	loc := s.ledgerConfig().Location

	var debts []overviewdomain.ContractDebt
	for _, row := range rows {
		if row.contract.Status != contractdomain.ContractStatusActive {
			continue
		}
		if row.contract.NextPaymentDate == nil || row.view.DelayDays <= 0 {
			continue
		}
		if s.overdueSuppressed(row, at, loc) {
			continue
		}
		debts = append(debts, s.toDebt(row))
	}

	sort.SliceStable(debts, func(i, j int) bool {
		return debts[i].DelayDays > debts[j].DelayDays
	})
	return debts, nil
}

// overdueSuppressed hides a contract while its earliest overdue unpaid
// payment carries a reminder date still in the future.
func (s *Service) overdueSuppressed(row contractRow, asOf time.Time, loc *time.Location) bool {
	for _, p := range row.payments {
		if p.IsPaid() || p.Type != paymentdomain.PaymentTypeMonthly {
			continue
		}
		if p.DueDate.IsZero() || ledger.DaysBetween(p.DueDate, asOf, loc) <= 0 {
			continue
		}
		return ledger.ReminderSuppressed(p, asOf)
	}
	return false
}

func (s *Service) ListPaidDebtors(ctx context.Context, managerID *snowflake.ID) ([]overviewdomain.ContractDebt, error) {
	rows, err := s.loadActiveRows(ctx, managerID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	var debts []overviewdomain.ContractDebt
	for _, row := range rows {
		if row.view.NextPaymentStatus != ledger.StatusPaid {
			continue
		}
		debts = append(debts, s.toDebt(row))
	}

	sort.SliceStable(debts, func(i, j int) bool {
		return debts[i].FullName < debts[j].FullName
	})
	return debts, nil
}

func (s *Service) ListOverdueContracts(ctx context.Context, year int, month time.Month) ([]overviewdomain.ContractDebt, error) {
	if year < 2000 || month < time.January || month > time.December {
		return nil, overviewdomain.ErrInvalidMonth
	}

	asOf := s.clock.Now()
	rows, err := s.loadActiveRows(ctx, nil, asOf)
	if err != nil {
		return nil, err
	}

	cfg := s.ledgerConfig()
	loc := cfg.Location

	var debts []overviewdomain.ContractDebt
	for _, row := range rows {
		if row.contract.Status != contractdomain.ContractStatusActive {
			continue
		}
		if row.contract.StartDate.In(loc).After(time.Date(year, month+1, 1, 0, 0, 0, 0, loc)) {
			continue
		}
		if ledger.PaidWithinMonth(row.payments, year, month, loc) {
			continue
		}
		if !row.view.RemainingDebt.GreaterThan(decimal.Zero) {
			continue
		}

		due := ledger.VirtualDueDate(row.contract, year, month, loc)
		delay := ledger.DaysBetween(due, asOf, loc)
		if delay <= 0 {
			continue
		}

		debt := s.toDebt(row)
		debt.DelayDays = delay
		dueCopy := due
		debt.NextPaymentDate = &dueCopy
		debt.NextPaymentStatus = ledger.StatusOverdue
		debts = append(debts, debt)
	}

	sort.SliceStable(debts, func(i, j int) bool {
		return debts[i].DelayDays > debts[j].DelayDays
	})
	return debts, nil
}
