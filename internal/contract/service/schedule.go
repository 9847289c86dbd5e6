package service

import (
	"time"

	"github.com/shopspring/decimal"
	contractdomain "github.com/smallbiznis/paynest/internal/contract/domain"
	"github.com/smallbiznis/paynest/internal/ledger"
	paymentdomain "github.com/smallbiznis/paynest/internal/payment/domain"
)

// generateSchedule builds the payment rows for a new contract: one
// already-confirmed initial payment when a down payment was taken, then
// one monthly obligation per period anchored to the contract's payment
// day. Months shorter than the anchor day clamp to their last day.
func (s *Service) generateSchedule(c *contractdomain.Contract) []paymentdomain.Payment {
	loc := s.collections.Get().Location()
	now := s.clock.Now()

	var schedule []paymentdomain.Payment

	if c.InitialPayment.GreaterThan(decimal.Zero) {
		paidAt := c.StartDate
		schedule = append(schedule, paymentdomain.Payment{
			ID:         s.genID.Generate(),
			ContractID: c.ID,
			Type:       paymentdomain.PaymentTypeInitial,
			Status:     paymentdomain.PaymentStatusPaid,
			Amount:     c.InitialPayment,
			DueDate:    c.StartDate,
			PaidAt:     &paidAt,
			ManagerID:  c.ManagerID,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	start := c.StartDate.In(loc)
	for i := 1; i <= c.Months; i++ {
		year, month := start.Year(), start.Month()
		month += time.Month(i)
		due := ledger.VirtualDueDate(*c, year, month, loc)
		schedule = append(schedule, paymentdomain.Payment{
			ID:         s.genID.Generate(),
			ContractID: c.ID,
			Type:       paymentdomain.PaymentTypeMonthly,
			Status:     paymentdomain.PaymentStatusUnpaid,
			Amount:     c.MonthlyPayment,
			DueDate:    due,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	return schedule
}
