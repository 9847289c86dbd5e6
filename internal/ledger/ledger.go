// Package ledger derives outstanding-debt figures for a contract from
// its payment history. All functions are pure: they take the contract,
// its payments and an evaluation time, and perform no I/O.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
	contractdomain "github.com/smallbiznis/paynest/internal/contract/domain"
	paymentdomain "github.com/smallbiznis/paynest/internal/payment/domain"
)

// NextPaymentStatus classifies a contract's standing against its next
// obligation.
type NextPaymentStatus string

const (
	StatusPending   NextPaymentStatus = "PENDING"
	StatusPaid      NextPaymentStatus = "PAID"
	StatusCompleted NextPaymentStatus = "COMPLETED"
	StatusOverdue   NextPaymentStatus = "OVERDUE"
	StatusToday     NextPaymentStatus = "TODAY"
	StatusUpcoming  NextPaymentStatus = "UPCOMING"
)

// Priority returns the sort rank of the status in debtor listings.
// Lower ranks list first. The order is a contract with the UI and must
// not change.
func (s NextPaymentStatus) Priority() int {
	switch s {
	case StatusPending:
		return 0
	case StatusPaid:
		return 1
	case StatusCompleted:
		return 2
	case StatusOverdue:
		return 3
	case StatusToday:
		return 4
	case StatusUpcoming:
		return 5
	default:
		return 6
	}
}

// Config carries the tuning knobs aggregation depends on.
type Config struct {
	// Location is the timezone day boundaries are evaluated in.
	Location *time.Location
	// RecentPaidWindowDays keeps a contract in the PAID status for this
	// many days after its last confirmed payment.
	RecentPaidWindowDays int
	// Tolerance below which a remaining balance counts as settled.
	Tolerance decimal.Decimal
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c Config) recentPaidWindow() int {
	if c.RecentPaidWindowDays <= 0 {
		return 30
	}
	return c.RecentPaidWindowDays
}

// View is the aggregated ledger state of one contract at a point in
// time. RemainingDebt does not subtract the prepaid balance; callers
// apply FinalRemainingDebt for the settled figure.
type View struct {
	TotalPaid         decimal.Decimal   `json:"total_paid"`
	RemainingDebt     decimal.Decimal   `json:"remaining_debt"`
	DelayDays         int               `json:"delay_days"`
	NextPaymentStatus NextPaymentStatus `json:"next_payment_status"`
	PaidMonthsCount   int               `json:"paid_months_count"`
	LastPaymentAt     *time.Time        `json:"last_payment_at,omitempty"`
}

// Compute aggregates the contract's payments as of the given time.
// It never fails: missing optional fields degrade to the neutral case.
func Compute(c contractdomain.Contract, payments []paymentdomain.Payment, asOf time.Time, cfg Config) View {
	loc := cfg.location()

	var view View
	view.TotalPaid = decimal.Zero
	hasPendingConfirmation := false

	for _, p := range payments {
		switch p.Status {
		case paymentdomain.PaymentStatusPaid:
			view.TotalPaid = view.TotalPaid.Add(p.PaidAmount())
			if p.Type == paymentdomain.PaymentTypeMonthly {
				view.PaidMonthsCount++
			}
			if p.PaidAt != nil && (view.LastPaymentAt == nil || p.PaidAt.After(*view.LastPaymentAt)) {
				paidAt := *p.PaidAt
				view.LastPaymentAt = &paidAt
			}
		case paymentdomain.PaymentStatusPending:
			hasPendingConfirmation = true
		}
	}

	view.RemainingDebt = c.EffectivePrice().Sub(view.TotalPaid)

	if c.NextPaymentDate != nil {
		view.DelayDays = DaysBetween(*c.NextPaymentDate, asOf, loc)
	}

	view.NextPaymentStatus = nextPaymentStatus(c, view, hasPendingConfirmation, asOf, cfg)
	return view
}

// The priority chain is a strict tie-break. Pending confirmation beats
// everything; a recent confirmed payment beats date arithmetic; a
// contract with no next date has nothing left to collect.
func nextPaymentStatus(c contractdomain.Contract, view View, hasPending bool, asOf time.Time, cfg Config) NextPaymentStatus {
	if hasPending {
		return StatusPending
	}
	if view.LastPaymentAt != nil {
		if DaysBetween(*view.LastPaymentAt, asOf, cfg.location()) <= cfg.recentPaidWindow() {
			return StatusPaid
		}
	}
	if c.NextPaymentDate == nil {
		return StatusCompleted
	}
	switch {
	case view.DelayDays > 0:
		return StatusOverdue
	case view.DelayDays == 0:
		return StatusToday
	default:
		return StatusUpcoming
	}
}

// FinalRemainingDebt subtracts the reconciled prepaid balance from the
// raw remaining debt.
func FinalRemainingDebt(view View, prepaidBalance decimal.Decimal) decimal.Decimal {
	return view.RemainingDebt.Sub(prepaidBalance)
}

// Settled reports whether the final remaining debt is within tolerance
// of zero, i.e. the contract counts as fully paid.
func Settled(finalRemainingDebt, tolerance decimal.Decimal) bool {
	return finalRemainingDebt.LessThanOrEqual(tolerance)
}

// DaysBetween returns the whole calendar days from a to b in the given
// location. Negative when b is before a.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	aMid := midnight(a, loc)
	bMid := midnight(b, loc)
	return int(bMid.Sub(aMid).Hours() / 24)
}

func midnight(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
