package ledger

import (
	"time"

	contractdomain "github.com/smallbiznis/paynest/internal/contract/domain"
	paymentdomain "github.com/smallbiznis/paynest/internal/payment/domain"
)

// VirtualDueDate reconstructs the due date for a target month from the
// contract's anchor day, clamped to the month's length. Used for
// month-scoped historical debtor queries where no payment row carries
// the date directly.
func VirtualDueDate(c contractdomain.Contract, year int, month time.Month, loc *time.Location) time.Time {
	day := c.AnchorDay()
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// PaidWithinMonth reports whether any confirmed payment falls inside
// the target month. Contracts with such a payment are excluded from
// that month's debtor listing.
func PaidWithinMonth(payments []paymentdomain.Payment, year int, month time.Month, loc *time.Location) bool {
	for _, p := range payments {
		if !p.IsPaid() || p.PaidAt == nil {
			continue
		}
		local := p.PaidAt.In(loc)
		if local.Year() == year && local.Month() == month {
			return true
		}
	}
	return false
}

// ReminderSuppressed reports whether the payment should be hidden from
// unpaid-debtor listings because a reminder date is still in the
// future. It reappears once the reminder elapses.
func ReminderSuppressed(p paymentdomain.Payment, asOf time.Time) bool {
	return p.ReminderDate != nil && p.ReminderDate.After(asOf)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
