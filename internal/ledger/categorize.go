package ledger

import (
	"sort"
	"time"

	paymentdomain "github.com/smallbiznis/paynest/internal/payment/domain"
)

// Obligation is one unpaid schedule entry annotated for presentation.
type Obligation struct {
	Payment     paymentdomain.Payment `json:"payment"`
	OverdueDays int                   `json:"overdue_days"`
}

// CategorizedDebts partitions a customer's unpaid obligations into
// three disjoint buckets. Paid payments never appear.
type CategorizedDebts struct {
	Overdue []Obligation `json:"overdue"`
	Pending []Obligation `json:"pending"`
	Normal  []Obligation `json:"normal"`
}

// Categorize partitions unpaid payments as of the given time. Every
// unpaid payment lands in exactly one bucket. The sort orders are a
// presentation contract:
//
//	overdue: overdue days desc, then amount desc
//	pending: due date desc
//	normal:  due date asc with undated last, then amount desc
func Categorize(payments []paymentdomain.Payment, asOf time.Time, loc *time.Location) CategorizedDebts {
	if loc == nil {
		loc = time.UTC
	}

	var out CategorizedDebts
	for _, p := range payments {
		if p.IsPaid() {
			continue
		}

		switch {
		case p.Status == paymentdomain.PaymentStatusPending:
			out.Pending = append(out.Pending, Obligation{Payment: p})
		case !p.DueDate.IsZero() && DaysBetween(p.DueDate, asOf, loc) > 0:
			out.Overdue = append(out.Overdue, Obligation{
				Payment:     p,
				OverdueDays: DaysBetween(p.DueDate, asOf, loc),
			})
		default:
			out.Normal = append(out.Normal, Obligation{Payment: p})
		}
	}

	sort.SliceStable(out.Overdue, func(i, j int) bool {
		a, b := out.Overdue[i], out.Overdue[j]
		if a.OverdueDays != b.OverdueDays {
			return a.OverdueDays > b.OverdueDays
		}
		return a.Payment.Amount.GreaterThan(b.Payment.Amount)
	})

	sort.SliceStable(out.Pending, func(i, j int) bool {
		return out.Pending[i].Payment.DueDate.After(out.Pending[j].Payment.DueDate)
	})

	sort.SliceStable(out.Normal, func(i, j int) bool {
		a, b := out.Normal[i], out.Normal[j]
		aUndated, bUndated := a.Payment.DueDate.IsZero(), b.Payment.DueDate.IsZero()
		if aUndated != bUndated {
			return bUndated
		}
		if !aUndated && !a.Payment.DueDate.Equal(b.Payment.DueDate) {
			return a.Payment.DueDate.Before(b.Payment.DueDate)
		}
		return a.Payment.Amount.GreaterThan(b.Payment.Amount)
	})

	return out
}
