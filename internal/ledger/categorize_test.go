package ledger

import (
	"testing"
	"time"

	paymentdomain "github.com/smallbiznis/paynest/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize_Partition(t *testing.T) {
	asOf := day(2025, time.June, 10)

	payments := []paymentdomain.Payment{
		paid(100, day(2025, time.May, 1)),
		unpaid(100, day(2025, time.June, 1)),  // overdue
		unpaid(100, day(2025, time.June, 10)), // due today, not overdue
		unpaid(100, day(2025, time.July, 1)),  // upcoming
		{Status: paymentdomain.PaymentStatusPending, Amount: dec(100), DueDate: day(2025, time.June, 5)},
	}

	out := Categorize(payments, asOf, time.UTC)

	// Paid payments never appear; every unpaid one appears exactly once.
	total := len(out.Overdue) + len(out.Pending) + len(out.Normal)
	assert.Equal(t, 4, total)
	assert.Len(t, out.Overdue, 1)
	assert.Len(t, out.Pending, 1)
	assert.Len(t, out.Normal, 2)

	assert.Equal(t, 9, out.Overdue[0].OverdueDays)
}

func TestCategorize_OverdueSort(t *testing.T) {
	asOf := day(2025, time.June, 30)

	payments := []paymentdomain.Payment{
		unpaid(50, day(2025, time.June, 20)),  // 10 days
		unpaid(100, day(2025, time.June, 1)),  // 29 days
		unpaid(300, day(2025, time.June, 20)), // 10 days, bigger amount
	}

	out := Categorize(payments, asOf, time.UTC)
	require.Len(t, out.Overdue, 3)

	assert.Equal(t, 29, out.Overdue[0].OverdueDays)
	assert.Equal(t, 10, out.Overdue[1].OverdueDays)
	assert.True(t, out.Overdue[1].Payment.Amount.Equal(dec(300)), "amount desc breaks the tie")
	assert.True(t, out.Overdue[2].Payment.Amount.Equal(dec(50)))
}

func TestCategorize_PendingSortsByDueDateDesc(t *testing.T) {
	asOf := day(2025, time.June, 30)

	pending := func(due time.Time) paymentdomain.Payment {
		return paymentdomain.Payment{Status: paymentdomain.PaymentStatusPending, Amount: dec(100), DueDate: due}
	}

	out := Categorize([]paymentdomain.Payment{
		pending(day(2025, time.June, 1)),
		pending(day(2025, time.June, 20)),
		pending(day(2025, time.June, 10)),
	}, asOf, time.UTC)

	require.Len(t, out.Pending, 3)
	assert.Equal(t, day(2025, time.June, 20), out.Pending[0].Payment.DueDate)
	assert.Equal(t, day(2025, time.June, 10), out.Pending[1].Payment.DueDate)
	assert.Equal(t, day(2025, time.June, 1), out.Pending[2].Payment.DueDate)
}

func TestCategorize_NormalSortsDueAscUndatedLast(t *testing.T) {
	asOf := day(2025, time.June, 1)

	undated := paymentdomain.Payment{Status: paymentdomain.PaymentStatusUnpaid, Amount: dec(500)}

	out := Categorize([]paymentdomain.Payment{
		unpaid(100, day(2025, time.August, 1)),
		undated,
		unpaid(200, day(2025, time.July, 1)),
		unpaid(400, day(2025, time.July, 1)),
	}, asOf, time.UTC)

	require.Len(t, out.Normal, 4)
	assert.Equal(t, day(2025, time.July, 1), out.Normal[0].Payment.DueDate)
	assert.True(t, out.Normal[0].Payment.Amount.Equal(dec(400)), "same date sorts amount desc")
	assert.True(t, out.Normal[1].Payment.Amount.Equal(dec(200)))
	assert.Equal(t, day(2025, time.August, 1), out.Normal[2].Payment.DueDate)
	assert.True(t, out.Normal[3].Payment.DueDate.IsZero(), "undated lands last")
}

func TestCategorize_PendingNeverOverdue(t *testing.T) {
	asOf := day(2025, time.June, 30)

	// A pending payment with a long-past due date stays in the pending
	// bucket; it is waiting on the manager, not on the customer.
	p := paymentdomain.Payment{
		Status:  paymentdomain.PaymentStatusPending,
		Amount:  dec(100),
		DueDate: day(2025, time.January, 1),
	}

	out := Categorize([]paymentdomain.Payment{p}, asOf, time.UTC)
	assert.Empty(t, out.Overdue)
	assert.Len(t, out.Pending, 1)
	assert.Equal(t, 0, out.Pending[0].OverdueDays)
}
