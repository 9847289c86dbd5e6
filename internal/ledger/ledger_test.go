package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	contractdomain "github.com/smallbiznis/paynest/internal/contract/domain"
	paymentdomain "github.com/smallbiznis/paynest/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func paid(amount int64, paidAt time.Time) paymentdomain.Payment {
	return paymentdomain.Payment{
		Type:    paymentdomain.PaymentTypeMonthly,
		Status:  paymentdomain.PaymentStatusPaid,
		Amount:  dec(amount),
		DueDate: paidAt,
		PaidAt:  &paidAt,
	}
}

func unpaid(amount int64, due time.Time) paymentdomain.Payment {
	return paymentdomain.Payment{
		Type:    paymentdomain.PaymentTypeMonthly,
		Status:  paymentdomain.PaymentStatusUnpaid,
		Amount:  dec(amount),
		DueDate: due,
	}
}

func TestCompute_TotalsAndRemaining(t *testing.T) {
	// Contract for 1200 with 300 confirmed and prepaid balance 50.
	contract := contractdomain.Contract{
		Price:     dec(1200),
		StartDate: day(2025, time.January, 5),
	}

	payments := []paymentdomain.Payment{
		paid(200, day(2025, time.January, 5)),
		paid(100, day(2025, time.February, 5)),
		unpaid(100, day(2025, time.March, 5)),
	}

	asOf := day(2025, time.March, 1)
	view := Compute(contract, payments, asOf, Config{})

	assert.True(t, view.TotalPaid.Equal(dec(300)), "total paid = %s", view.TotalPaid)
	assert.True(t, view.RemainingDebt.Equal(dec(900)), "remaining = %s", view.RemainingDebt)

	final := FinalRemainingDebt(view, dec(50))
	assert.True(t, final.Equal(dec(850)), "final = %s", final)
	assert.False(t, Settled(final, decimal.Zero))
}

func TestCompute_ConservationHoldsUnderAnyHistory(t *testing.T) {
	// remaining + paid must always equal the effective price,
	// regardless of how many payments exist or their amounts.
	contract := contractdomain.Contract{Price: dec(5000)}
	contract.TotalPrice = decimal.NewNullDecimal(dec(5400))

	payments := []paymentdomain.Payment{
		paid(137, day(2025, time.January, 3)),
		paid(902, day(2025, time.February, 14)),
		unpaid(100, day(2025, time.March, 5)),
		{Status: paymentdomain.PaymentStatusPending, Amount: dec(250)},
	}

	view := Compute(contract, payments, day(2025, time.March, 20), Config{})
	sum := view.RemainingDebt.Add(view.TotalPaid)
	assert.True(t, sum.Equal(contract.EffectivePrice()), "remaining+paid = %s", sum)
}

func TestCompute_ActualAmountOverridesScheduled(t *testing.T) {
	paidAt := day(2025, time.April, 10)
	p := paymentdomain.Payment{
		Type:         paymentdomain.PaymentTypeMonthly,
		Status:       paymentdomain.PaymentStatusPaid,
		Amount:       dec(100),
		ActualAmount: decimal.NewNullDecimal(dec(130)),
		PaidAt:       &paidAt,
	}

	contract := contractdomain.Contract{Price: dec(1000)}
	view := Compute(contract, []paymentdomain.Payment{p}, paidAt, Config{})

	assert.True(t, view.TotalPaid.Equal(dec(130)))
	assert.True(t, view.RemainingDebt.Equal(dec(870)))
}

func TestCompute_PaidMonthsCountsOnlyMonthly(t *testing.T) {
	paidAt := day(2025, time.January, 5)
	initial := paymentdomain.Payment{
		Type:   paymentdomain.PaymentTypeInitial,
		Status: paymentdomain.PaymentStatusPaid,
		Amount: dec(200),
		PaidAt: &paidAt,
	}

	view := Compute(contractdomain.Contract{Price: dec(1200)}, []paymentdomain.Payment{
		initial,
		paid(100, day(2025, time.February, 5)),
		paid(100, day(2025, time.March, 5)),
	}, day(2025, time.March, 6), Config{})

	assert.Equal(t, 2, view.PaidMonthsCount)
	assert.True(t, view.TotalPaid.Equal(dec(400)))
}

func TestNextPaymentStatus_PendingBeatsEverything(t *testing.T) {
	next := day(2025, time.June, 1)
	contract := contractdomain.Contract{Price: dec(1000), NextPaymentDate: &next}

	// Recent confirmed payment would normally put the contract in PAID,
	// but an unconfirmed customer report takes precedence.
	payments := []paymentdomain.Payment{
		paid(100, day(2025, time.May, 28)),
		{Status: paymentdomain.PaymentStatusPending, Amount: dec(100)},
	}

	view := Compute(contract, payments, day(2025, time.May, 30), Config{})
	assert.Equal(t, StatusPending, view.NextPaymentStatus)
}

func TestNextPaymentStatus_RecentPaidWindow(t *testing.T) {
	next := day(2025, time.March, 1)
	contract := contractdomain.Contract{Price: dec(1000), NextPaymentDate: &next}
	payments := []paymentdomain.Payment{paid(100, day(2025, time.February, 1))}

	cfg := Config{RecentPaidWindowDays: 30}

	// 28 days after the last payment: still inside the window even though
	// the next due date has already passed.
	view := Compute(contract, payments, day(2025, time.March, 1), cfg)
	assert.Equal(t, StatusPaid, view.NextPaymentStatus)

	// 40 days after: window elapsed, date arithmetic takes over.
	view = Compute(contract, payments, day(2025, time.March, 13), cfg)
	assert.Equal(t, StatusOverdue, view.NextPaymentStatus)
	assert.Equal(t, 12, view.DelayDays)
}

func TestNextPaymentStatus_NoNextDateIsCompleted(t *testing.T) {
	contract := contractdomain.Contract{Price: dec(1000)}
	payments := []paymentdomain.Payment{paid(1000, day(2025, time.January, 1))}

	view := Compute(contract, payments, day(2025, time.June, 1), Config{})
	assert.Equal(t, StatusCompleted, view.NextPaymentStatus)
	assert.True(t, view.RemainingDebt.IsZero())
}

func TestNextPaymentStatus_TodayAndUpcoming(t *testing.T) {
	next := day(2025, time.July, 15)
	contract := contractdomain.Contract{Price: dec(1000), NextPaymentDate: &next}

	view := Compute(contract, nil, day(2025, time.July, 15), Config{})
	assert.Equal(t, StatusToday, view.NextPaymentStatus)
	assert.Equal(t, 0, view.DelayDays)

	view = Compute(contract, nil, day(2025, time.July, 10), Config{})
	assert.Equal(t, StatusUpcoming, view.NextPaymentStatus)
	assert.Equal(t, -5, view.DelayDays)
}

func TestNextPaymentStatus_DelayGrowsMonotonically(t *testing.T) {
	next := day(2025, time.May, 1)
	contract := contractdomain.Contract{Price: dec(1000), NextPaymentDate: &next}

	prev := -100
	for d := 0; d < 10; d++ {
		asOf := next.AddDate(0, 0, d)
		view := Compute(contract, nil, asOf, Config{})
		require.Greater(t, view.DelayDays, prev)
		prev = view.DelayDays
	}
}

func TestPriorityOrderingIsStrict(t *testing.T) {
	order := []NextPaymentStatus{
		StatusPending, StatusPaid, StatusCompleted,
		StatusOverdue, StatusToday, StatusUpcoming,
	}
	for i := 1; i < len(order); i++ {
		assert.Less(t, order[i-1].Priority(), order[i].Priority(),
			"%s must rank before %s", order[i-1], order[i])
	}
}

func TestSettled_Tolerance(t *testing.T) {
	tol := decimal.NewFromFloat(0.01)

	assert.True(t, Settled(decimal.Zero, tol))
	assert.True(t, Settled(decimal.NewFromFloat(0.01), tol))
	assert.True(t, Settled(dec(-30), tol), "overpayment settles")
	assert.False(t, Settled(decimal.NewFromFloat(0.02), tol))
}

func TestDaysBetween(t *testing.T) {
	loc := time.UTC

	assert.Equal(t, 0, DaysBetween(day(2025, time.May, 1), day(2025, time.May, 1), loc))
	assert.Equal(t, 1, DaysBetween(day(2025, time.May, 1), day(2025, time.May, 2), loc))
	assert.Equal(t, -3, DaysBetween(day(2025, time.May, 4), day(2025, time.May, 1), loc))

	// Time-of-day never changes the count: 23:59 to 00:01 the next day is
	// still one calendar day.
	a := time.Date(2025, time.May, 1, 23, 59, 0, 0, loc)
	b := time.Date(2025, time.May, 2, 0, 1, 0, 0, loc)
	assert.Equal(t, 1, DaysBetween(a, b, loc))
}

func TestDaysBetween_LocationBoundary(t *testing.T) {
	tashkent := time.FixedZone("UZT", 5*60*60)

	// 22:00 UTC on May 1 is already May 2 03:00 in UTC+5.
	a := time.Date(2025, time.May, 1, 22, 0, 0, 0, time.UTC)
	b := time.Date(2025, time.May, 2, 22, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, DaysBetween(a, b, time.UTC))
	assert.Equal(t, 1, DaysBetween(a, b, tashkent))

	c := time.Date(2025, time.May, 2, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysBetween(a, c, time.UTC))
	assert.Equal(t, 0, DaysBetween(a, c, tashkent), "both are May 2 in UTC+5")
}
