package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObservePaymentConfirmation(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry())

	m.ObservePaymentConfirmation("dollar")
	m.ObservePaymentConfirmation("dollar")
	m.ObservePaymentConfirmation("card")

	if got := testutil.ToFloat64(m.paymentConfirmations.WithLabelValues("dollar")); got != 2 {
		t.Fatalf("expected 2 dollar confirmations, got %v", got)
	}
	if got := testutil.ToFloat64(m.paymentConfirmations.WithLabelValues("card")); got != 1 {
		t.Fatalf("expected 1 card confirmation, got %v", got)
	}
}

func TestObservePrepaidCredit(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry())

	m.ObservePrepaidCredit()
	m.ObservePrepaidCredit()

	if got := testutil.ToFloat64(m.prepaidCredits); got != 2 {
		t.Fatalf("expected 2 prepaid credits, got %v", got)
	}
}

func TestNilMetricsNoOp(t *testing.T) {
	var m *Metrics

	m.ObserveMaterializerRun("success", 1, 2, 0, time.Second)
	m.ObservePaymentConfirmation("sum")
	m.ObservePrepaidCredit()
	m.ObserveAPIRequest("GET /v1/debtors", "200", time.Millisecond)
}
