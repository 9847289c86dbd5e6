// Package telemetry exposes Prometheus observability primitives for the
// reconciliation core.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics holds the collectors for batch runs and payment flow.
type Metrics struct {
	materializerRuns     *prometheus.CounterVec
	materializerDebtors  *prometheus.CounterVec
	materializerFailures prometheus.Counter
	materializerDuration prometheus.Histogram
	paymentConfirmations *prometheus.CounterVec
	prepaidCredits       prometheus.Counter
	apiRequests          *prometheus.CounterVec
	apiDuration          *prometheus.HistogramVec
}

// Module wires metrics via Fx.
var Module = fx.Options(
	fx.Provide(NewMetrics),
)

// NewMetrics registers the collectors on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers and returns Prometheus metrics on reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	materializerRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paynest_materializer_runs_total",
		Help: "Counts materializer runs by outcome.",
	}, []string{"status"})

	materializerDebtors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paynest_materializer_debtors_total",
		Help: "Debtor records written by the materializer, by action.",
	}, []string{"action"})

	materializerFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "paynest_materializer_contract_failures_total",
		Help: "Contracts that failed during a materializer run.",
	})

	materializerDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "paynest_materializer_duration_seconds",
		Help:    "Materializer run durations.",
		Buckets: prometheus.DefBuckets,
	})

	paymentConfirmations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paynest_payment_confirmations_total",
		Help: "Payment confirmations by method.",
	}, []string{"method"})

	prepaidCredits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "paynest_prepaid_credits_total",
		Help: "Prepaid records appended by the reconciler.",
	})

	apiRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paynest_api_requests_total",
		Help: "Counts API requests by method and status.",
	}, []string{"method", "status"})

	apiDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "paynest_api_duration_seconds",
		Help:    "API request latency per method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	reg.MustRegister(
		materializerRuns,
		materializerDebtors,
		materializerFailures,
		materializerDuration,
		paymentConfirmations,
		prepaidCredits,
		apiRequests,
		apiDuration,
	)

	return &Metrics{
		materializerRuns:     materializerRuns,
		materializerDebtors:  materializerDebtors,
		materializerFailures: materializerFailures,
		materializerDuration: materializerDuration,
		paymentConfirmations: paymentConfirmations,
		prepaidCredits:       prepaidCredits,
		apiRequests:          apiRequests,
		apiDuration:          apiDuration,
	}
}

// ObserveMaterializerRun records one batch run outcome.
func (m *Metrics) ObserveMaterializerRun(status string, created, updated, failed int, duration time.Duration) {
	if m == nil {
		return
	}
	m.materializerRuns.WithLabelValues(status).Inc()
	m.materializerDebtors.WithLabelValues("created").Add(float64(created))
	m.materializerDebtors.WithLabelValues("updated").Add(float64(updated))
	m.materializerFailures.Add(float64(failed))
	m.materializerDuration.Observe(duration.Seconds())
}

// ObservePaymentConfirmation records a confirmed payment.
func (m *Metrics) ObservePaymentConfirmation(method string) {
	if m == nil {
		return
	}
	m.paymentConfirmations.WithLabelValues(method).Inc()
}

// ObservePrepaidCredit records an appended prepaid record.
func (m *Metrics) ObservePrepaidCredit() {
	if m == nil {
		return
	}
	m.prepaidCredits.Inc()
}

// ObserveAPIRequest records an API request and latency.
func (m *Metrics) ObserveAPIRequest(method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, status).Inc()
	m.apiDuration.WithLabelValues(method).Observe(duration.Seconds())
}
