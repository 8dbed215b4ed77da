package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "moveflow_"

	resultSuccess = "success"
)

var (
	registerOnce sync.Once

	quoteRequests  *prometheus.CounterVec
	bookingsTotal  *prometheus.CounterVec
	ledgerAppends  *prometheus.CounterVec
	invoicesTotal  *prometheus.CounterVec
	invoiceAmounts *prometheus.HistogramVec

	autoInvoiceRuns    prometheus.Counter
	autoInvoiceResults *prometheus.CounterVec

	httpLatency *prometheus.HistogramVec
)

// Init registers the service metrics. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		quoteRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "quote_requests_total",
				Help: "Total quote computations by result",
			},
			[]string{"result"},
		)
		bookingsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "bookings_total",
				Help: "Total booking creations by result",
			},
			[]string{"result"},
		)
		ledgerAppends = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ledger_appends_total",
				Help: "Total service ledger appends by result",
			},
			[]string{"result"},
		)
		invoicesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "invoices_total",
				Help: "Total finalized invoices by path (manual or auto) and result",
			},
			[]string{"path", "result"},
		)
		invoiceAmounts = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "invoice_amount_sek",
				Help:    "Final invoice amounts in SEK after RUT deduction",
				Buckets: []float64{1000, 2500, 5000, 10000, 20000, 40000, 80000},
			},
			[]string{"path"},
		)

		autoInvoiceRuns = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "auto_invoice_runs_total",
				Help: "Total end-of-day auto-invoice sweeps",
			},
		)
		autoInvoiceResults = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "auto_invoice_jobs_total",
				Help: "Total jobs touched by the auto-invoice sweep by outcome",
			},
			[]string{"outcome"},
		)

		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency by route and status class",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "status"},
		)

		prometheus.MustRegister(
			quoteRequests,
			bookingsTotal,
			ledgerAppends,
			invoicesTotal,
			invoiceAmounts,
			autoInvoiceRuns,
			autoInvoiceResults,
			httpLatency,
		)
	})
}

// IncQuote counts one quote computation.
func IncQuote(result string) {
	if result == "" {
		result = resultSuccess
	}
	if quoteRequests != nil {
		quoteRequests.WithLabelValues(result).Inc()
	}
}

// IncBooking counts one booking creation.
func IncBooking(result string) {
	if result == "" {
		result = resultSuccess
	}
	if bookingsTotal != nil {
		bookingsTotal.WithLabelValues(result).Inc()
	}
}

// IncLedgerAppend counts one service ledger append.
func IncLedgerAppend(result string) {
	if result == "" {
		result = resultSuccess
	}
	if ledgerAppends != nil {
		ledgerAppends.WithLabelValues(result).Inc()
	}
}

// ObserveInvoice counts one invoice finalization and records its amount.
// path is "manual" or "auto".
func ObserveInvoice(path, result string, amountSEK int64) {
	if result == "" {
		result = resultSuccess
	}
	if invoicesTotal != nil {
		invoicesTotal.WithLabelValues(path, result).Inc()
	}
	if result == resultSuccess && invoiceAmounts != nil {
		invoiceAmounts.WithLabelValues(path).Observe(float64(amountSEK))
	}
}

// IncAutoInvoiceRun counts one sweep of the auto-invoice runner.
func IncAutoInvoiceRun() {
	if autoInvoiceRuns != nil {
		autoInvoiceRuns.Inc()
	}
}

// IncAutoInvoiceJob counts one job outcome within a sweep:
// "invoiced", "skipped" or "failed".
func IncAutoInvoiceJob(outcome string) {
	if autoInvoiceResults != nil {
		autoInvoiceResults.WithLabelValues(outcome).Inc()
	}
}

// ObserveHTTP records one handled HTTP request.
func ObserveHTTP(route, status string, duration time.Duration) {
	if httpLatency != nil {
		httpLatency.WithLabelValues(route, status).Observe(duration.Seconds())
	}
}
