package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	PurchasesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_portal_purchases_recorded_total",
			Help: "Number of purchases recorded, by payment method",
		},
		[]string{"payment_method"},
	)

	LedgerAdjustments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_portal_ledger_adjustments_total",
			Help: "Number of session counter writes, by session type and kind",
		},
		[]string{"session_type", "kind"},
	)

	LedgerConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coach_portal_ledger_conflicts_total",
			Help: "Number of session counter writes rejected by the version check",
		},
	)

	PaymentConfirmations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_portal_payment_confirmations_total",
			Help: "Checkout success callbacks, by result",
		},
		[]string{"result"},
	)

	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_portal_events_published_total",
			Help: "Purchase events handed to sinks, by sink and result",
		},
		[]string{"sink", "result"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "coach_portal_http_request_duration_seconds",
			Help: "Time taken to serve HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
)

func Register() {
	prometheus.MustRegister(
		PurchasesRecorded,
		LedgerAdjustments,
		LedgerConflicts,
		PaymentConfirmations,
		EventsPublished,
		RequestDuration,
	)
}
