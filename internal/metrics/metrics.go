package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline outcome counters, labeled by terminal outcome kind
	// (forwarded, duplicate, validation_error, relay_rejected,
	// relay_transport_failure, ledger_unavailable).
	SalesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversion_relay_sales_total",
			Help: "Total number of sale submissions by terminal outcome",
		},
		[]string{"outcome"},
	)

	RelayDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "conversion_relay_relay_duration_seconds",
			Help:    "Duration of outbound relay calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	LedgerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversion_relay_ledger_errors_total",
			Help: "Total number of ledger storage errors",
		},
	)
)
