package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		reconciliationsTotal,
		reconcileLatencyMs,
	)
}

var (
	reconciliationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciliations_total",
			Help: "Reconcile outcomes (completed/already_processed/failed).",
		},
		[]string{"outcome"},
	)

	reconcileLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reconcile_latency_ms",
			Help:    "Reconcile call latency distribution in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600, 3000},
		},
	)
)

func IncReconciliation(outcome string) {
	reconciliationsTotal.WithLabelValues(norm(outcome)).Inc()
}

func ObserveReconcileLatency(ms float64) {
	reconcileLatencyMs.Observe(ms)
}
