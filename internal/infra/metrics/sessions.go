package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		sessionsCreatedTotal,
		sessionsExpiredTotal,
	)
}

var (
	sessionsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_sessions_created_total",
			Help: "Checkout sessions created by the submission path.",
		},
	)

	sessionsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_sessions_expired_total",
			Help: "Pending sessions transitioned to expired (sweep or opportunistic).",
		},
	)
)

func IncSessionCreated() {
	sessionsCreatedTotal.Inc()
}

func IncSessionsExpired(n int) {
	if n > 0 {
		sessionsExpiredTotal.Add(float64(n))
	}
}
