package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(notificationsTotal)
}

var notificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Confirmation notification attempts by result (sent/failed).",
	},
	[]string{"result"},
)

func IncNotification(result string) {
	notificationsTotal.WithLabelValues(norm(result)).Inc()
}
