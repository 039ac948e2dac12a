package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(workerRunsTotal) }

var workerRunsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "worker_runs_total",
		Help: "Background worker passes, labeled by worker and result.",
	},
	[]string{"worker", "result"}, // 'ok', 'error'
)

func IncWorkerRun(worker, result string) {
	workerRunsTotal.WithLabelValues(norm(worker), norm(result)).Inc()
}
