package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tutordesk"

var (
	goalOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "goal_operations_total",
		Help:      "Goal store operations by name and result.",
	}, []string{"operation", "result"})

	persistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "goal_persist_failures_total",
		Help:      "Goal state saves that failed and were skipped.",
	})

	goals = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "goals",
		Help:      "Goals currently held by the store, by status.",
	}, []string{"status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "status"})
)

// ObserveOperation counts a store operation; err == nil counts as ok.
func ObserveOperation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	goalOperations.WithLabelValues(operation, result).Inc()
}

func PersistFailed() {
	persistFailures.Inc()
}

func SetGoalCounts(active, suspended, completed int) {
	goals.WithLabelValues("active").Set(float64(active))
	goals.WithLabelValues("suspended").Set(float64(suspended))
	goals.WithLabelValues("completed").Set(float64(completed))
}

func ObserveRequest(method string, status int, d time.Duration) {
	httpDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
