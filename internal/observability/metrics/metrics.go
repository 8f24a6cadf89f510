package metrics

import (
	"database/sql"
	"log"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "agroalert_"

	RunCompleted = "completed"
	RunLocked    = "locked"
	RunError     = "error"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	evaluationRuns     *prometheus.CounterVec
	evaluationDuration prometheus.Histogram

	notificationsCreated *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	seedRuns *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		evaluationRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "evaluation_runs_total",
				Help: "Total evaluation runs by result",
			},
			[]string{"result"},
		)
		evaluationDuration = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "evaluation_duration_seconds",
				Help:    "Evaluation run duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		)
		notificationsCreated = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notifications_created_total",
				Help: "Notifications created by action kind",
			},
			[]string{"action"},
		)
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "HTTP requests by method and status class",
			},
			[]string{"method", "class"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_latency_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		)
		seedRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "seed_runs_total",
				Help: "Seed runs by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			evaluationRuns,
			evaluationDuration,
			notificationsCreated,
			httpRequests,
			httpLatency,
			seedRuns,
		)

		registerDBMetrics(db, logger)
	})
}

// IncEvaluationRun records a run outcome.
func IncEvaluationRun(result string) {
	if evaluationRuns == nil {
		return
	}
	evaluationRuns.WithLabelValues(result).Inc()
}

// ObserveEvaluationDuration records run duration in seconds.
func ObserveEvaluationDuration(seconds float64) {
	if evaluationDuration == nil {
		return
	}
	evaluationDuration.Observe(seconds)
}

// IncNotificationCreated records a created notification by action kind.
func IncNotificationCreated(action string) {
	if notificationsCreated == nil {
		return
	}
	notificationsCreated.WithLabelValues(action).Inc()
}

// IncHTTPRequest records a served request.
func IncHTTPRequest(method, class string) {
	if httpRequests == nil {
		return
	}
	httpRequests.WithLabelValues(method, class).Inc()
}

// ObserveHTTPLatency records request latency in seconds.
func ObserveHTTPLatency(method string, seconds float64) {
	if httpLatency == nil {
		return
	}
	httpLatency.WithLabelValues(method).Observe(seconds)
}

// IncSeedRun records a seed outcome.
func IncSeedRun(err error) {
	if seedRuns == nil {
		return
	}
	if err != nil {
		seedRuns.WithLabelValues(resultError).Inc()
		return
	}
	seedRuns.WithLabelValues(resultSuccess).Inc()
}
