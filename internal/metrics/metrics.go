package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "baches",
		Subsystem: "api",
		Name:      "http_requests_total",
		Help:      "HTTP requests served by the dashboard API, labeled by route and status class.",
	}, []string{"route", "code"})

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "baches",
		Subsystem: "api",
		Name:      "http_request_duration_seconds",
		Help:      "Latency of dashboard API requests.",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"route"})

	// AuthAttemptsTotal counts login and register attempts by outcome.
	AuthAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "baches",
		Subsystem: "session",
		Name:      "auth_attempts_total",
		Help:      "Login and registration attempts, labeled by operation and result.",
	}, []string{"op", "result"})

	ReportsSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "baches",
		Subsystem: "reports",
		Name:      "submitted_total",
		Help:      "Reports accepted for storage, labeled by severity bucket.",
	}, []string{"severity"})

	RemoteErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "baches",
		Subsystem: "remote",
		Name:      "errors_total",
		Help:      "Failed calls to the hosted API, labeled by collection.",
	}, []string{"collection"})

	GeocodeLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "baches",
		Subsystem: "geocode",
		Name:      "lookups_total",
		Help:      "Reverse geocoding lookups, labeled by source (cache, upstream) and result.",
	}, []string{"source", "result"})

	TasksProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "baches",
		Subsystem: "worker",
		Name:      "tasks_processed_total",
		Help:      "Enrichment tasks handled by the worker, labeled by type and result.",
	}, []string{"type", "result"})
)

// Register registers collectors with the default registry. Safe to call
// multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			AuthAttemptsTotal,
			ReportsSubmittedTotal,
			RemoteErrorsTotal,
			GeocodeLookupsTotal,
			TasksProcessedTotal,
		)
	})
}

func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
