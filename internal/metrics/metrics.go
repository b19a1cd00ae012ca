// Package metrics defines the Prometheus instrumentation surface for
// the daemon: queue depth, job outcomes, and probe latency by mode.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	QueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bitrated",
		Name:      "queue_depth",
		Help:      "Current number of jobs by queue state.",
	}, []string{"state"})

	JobsStartedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bitrated",
		Name:      "jobs_started_total",
		Help:      "Total number of analysis jobs started, by kind.",
	}, []string{"kind"})

	JobsCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bitrated",
		Name:      "jobs_completed_total",
		Help:      "Total number of analysis jobs completed, by kind.",
	}, []string{"kind"})

	JobsFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bitrated",
		Name:      "jobs_failed_total",
		Help:      "Total number of analysis jobs that returned an error, by kind and error class.",
	}, []string{"kind", "reason"})

	JobsCancelledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bitrated",
		Name:      "jobs_cancelled_total",
		Help:      "Total number of analysis jobs cancelled before completion.",
	}, []string{"kind"})

	ProbeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bitrated",
		Name:      "probe_duration_seconds",
		Help:      "Duration of probe subprocess invocations by mode.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"mode"})

	ProbeCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bitrated",
		Name:      "probe_cache_hits_total",
		Help:      "Total number of probe cache lookups served from a still-valid entry.",
	})

	ProbeCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bitrated",
		Name:      "probe_cache_misses_total",
		Help:      "Total number of probe cache lookups that required a fresh probe.",
	})

	SamplingUsedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bitrated",
		Name:      "sampling_used_total",
		Help:      "Total number of whole-file analyses that used sampled rather than full probing.",
	})

	MuxRemoveDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "bitrated",
		Name:      "muxremove_duration_seconds",
		Help:      "Duration of stream-removal mux invocations in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bitrated",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bitrated",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.3, 0.5, 1, 2, 5},
	}, []string{"method", "route"})

	SSEClientsConnected = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bitrated",
		Name:      "sse_clients_connected",
		Help:      "Current number of connected SSE clients by stream name.",
	}, []string{"stream"})
)

// Register attaches every collector in this package to reg. Called once
// from cmd/bitrated's wiring with a prometheus.Registry, mirroring the
// teacher's single-entry-point registration style.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		QueueDepth,
		JobsStartedTotal,
		JobsCompletedTotal,
		JobsFailedTotal,
		JobsCancelledTotal,
		ProbeDuration,
		ProbeCacheHitsTotal,
		ProbeCacheMissesTotal,
		SamplingUsedTotal,
		MuxRemoveDuration,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		SSEClientsConnected,
	)
}
