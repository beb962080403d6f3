package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// ClusterRuns counts clustering runs by heuristic, init policy, and
	// outcome ("ok", "invalid_input", "internal_error").
	ClusterRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cluster_runs_total", Help: "Clustering runs by heuristic, init policy, and outcome."},
		[]string{"heuristic", "init", "outcome"},
	)
	// ClusterRunDuration records wall-clock construction time in seconds.
	ClusterRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "cluster_run_duration_seconds", Help: "Clustering construction duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"heuristic"},
	)
	// ClusterEdgesCost observes the edges_cost of each successful run.
	ClusterEdgesCost = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "cluster_edges_cost", Help: "Total edges_cost of successful clustering runs.", Buckets: prometheus.ExponentialBuckets(1, 4, 12)},
		[]string{"heuristic"},
	)
	// ClusterUnassignedJobs observes how many jobs a run left unassigned.
	ClusterUnassignedJobs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "cluster_unassigned_jobs", Help: "Unassigned job count of successful clustering runs.", Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100}},
		[]string{"heuristic"},
	)

	// WebhookDeliveries counts webhook delivery outcomes by event type and status.
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook deliveries by event type and status."},
		[]string{"event_type", "status"},
	)
	// WebhookLatency tracks webhook delivery latencies in milliseconds.
	WebhookLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "webhook_delivery_latency_ms", Help: "Webhook delivery latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
		[]string{"event_type", "status"},
	)
)

// RegisterDefault registers every collector against Registry, once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(ClusterRuns)
		Registry.MustRegister(ClusterRunDuration)
		Registry.MustRegister(ClusterEdgesCost)
		Registry.MustRegister(ClusterUnassignedJobs)
		Registry.MustRegister(WebhookDeliveries)
		Registry.MustRegister(WebhookLatency)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
