package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cvrpcluster/internal/metrics"
)

// MetricsHandler serves the Prometheus registry in the standard exposition format.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})
}
