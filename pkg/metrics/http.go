package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP bundles the request-level collectors exposed on /metrics.
type HTTP struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTP registers the request collectors on a fresh registry.
func NewHTTP(serviceName string) *HTTP {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "gearshare",
		Subsystem:   "http",
		Name:        "requests_total",
		Help:        "HTTP requests processed, labeled by method, route and status.",
		ConstLabels: prometheus.Labels{"service": serviceName},
	}, []string{"method", "route", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   "gearshare",
		Subsystem:   "http",
		Name:        "request_duration_seconds",
		Help:        "HTTP request latency, labeled by method and route.",
		ConstLabels: prometheus.Labels{"service": serviceName},
		Buckets:     prometheus.DefBuckets,
	}, []string{"method", "route"})

	registry.MustRegister(requests, duration)

	return &HTTP{
		registry: registry,
		requests: requests,
		duration: duration,
	}
}

// Observe records one completed request.
func (h *HTTP) Observe(method, route string, status int, elapsed time.Duration) {
	if h == nil {
		return
	}
	h.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	h.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (h *HTTP) Handler() http.Handler {
	if h == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})
}
