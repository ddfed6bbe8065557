package mw

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector holds the Prometheus registry and the instruments
// the API records into.
type MetricsCollector struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ScoreComputations   *prometheus.CounterVec
	WebhookDeliveries   *prometheus.CounterVec
}

// NewMetricsCollector creates a collector with its own registry.
func NewMetricsCollector() *MetricsCollector {
	reg := prometheus.NewRegistry()

	mc := &MetricsCollector{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "halcyon",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "halcyon",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		ScoreComputations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "halcyon",
			Name:      "score_computations_total",
			Help:      "Daily score computations by outcome",
		}, []string{"outcome"}),
		WebhookDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "halcyon",
			Name:      "device_webhook_deliveries_total",
			Help:      "Device vendor webhook deliveries by vendor and outcome",
		}, []string{"vendor", "outcome"}),
	}

	reg.MustRegister(mc.HTTPRequestsTotal)
	reg.MustRegister(mc.HTTPRequestDuration)
	reg.MustRegister(mc.ScoreComputations)
	reg.MustRegister(mc.WebhookDeliveries)

	return mc
}

// Handler returns an http.Handler serving the collector's registry.
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware instruments each request with a count and a latency
// observation. The routing pattern, not the raw URL, is used as the
// path label to keep cardinality bounded.
func (m *MetricsCollector) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					path = pattern
				}
			}
			m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}
