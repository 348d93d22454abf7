package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by provider and operation",
		},
		[]string{"provider", "operation"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 25},
		},
		[]string{"provider", "operation"},
	)
	AIProviderFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_provider_failures_total",
			Help: "Classified provider failures by provider and kind",
		},
		[]string{"provider", "kind"},
	)

	RouteOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_outcomes_total",
			Help: "Terminal routing outcomes",
		},
		[]string{"outcome", "provider"},
	)
	RouteAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "route_attempts",
			Help:    "Number of provider attempts per routed request",
			Buckets: []float64{1, 2, 3, 4},
		},
	)

	UsageRecordFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usage_record_failures_total",
			Help: "Usage notifications that failed to reach a sink",
		},
		[]string{"sink"},
	)
	KeyChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "key_checks_total",
			Help: "Key probe results by provider and status",
		},
		[]string{"provider", "status", "cached"},
	)
)

var initOnce sync.Once

// InitMetrics registers all collectors with the default registry. Safe to call more than once.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			AIRequestsTotal,
			AIRequestDuration,
			AIProviderFailuresTotal,
			RouteOutcomesTotal,
			RouteAttempts,
			UsageRecordFailuresTotal,
			KeyChecksTotal,
		)
	})
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(dur)
	})
}

// ObserveProviderCall records one outbound provider request.
func ObserveProviderCall(provider, op string, d time.Duration) {
	AIRequestsTotal.WithLabelValues(provider, op).Inc()
	AIRequestDuration.WithLabelValues(provider, op).Observe(d.Seconds())
}

// ProviderFailure counts a classified provider failure.
func ProviderFailure(provider, kind string) {
	AIProviderFailuresTotal.WithLabelValues(provider, kind).Inc()
}

// RouteOutcome records how a routing invocation ended and after how many attempts.
func RouteOutcome(outcome, provider string, attempts int) {
	RouteOutcomesTotal.WithLabelValues(outcome, provider).Inc()
	if attempts > 0 {
		RouteAttempts.Observe(float64(attempts))
	}
}

// UsageRecordFailed counts a usage sink failure.
func UsageRecordFailed(sink string) {
	UsageRecordFailuresTotal.WithLabelValues(sink).Inc()
}

// KeyChecked counts a key probe result.
func KeyChecked(provider, status string, cached bool) {
	KeyChecksTotal.WithLabelValues(provider, status, strconv.FormatBool(cached)).Inc()
}
