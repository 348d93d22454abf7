package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHTTPMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMetricsMiddleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/items/{id}", http.MethodGet, http.StatusText(http.StatusNoContent)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/items/{id}", http.MethodGet, http.StatusText(http.StatusNoContent)))
	assert.Equal(t, before+1, after)
}

func TestHTTPMetricsMiddleware_WithoutChi(t *testing.T) {
	rec := httptest.NewRecorder()
	mw := HTTPMetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) }))
	mw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRoutingMetricHelpers(t *testing.T) {
	InitMetrics()
	InitMetrics()

	before := testutil.ToFloat64(AIProviderFailuresTotal.WithLabelValues("groq", "rate_limited"))
	ProviderFailure("groq", "rate_limited")
	assert.Equal(t, before+1, testutil.ToFloat64(AIProviderFailuresTotal.WithLabelValues("groq", "rate_limited")))

	ObserveProviderCall("openai", "chat", 120*time.Millisecond)
	RouteOutcome("success", "openai", 2)
	UsageRecordFailed("postgres")
	KeyChecked("claude", "working", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(KeyChecksTotal.WithLabelValues("claude", "working", "true")))
}
