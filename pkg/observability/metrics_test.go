package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// TestMetricsRegistered verifies that all metrics are registered in the
// default registry.
func TestMetricsRegistered(t *testing.T) {
	expected := map[string]bool{
		"groovycheck_service_requests_total":           false,
		"groovycheck_service_request_duration_seconds": false,
		"groovycheck_service_jobs_in_flight":           false,
		"groovycheck_service_jobs_total":               false,
		"groovycheck_service_auth_rejected_total":      false,
		"groovycheck_client_requests_total":            false,
		"groovycheck_client_request_duration_seconds":  false,
	}

	// Vectors only appear after the first observation.
	RequestsTotal.WithLabelValues("GET", "2xx", "test").Inc()
	RequestDuration.WithLabelValues("GET", "test").Observe(0.1)
	JobsTotal.WithLabelValues("COMPLETED").Inc()
	AuthRejectedTotal.WithLabelValues("test").Inc()
	ClientRequestsTotal.WithLabelValues("submit", "200").Inc()
	ClientRequestDuration.WithLabelValues("submit").Observe(0.1)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("unexpected gather error: %v", err)
	}

	for _, mf := range families {
		if _, ok := expected[mf.GetName()]; ok {
			expected[mf.GetName()] = true
		}
	}

	for name, found := range expected {
		if !found {
			t.Errorf("metric %q not found in default registry", name)
		}
	}
}

// TestMiddlewareRecordsRouteTemplate verifies that the route label comes from
// the matched gorilla/mux route template, not the raw path.
func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	before := counterValue(t, RequestsTotal, "GET", "2xx", "/items/{id}")

	r := mux.NewRouter()
	r.Use(MetricsMiddleware)
	r.HandleFunc("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/items/42", nil))

	after := counterValue(t, RequestsTotal, "GET", "2xx", "/items/{id}")
	if after-before != 1 {
		t.Errorf("expected request count to increase by 1, got delta=%f", after-before)
	}
}

// TestMiddlewareUnknownRoute verifies the fallback label when used outside a router.
func TestMiddlewareUnknownRoute(t *testing.T) {
	before := counterValue(t, RequestsTotal, "POST", "4xx", "unknown")

	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/groovy/submit", nil))

	after := counterValue(t, RequestsTotal, "POST", "4xx", "unknown")
	if after-before != 1 {
		t.Errorf("expected 4xx count to increase by 1, got delta=%f", after-before)
	}
}

// TestMiddlewareRecordsDuration verifies that the middleware records
// a request duration observation.
func TestMiddlewareRecordsDuration(t *testing.T) {
	before := histogramCount(t, RequestDuration, "GET", "unknown")

	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
		w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	after := histogramCount(t, RequestDuration, "GET", "unknown")
	if after-before != 1 {
		t.Errorf("expected histogram sample count to increase by 1, got delta=%d", after-before)
	}
}

// TestStatusWriterFirstHeaderWins verifies that only the first status code is kept.
func TestStatusWriterFirstHeaderWins(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec, status: http.StatusOK}

	sw.WriteHeader(http.StatusNotFound)
	sw.WriteHeader(http.StatusInternalServerError)

	if sw.status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", sw.status)
	}
}

// counterValue reads the current value of a CounterVec for the given labels.
func counterValue(t *testing.T, cv *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	c, err := cv.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("getting counter metric: %v", err)
	}
	if err := c.(prometheus.Metric).Write(m); err != nil {
		t.Fatalf("writing counter metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

// histogramCount reads the observation count from a HistogramVec.
func histogramCount(t *testing.T, hv *prometheus.HistogramVec, labels ...string) uint64 {
	t.Helper()
	m := &dto.Metric{}
	obs, err := hv.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("getting histogram metric: %v", err)
	}
	if err := obs.(prometheus.Metric).Write(m); err != nil {
		t.Fatalf("writing histogram metric: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}
