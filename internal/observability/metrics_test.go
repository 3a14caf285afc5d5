package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return InitMetrics(reg), reg
}

func TestInitMetrics_registersAllMetrics(t *testing.T) {
	m, reg := newTestMetrics(t)

	// Vectors only appear in Gather once a label set has been observed.
	m.RecordHTTPRequest("GET", "/ui/canonicos", 200, time.Millisecond, 10)
	m.RecordOperation("create", "success", time.Millisecond)
	m.RecordValidationFailure("create")
	m.RecordBackendRequest("GET", "200", time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	for _, name := range []string{
		"canonico_http_requests_total",
		"canonico_http_request_duration_seconds",
		"canonico_http_response_size_bytes",
		"canonico_operations_total",
		"canonico_operation_duration_seconds",
		"canonico_validation_failures_total",
		"canonico_idempotent_replays_total",
		"canonico_backend_requests_total",
		"canonico_backend_request_duration_seconds",
		"canonico_backend_circuit_breaker_state",
	} {
		if !names[name] {
			t.Errorf("metric %q not registered", name)
		}
	}
}

func TestRecordBackendRequest(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordBackendRequest("GET", "200", 10*time.Millisecond)
	m.RecordBackendRequest("GET", "200", 20*time.Millisecond)
	m.RecordBackendRequest("PATCH", "error", time.Millisecond)

	if got := testutil.ToFloat64(m.BackendRequestsTotal.WithLabelValues("GET", "200")); got != 2 {
		t.Errorf("GET 200 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.BackendRequestsTotal.WithLabelValues("PATCH", "error")); got != 1 {
		t.Errorf("PATCH error = %v, want 1", got)
	}
}

func TestRecordOperation(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordOperation("activate", "success", time.Millisecond)
	m.RecordOperation("activate", "error", time.Millisecond)
	m.RecordOperation("activate", "success", time.Millisecond)

	if got := testutil.ToFloat64(m.OperationsTotal.WithLabelValues("activate", "success")); got != 2 {
		t.Errorf("activate success = %v, want 2", got)
	}
}

func TestSetBreakerState(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.SetBreakerState(1)
	if got := testutil.ToFloat64(m.BackendCircuitBreakerState); got != 1 {
		t.Errorf("breaker state = %v, want 1", got)
	}
}

func TestRecordIdempotentReplay(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordIdempotentReplay()
	if got := testutil.ToFloat64(m.IdempotentReplays); got != 1 {
		t.Errorf("replays = %v, want 1", got)
	}
}

func TestMetricsMiddleware_usesRoutePattern(t *testing.T) {
	m, _ := newTestMetrics(t)

	r := chi.NewRouter()
	r.Use(m.MetricsMiddleware)
	r.Get("/ui/canonicos/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"nome":"foo"}`))
	})

	for _, id := range []string{"foo", "bar", "baz"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ui/canonicos/"+id, nil))
	}

	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/ui/canonicos/{id}", "200"))
	if got != 3 {
		t.Errorf("requests for pattern = %v, want 3", got)
	}
}

func TestRoutePattern_fallsBackToPath(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/unrouted", nil)
	if got := routePattern(req); got != "/unrouted" {
		t.Errorf("routePattern = %q, want /unrouted", got)
	}
}
