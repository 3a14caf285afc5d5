package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pitabwire/canonico/internal/config"
	"github.com/pitabwire/canonico/internal/metadata"
	"github.com/pitabwire/canonico/model"
)

const appOrigin = "https://app.example.com"

// testDeps returns Dependencies backed by a stub service holding foo and baz.
func testDeps() Dependencies {
	cfg := config.Defaults()
	cfg.Server.CORS.AllowedOrigins = []string{appOrigin}
	cfg.Server.HandlerTimeout = 5 * time.Second
	svc := newStubService(fooRecord(), bazRecord())
	return Dependencies{
		Config:    cfg,
		Canonicos: svc,
		Creator:   &stubCreator{svc: svc},
		Pages:     metadata.NewPageProvider(svc),
	}
}

func rejectAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, model.NewUnauthorizedError("rejected"))
	})
}

// claimsAuth accepts every request as the given subject.
func claimsAuth(claims map[string]any) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// panickingService blows up on Get.
type panickingService struct {
	*stubService
}

func (panickingService) Get(context.Context, string) (model.Canonico, error) {
	panic("record store corrupted")
}

// recordingService captures the request context seen by List.
type recordingService struct {
	*stubService
	rctx        *model.RequestContext
	hasDeadline bool
}

func (s *recordingService) List(ctx context.Context) ([]model.Canonico, error) {
	s.rctx = model.RequestContextFrom(ctx)
	_, s.hasDeadline = ctx.Deadline()
	return s.stubService.List(ctx)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNewRouter_publicRoutes(t *testing.T) {
	deps := testDeps()
	deps.Config.Observability.Metrics.Enabled = false
	r := NewRouter(deps)

	tests := []struct {
		path string
		want int
	}{
		{"/ui/health", http.StatusOK},
		{"/ui/ready", http.StatusOK},
		{"/metrics", http.StatusNotFound},
	}
	for _, tt := range tests {
		w := serve(r, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.want, w.Code, tt.path)
	}
}

func TestNewRouter_canonicoRoutesRequireAuth(t *testing.T) {
	deps := testDeps()
	deps.Authenticate = rejectAuth
	r := NewRouter(deps)

	routes := []string{
		"GET /ui/schema",
		"GET /ui/pages/canonicos",
		"GET /ui/canonicos",
		"POST /ui/canonicos",
		"GET /ui/canonicos/foo",
		"GET /ui/canonicos/foo/export",
		"PUT /ui/canonicos/foo",
		"PATCH /ui/canonicos/foo",
		"POST /ui/canonicos/foo/activate",
		"POST /ui/canonicos/foo/inactivate",
	}
	for _, route := range routes {
		method, path, _ := strings.Cut(route, " ")
		w := serve(r, httptest.NewRequest(method, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, route)
	}

	for _, path := range []string{"/ui/health", "/ui/ready", "/metrics"} {
		w := serve(r, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestNewRouter_schema(t *testing.T) {
	w := serve(NewRouter(testDeps()), httptest.NewRequest(http.MethodGet, "/ui/schema", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi:")
}

func TestCanonicoRoutes_panicBecomesInternalError(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	deps := testDeps()
	deps.Logger = zap.New(core)
	deps.Canonicos = panickingService{newStubService()}
	r := NewRouter(deps)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ui/canonicos/foo", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), model.ErrInternalError)
	assert.NotContains(t, w.Body.String(), "corrupted")
	entries := logs.FilterMessage("panic recovered").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "/ui/canonicos/foo", entries[0].ContextMap()["path"])
}

func TestCanonicoRoutes_cors(t *testing.T) {
	r := NewRouter(testDeps())

	preflight := httptest.NewRequest(http.MethodOptions, "/ui/canonicos/foo/activate", nil)
	preflight.Header.Set("Origin", appOrigin)
	w := serve(r, preflight)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, appOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Idempotency-Key")
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Idempotent-Replayed")

	other := httptest.NewRequest(http.MethodGet, "/ui/canonicos", nil)
	other.Header.Set("Origin", "https://evil.example.com")
	w = serve(r, other)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCanonicoRoutes_correlationID(t *testing.T) {
	r := NewRouter(testDeps())

	tests := []struct {
		name    string
		inbound string
		path    string
		keep    bool
	}{
		{"generated", "", "/ui/canonicos", false},
		{"propagated", "corr-7", "/ui/canonicos/foo", true},
		{"propagated on backend error", "corr-8", "/ui/canonicos/missing", true},
		{"invalid replaced", "has space", "/ui/canonicos", false},
		{"oversized replaced", strings.Repeat("x", 200), "/ui/canonicos", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.inbound != "" {
				req.Header.Set("X-Correlation-Id", tt.inbound)
			}
			got := serve(r, req).Header().Get("X-Correlation-Id")
			if tt.keep {
				assert.Equal(t, tt.inbound, got)
			} else {
				assert.Len(t, got, 36)
			}
		})
	}
}

func TestCanonicoRoutes_securityHeaders(t *testing.T) {
	w := serve(NewRouter(testDeps()), httptest.NewRequest(http.MethodGet, "/ui/canonicos/foo/export", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestCanonicoRoutes_requestContext(t *testing.T) {
	svc := &recordingService{stubService: newStubService(fooRecord())}
	deps := testDeps()
	deps.Canonicos = svc
	deps.Authenticate = claimsAuth(map[string]any{
		"sub":   "user-42",
		"email": "user@example.com",
		"roles": []any{"admin", "viewer"},
	})
	r := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/ui/canonicos", nil)
	req.Header.Set("X-Correlation-Id", "corr-1")
	w := serve(r, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.rctx)
	assert.Equal(t, "user-42", svc.rctx.SubjectID)
	assert.Equal(t, "user@example.com", svc.rctx.Email)
	assert.True(t, svc.rctx.HasRole("viewer"))
	assert.Equal(t, "corr-1", svc.rctx.CorrelationID)
	assert.True(t, svc.hasDeadline, "handler timeout should bound the service call")
}

func TestCanonicoRoutes_requestLogLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	deps := testDeps()
	deps.Logger = zap.New(core)
	r := NewRouter(deps)

	for _, path := range []string{
		"/ui/canonicos",
		"/ui/canonicos?status=bogus",
		"/ui/canonicos/missing",
	} {
		serve(r, httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 3)
	want := []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		assert.Equal(t, want[i], e.Level, "entry %d", i)
		assert.Contains(t, e.ContextMap(), "correlation_id", "entry %d", i)
	}
}
