package transport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pitabwire/canonico/internal/config"
	"github.com/pitabwire/canonico/internal/metadata"
	"github.com/pitabwire/canonico/internal/observability"
	"github.com/pitabwire/canonico/model"
)

// CanonicoService is the backend surface the handlers call.
type CanonicoService interface {
	List(ctx context.Context) ([]model.Canonico, error)
	ListByStatus(ctx context.Context, status model.Status) ([]model.Canonico, error)
	Get(ctx context.Context, id string) (model.Canonico, error)
	Update(ctx context.Context, rec model.Canonico) (model.Canonico, error)
	SetStatus(ctx context.Context, rec model.Canonico, status model.Status) (model.Canonico, error)
}

// Creator creates records, replaying earlier results for a reused
// idempotency key.
type Creator interface {
	Create(ctx context.Context, key string, rec model.Canonico) (out model.Canonico, replayed bool, err error)
}

// Dependencies holds all injected dependencies for the HTTP transport layer.
type Dependencies struct {
	Config       *config.Config
	Logger       *zap.Logger
	Authenticate func(http.Handler) http.Handler
	Canonicos    CanonicoService
	Creator      Creator
	Pages        *metadata.PageProvider
	Metrics      *observability.Metrics
	Readiness    observability.ReadinessChecks
}

// NewRouter creates a chi.Router with the full middleware pipeline and all
// route registrations. Health, readiness, and metrics endpoints bypass the
// authentication middleware.
func NewRouter(deps Dependencies) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Global middleware: applied to all routes including health.
	r.Use(Recovery(logger))
	r.Use(CORS(deps.Config.Server.CORS))
	r.Use(RequestID)
	r.Use(SecurityHeaders)

	// Public routes.
	r.Get("/ui/health", observability.HandleHealth())
	r.Get("/ui/ready", observability.HandleReady(deps.Readiness))
	if deps.Config.Observability.Metrics.Enabled {
		path := deps.Config.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, observability.Handler())
	}

	auth := deps.Authenticate
	if auth == nil {
		auth = func(next http.Handler) http.Handler { return next }
	}

	h := &canonicoHandlers{
		svc:     deps.Canonicos,
		creator: deps.Creator,
		pages:   deps.Pages,
		metrics: deps.Metrics,
		logger:  logger,
	}

	r.Group(func(r chi.Router) {
		r.Use(observability.TracingMiddleware)
		r.Use(auth)
		r.Use(BuildRequestContext)
		r.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))
		r.Use(RequestLogging(logger))
		if deps.Metrics != nil {
			r.Use(deps.Metrics.MetricsMiddleware)
		}

		r.Get("/ui/schema", handleSchema)
		r.Get("/ui/pages/canonicos", h.page)

		r.Route("/ui/canonicos", func(r chi.Router) {
			r.Get("/", h.list)
			r.Post("/", h.create)
			r.Get("/{id}", h.get)
			r.Get("/{id}/export", h.export)
			r.Put("/{id}", h.update)
			r.Patch("/{id}", h.patchStatus)
			r.Post("/{id}/activate", h.setStatus(model.StatusActive))
			r.Post("/{id}/inactivate", h.setStatus(model.StatusInactive))
		})
	})

	return r
}
