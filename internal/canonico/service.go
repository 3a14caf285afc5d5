// Package canonico exposes the canonical collection as typed operations on
// top of the invoker.
package canonico

import (
	"context"
	"net/url"
	"strings"

	"github.com/pitabwire/canonico/internal/config"
	"github.com/pitabwire/canonico/internal/invoker"
	"github.com/pitabwire/canonico/model"
)

// Validator checks a record before it is sent to the backend.
type Validator interface {
	ValidateCanonico(rec model.Canonico) []model.FieldError
}

// Service performs CRUD and status transitions against the canonical
// collection. Every backend failure surfaces as *invoker.RequestError.
type Service struct {
	client    *invoker.Client
	baseURL   string
	validator Validator
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithValidator enables local schema validation before Create and Update.
func WithValidator(v Validator) ServiceOption {
	return func(s *Service) { s.validator = v }
}

// NewService creates a Service bound to baseURL. An empty baseURL selects
// the default collection; a trailing slash is ignored.
func NewService(client *invoker.Client, baseURL string, opts ...ServiceOption) *Service {
	if baseURL == "" {
		baseURL = config.DefaultBackendBaseURL
	}
	s := &Service{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BaseURL returns the collection URL requests are built from.
func (s *Service) BaseURL() string {
	return s.baseURL
}

// List returns every record in the collection.
func (s *Service) List(ctx context.Context) ([]model.Canonico, error) {
	return s.list(ctx, s.baseURL)
}

// ListByStatus returns the records whose status matches.
func (s *Service) ListByStatus(ctx context.Context, status model.Status) ([]model.Canonico, error) {
	q := url.Values{}
	q.Set("status_canonico", status.Code())
	return s.list(ctx, s.baseURL+"/?"+q.Encode())
}

func (s *Service) list(ctx context.Context, u string) ([]model.Canonico, error) {
	recs, err := invoker.Get[[]model.Canonico](ctx, s.client, u, nil)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []model.Canonico{}
	}
	return recs, nil
}

// Get fetches a single record by identifier.
func (s *Service) Get(ctx context.Context, id string) (model.Canonico, error) {
	return invoker.Get[model.Canonico](ctx, s.client, s.recordURL(id), nil)
}

// Create sends the full record to the collection and returns the stored
// representation.
func (s *Service) Create(ctx context.Context, rec model.Canonico) (model.Canonico, error) {
	if err := s.validate(rec); err != nil {
		return model.Canonico{}, err
	}
	return invoker.Post[model.Canonico](ctx, s.client, s.baseURL, rec, nil)
}

// Update replaces the record identified by rec.Name.
func (s *Service) Update(ctx context.Context, rec model.Canonico) (model.Canonico, error) {
	if err := s.validate(rec); err != nil {
		return model.Canonico{}, err
	}
	return invoker.Put[model.Canonico](ctx, s.client, s.recordURL(rec.Name), rec, nil)
}

// SetStatus patches only the status of the record identified by rec.Name.
// The version is left for the backend to manage.
func (s *Service) SetStatus(ctx context.Context, rec model.Canonico, status model.Status) (model.Canonico, error) {
	return invoker.Patch[model.Canonico](ctx, s.client, s.recordURL(rec.Name), model.StatusPatch{Status: status}, nil)
}

// Activate sets the record's status to active.
func (s *Service) Activate(ctx context.Context, rec model.Canonico) (model.Canonico, error) {
	return s.SetStatus(ctx, rec, model.StatusActive)
}

// Inactivate sets the record's status to inactive.
func (s *Service) Inactivate(ctx context.Context, rec model.Canonico) (model.Canonico, error) {
	return s.SetStatus(ctx, rec, model.StatusInactive)
}

func (s *Service) recordURL(id string) string {
	return s.baseURL + "/" + url.PathEscape(id)
}

func (s *Service) validate(rec model.Canonico) error {
	if s.validator == nil {
		return nil
	}
	if details := s.validator.ValidateCanonico(rec); len(details) > 0 {
		return model.NewValidationError(details)
	}
	return nil
}
