package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/pitabwire/canonico/internal/metadata"
	"github.com/pitabwire/canonico/internal/observability"
	"github.com/pitabwire/canonico/internal/schema"
	"github.com/pitabwire/canonico/model"
)

const maxBodyBytes = 1 << 20

// Operation names used for metrics and logs.
const (
	opPage      = "page"
	opList      = "list"
	opGet       = "get"
	opExport    = "export"
	opCreate    = "create"
	opUpdate    = "update"
	opSetStatus = "set_status"
)

type canonicoHandlers struct {
	svc     CanonicoService
	creator Creator
	pages   *metadata.PageProvider
	metrics *observability.Metrics
	logger  *zap.Logger
}

// page serves the list page: display rows plus column descriptors. The
// status filter defaults to active; "all" disables it.
func (h *canonicoHandlers) page(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status, err := pageStatus(r.URL.Query().Get("status"))
	if err != nil {
		WriteRequestError(w, r, err)
		return
	}

	page, err := h.pages.CanonicoPage(r.Context(), status)
	h.observe(r.Context(), opPage, start, err)
	if err != nil {
		WriteRequestError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

func (h *canonicoHandlers) list(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var (
		records []model.Canonico
		err     error
	)
	if q := r.URL.Query().Get("status"); q != "" {
		status, perr := model.ParseStatus(q)
		if perr != nil {
			WriteBadRequest(w, "status must be A or I")
			return
		}
		records, err = h.svc.ListByStatus(r.Context(), status)
	} else {
		records, err = h.svc.List(r.Context())
	}
	h.observe(r.Context(), opList, start, err)
	if err != nil {
		WriteRequestError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, records)
}

func (h *canonicoHandlers) get(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	h.observe(r.Context(), opGet, start, err)
	if err != nil {
		WriteRequestError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, rec)
}

// export returns the record as indented JSON text, ready to be copied.
func (h *canonicoHandlers) export(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err == nil && rec.IsZero() {
		err = model.NewNotFoundError(metadata.MsgNoData)
	}
	var text string
	if err == nil {
		text, err = metadata.ExportJSON(rec)
	}
	h.observe(r.Context(), opExport, start, err)
	if err != nil {
		WriteRequestError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, text)
}

func (h *canonicoHandlers) create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec, err := h.decodeRecord(r)
	if err != nil {
		WriteRequestError(w, r, err)
		return
	}

	out, replayed, err := h.creator.Create(r.Context(), r.Header.Get("X-Idempotency-Key"), rec)
	h.observe(r.Context(), opCreate, start, err)
	if err != nil {
		WriteRequestError(w, r, err)
		return
	}

	trace.SpanFromContext(r.Context()).SetAttributes(observability.AttrReplayed.Bool(replayed))
	if replayed {
		if h.metrics != nil {
			h.metrics.RecordIdempotentReplay()
		}
		observability.LoggerFrom(r.Context(), h.logger).Info("idempotent replay",
			zap.String("canonico", rec.Name),
		)
		w.Header().Set("X-Idempotent-Replayed", "true")
	}
	WriteJSON(w, http.StatusCreated, out)
}

// update replaces the record named in the path. A body without a name takes
// the path's; a different name is rejected.
func (h *canonicoHandlers) update(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec, err := h.decodeRecord(r)
	if err != nil {
		WriteRequestError(w, r, err)
		return
	}

	name := chi.URLParam(r, "id")
	switch rec.Name {
	case "":
		rec.Name = name
	case name:
	default:
		WriteBadRequest(w, "record name does not match path")
		return
	}

	out, err := h.svc.Update(r.Context(), rec)
	h.observe(r.Context(), opUpdate, start, err)
	if err != nil {
		WriteRequestError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

func (h *canonicoHandlers) patchStatus(w http.ResponseWriter, r *http.Request) {
	var patch model.StatusPatch
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&patch); err != nil {
		WriteBadRequest(w, "statusCanonico must be A or I")
		return
	}
	if !patch.Status.Valid() {
		WriteBadRequest(w, "statusCanonico is required")
		return
	}
	h.applyStatus(w, r, patch.Status)
}

func (h *canonicoHandlers) setStatus(status model.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.applyStatus(w, r, status)
	}
}

func (h *canonicoHandlers) applyStatus(w http.ResponseWriter, r *http.Request, status model.Status) {
	start := time.Now()
	name := chi.URLParam(r, "id")

	out, err := h.svc.SetStatus(r.Context(), model.Canonico{Name: name}, status)
	h.observe(r.Context(), opSetStatus, start, err)
	if err != nil {
		WriteRequestError(w, r, err)
		return
	}

	trace.SpanFromContext(r.Context()).SetAttributes(
		observability.AttrCanonicoName.String(name),
		observability.AttrStatus.String(status.Code()),
	)
	observability.LoggerFrom(r.Context(), h.logger).Info("status changed",
		zap.String("canonico", name),
		zap.String("status", status.Code()),
	)
	WriteJSON(w, http.StatusOK, out)
}

// decodeRecord reads a Canonico body. The redacted payload is logged at
// debug level.
func (h *canonicoHandlers) decodeRecord(r *http.Request) (model.Canonico, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return model.Canonico{}, model.NewBadRequestError("request body could not be read")
	}

	logger := observability.LoggerFrom(r.Context(), h.logger)
	if ce := logger.Check(zap.DebugLevel, "request payload"); ce != nil {
		var raw map[string]any
		if json.Unmarshal(data, &raw) == nil {
			ce.Write(zap.Any("body", observability.RedactBody(raw, nil)))
		}
	}

	var rec model.Canonico
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.Canonico{}, model.NewBadRequestError("invalid JSON body")
	}
	return rec, nil
}

// observe records the outcome of an operation.
func (h *canonicoHandlers) observe(ctx context.Context, op string, start time.Time, err error) {
	trace.SpanFromContext(ctx).SetAttributes(observability.AttrOperation.String(op))
	if h.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
		var ee *model.ErrorEnvelope
		if errors.As(err, &ee) && ee.Code == model.ErrValidationError {
			outcome = "invalid"
			h.metrics.RecordValidationFailure(op)
		}
	}
	h.metrics.RecordOperation(op, outcome, time.Since(start))
}

func pageStatus(q string) (model.Status, error) {
	switch strings.ToLower(q) {
	case "":
		return model.StatusActive, nil
	case "all":
		return model.StatusUnset, nil
	}
	status, err := model.ParseStatus(q)
	if err != nil {
		return model.StatusUnset, model.NewBadRequestError("status must be A, I or all")
	}
	return status, nil
}

func handleSchema(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(schema.Document())
}
