// Package transport contains the HTTP router, middleware chain, and request
// handlers the admin UI talks to.
package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pitabwire/canonico/internal/invoker"
	"github.com/pitabwire/canonico/internal/observability"
	"github.com/pitabwire/canonico/model"
)

// statusForCode maps ErrorEnvelope codes to HTTP status codes.
var statusForCode = map[string]int{
	model.ErrBadRequest:           http.StatusBadRequest,
	model.ErrUnauthorized:         http.StatusUnauthorized,
	model.ErrNotFound:             http.StatusNotFound,
	model.ErrConflict:             http.StatusConflict,
	model.ErrValidationError:      http.StatusUnprocessableEntity,
	model.ErrInternalError:        http.StatusInternalServerError,
	model.ErrBackendRequestFailed: http.StatusBadGateway,
	model.ErrBackendUnavailable:   http.StatusServiceUnavailable,
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// WriteError writes err as a JSON error envelope with the matching HTTP
// status. Backend request failures keep only their per-verb message; any
// other non-envelope error becomes a generic 500.
func WriteError(w http.ResponseWriter, err error) {
	writeEnvelope(w, envelopeFor(err))
}

// WriteRequestError is WriteError with the request's trace ID attached to
// the envelope.
func WriteRequestError(w http.ResponseWriter, r *http.Request, err error) {
	ee := *envelopeFor(err)
	ee.TraceID = observability.TraceIDFromContext(r.Context())
	writeEnvelope(w, &ee)
}

func writeEnvelope(w http.ResponseWriter, ee *model.ErrorEnvelope) {
	status := statusForCode[ee.Code]
	if status == 0 {
		status = http.StatusInternalServerError
	}

	type errorResponse struct {
		Error *model.ErrorEnvelope `json:"error"`
	}
	WriteJSON(w, status, errorResponse{Error: ee})
}

// envelopeFor converts err to the envelope sent to the client.
func envelopeFor(err error) *model.ErrorEnvelope {
	var ee *model.ErrorEnvelope
	if errors.As(err, &ee) {
		return ee
	}
	var re *invoker.RequestError
	if errors.As(err, &re) {
		return model.NewBackendRequestError(re.Error())
	}
	return model.NewInternalError()
}

// WriteNotFound writes a 404 error response.
func WriteNotFound(w http.ResponseWriter, msg string) {
	WriteError(w, model.NewNotFoundError(msg))
}

// WriteBadRequest writes a 400 error response.
func WriteBadRequest(w http.ResponseWriter, msg string) {
	WriteError(w, model.NewBadRequestError(msg))
}
