package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pitabwire/canonico/model"
)

// Notification texts shown by Exporter.
const (
	MsgNoData        = "There is no data to copy."
	MsgCopyFailed    = "Failed to copy JSON to clipboard."
	MsgCopySucceeded = "JSON copied to clipboard!"

	TitleValidation = "Validation"
	TitleError      = "Error"
	TitleSuccess    = "Success"
)

// ErrEmptyPayload is returned by Export when there is nothing to copy.
var ErrEmptyPayload = errors.New("metadata: empty export payload")

// Clipboard receives exported text.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// Notifier shows transient messages to the user.
type Notifier interface {
	Success(message, title string)
	Error(message, title string)
}

// ExportJSON renders v as 2-space indented JSON without HTML escaping and
// without a trailing newline.
func ExportJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("metadata: encoding export: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Exporter copies a form's JSON to the clipboard and reports the outcome
// through the notifier.
type Exporter struct {
	Clipboard Clipboard
	Notifier  Notifier
	Logger    *zap.Logger
}

// Export renders form and writes it to the clipboard. Empty payloads are
// rejected with ErrEmptyPayload before the clipboard is touched.
func (e *Exporter) Export(ctx context.Context, form any) error {
	if isEmptyPayload(form) {
		e.Notifier.Error(MsgNoData, TitleValidation)
		return ErrEmptyPayload
	}

	text, err := ExportJSON(form)
	if err != nil {
		e.logger().Error("export encoding failed", zap.Error(err))
		e.Notifier.Error(MsgCopyFailed, TitleError)
		return err
	}
	if isEmptyJSON(text) {
		e.Notifier.Error(MsgNoData, TitleValidation)
		return ErrEmptyPayload
	}

	if err := e.Clipboard.WriteText(ctx, text); err != nil {
		e.logger().Error("clipboard write failed", zap.Error(err))
		e.Notifier.Error(MsgCopyFailed, TitleError)
		return fmt.Errorf("metadata: writing clipboard: %w", err)
	}

	e.Notifier.Success(MsgCopySucceeded, TitleSuccess)
	return nil
}

func (e *Exporter) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func isEmptyJSON(text string) bool {
	switch strings.TrimSpace(text) {
	case "", "null", "{}", "[]", `""`:
		return true
	}
	return false
}

func isEmptyPayload(form any) bool {
	switch v := form.(type) {
	case nil:
		return true
	case *model.Canonico:
		return v == nil || v.IsZero()
	case interface{ IsZero() bool }:
		return v.IsZero()
	}
	return false
}
