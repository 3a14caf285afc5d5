// Package schema validates canonical records against the embedded OpenAPI
// description of the collection.
package schema

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/pitabwire/canonico/model"
)

//go:embed canonico.yaml
var document []byte

// Field error codes.
const (
	CodeRequired     = "REQUIRED"
	CodeInvalidValue = "INVALID_VALUE"
	CodeInvalidType  = "INVALID_TYPE"
	CodeInvalid      = "INVALID"
)

// Validator checks records against the Canonico component schema.
type Validator struct {
	doc    *openapi3.T
	record *openapi3.Schema
}

// Load parses and validates the embedded document.
func Load(ctx context.Context) (*Validator, error) {
	return LoadData(ctx, document)
}

// LoadData parses an OpenAPI document that must define a Canonico schema.
func LoadData(ctx context.Context, data []byte) (*Validator, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("schema: loading document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("schema: validating document: %w", err)
	}

	ref, ok := doc.Components.Schemas["Canonico"]
	if !ok || ref.Value == nil {
		return nil, errors.New("schema: document has no Canonico schema")
	}
	return &Validator{doc: doc, record: ref.Value}, nil
}

// Document returns the embedded OpenAPI document as YAML.
func Document() []byte {
	return document
}

// OperationIDs returns the operation identifiers described by the document, sorted.
func (v *Validator) OperationIDs() []string {
	var ids []string
	for _, item := range v.doc.Paths.Map() {
		for _, op := range item.Operations() {
			if op.OperationID != "" {
				ids = append(ids, op.OperationID)
			}
		}
	}
	sort.Strings(ids)
	return ids
}

// HealthCheck always succeeds once the document has loaded.
func (v *Validator) HealthCheck(context.Context) error {
	if v == nil || v.record == nil {
		return errors.New("schema: not loaded")
	}
	return nil
}

// ValidateCanonico returns one FieldError per schema violation, ordered by
// field path. A valid record yields nil.
func (v *Validator) ValidateCanonico(rec model.Canonico) []model.FieldError {
	raw, err := json.Marshal(rec)
	if err != nil {
		return []model.FieldError{{Field: "statusCanonico", Code: CodeInvalidValue, Message: err.Error()}}
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return []model.FieldError{{Code: CodeInvalid, Message: err.Error()}}
	}

	err = v.record.VisitJSON(value, openapi3.MultiErrors())
	if err == nil {
		return nil
	}

	var details []model.FieldError
	for _, e := range flatten(err) {
		details = append(details, toFieldError(e))
	}
	sort.SliceStable(details, func(i, j int) bool { return details[i].Field < details[j].Field })
	return details
}

func flatten(err error) []error {
	var me openapi3.MultiError
	if errors.As(err, &me) {
		var out []error
		for _, e := range me {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}

func toFieldError(err error) model.FieldError {
	var se *openapi3.SchemaError
	if !errors.As(err, &se) {
		return model.FieldError{Code: CodeInvalid, Message: err.Error()}
	}

	fe := model.FieldError{
		Field:   strings.Join(se.JSONPointer(), "."),
		Message: se.Reason,
	}
	switch se.SchemaField {
	case "required":
		fe.Code = CodeRequired
	case "enum", "minLength", "minimum":
		fe.Code = CodeInvalidValue
	case "type", "nullable":
		fe.Code = CodeInvalidType
	default:
		fe.Code = CodeInvalid
	}
	return fe
}
