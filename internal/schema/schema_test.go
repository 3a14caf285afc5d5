package schema

import (
	"context"
	"testing"

	"github.com/pitabwire/canonico/model"
)

func loadValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return v
}

func validRecord() model.Canonico {
	return model.Canonico{
		Name:        "foo",
		Description: "bar",
		Version:     3,
		Status:      model.StatusActive,
		Topics:      []string{"t1"},
		Calls: []model.Call{
			{Order: 1, Name: "lookup", URL: "http://svc/lookup", Parameters: []model.Parameter{
				{DataType: "string", Name: "id", Type: "path"},
			}},
		},
	}
}

func TestLoad_embeddedDocument(t *testing.T) {
	v := loadValidator(t)

	want := []string{"createCanonico", "getCanonico", "listCanonicos", "patchCanonicoStatus", "updateCanonico"}
	got := v.OperationIDs()
	if len(got) != len(want) {
		t.Fatalf("OperationIDs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("OperationIDs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if err := v.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() = %v", err)
	}
	if len(Document()) == 0 {
		t.Error("Document() should return the embedded YAML")
	}
}

func TestLoadData_missingCanonicoSchema(t *testing.T) {
	doc := []byte(`openapi: "3.0.3"
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    Other: {type: object}
`)
	if _, err := LoadData(context.Background(), doc); err == nil {
		t.Fatal("expected error when Canonico schema is missing")
	}
}

func TestLoadData_invalidDocument(t *testing.T) {
	if _, err := LoadData(context.Background(), []byte("not: [valid")); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestValidateCanonico_valid(t *testing.T) {
	v := loadValidator(t)
	if details := v.ValidateCanonico(validRecord()); details != nil {
		t.Errorf("ValidateCanonico() = %+v, want nil", details)
	}
}

func TestValidateCanonico_nilSlicesAllowed(t *testing.T) {
	v := loadValidator(t)
	rec := model.Canonico{Name: "foo", Status: model.StatusInactive}
	if details := v.ValidateCanonico(rec); details != nil {
		t.Errorf("ValidateCanonico() = %+v, want nil", details)
	}
}

func TestValidateCanonico_violations(t *testing.T) {
	v := loadValidator(t)

	tests := []struct {
		name   string
		mutate func(*model.Canonico)
		field  string
		code   string
	}{
		{"empty name", func(c *model.Canonico) { c.Name = "" }, "nome", CodeInvalidValue},
		{"unset status", func(c *model.Canonico) { c.Status = model.StatusUnset }, "statusCanonico", CodeRequired},
		{"negative version", func(c *model.Canonico) { c.Version = -1 }, "versao", CodeInvalidValue},
		{"call without url", func(c *model.Canonico) { c.Calls[0].URL = "" }, "chamadas.0.url", CodeInvalidValue},
		{"parameter without name", func(c *model.Canonico) { c.Calls[0].Parameters[0].Name = "" }, "chamadas.0.parametros.0.nome", CodeInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(&rec)

			details := v.ValidateCanonico(rec)
			if len(details) != 1 {
				t.Fatalf("details = %+v, want exactly 1", details)
			}
			if details[0].Field != tt.field {
				t.Errorf("Field = %q, want %q", details[0].Field, tt.field)
			}
			if details[0].Code != tt.code {
				t.Errorf("Code = %q, want %q", details[0].Code, tt.code)
			}
			if details[0].Message == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}

func TestValidateCanonico_multipleViolationsSorted(t *testing.T) {
	v := loadValidator(t)

	details := v.ValidateCanonico(model.Canonico{Version: -2})
	if len(details) != 3 {
		t.Fatalf("details = %+v, want 3", details)
	}
	for i := 1; i < len(details); i++ {
		if details[i-1].Field > details[i].Field {
			t.Errorf("details not sorted: %q before %q", details[i-1].Field, details[i].Field)
		}
	}
}

func TestValidateCanonico_invalidStatusValue(t *testing.T) {
	v := loadValidator(t)
	rec := validRecord()
	rec.Status = model.Status(9)

	details := v.ValidateCanonico(rec)
	if len(details) != 1 || details[0].Field != "statusCanonico" {
		t.Errorf("details = %+v, want one statusCanonico error", details)
	}
}
