package model

import (
	"encoding/json"
	"strings"
	"testing"
)

const wireCanonico = `{
  "nome": "foo",
  "descricao": "bar",
  "versao": 3,
  "statusCanonico": "I",
  "tipoPosProcessamento": "merge",
  "topicos": ["t1", "t2"],
  "formatoChave": "{id}",
  "dependencias": ["base"],
  "chamadas": [
    {
      "ordem": 2,
      "nome": "second",
      "url": "http://svc/b",
      "descricao": "runs second",
      "parametros": [{"tipoDado": "string", "nome": "id", "tipo": "path"}]
    },
    {
      "ordem": 1,
      "nome": "first",
      "url": "http://svc/a",
      "descricao": "runs first",
      "parametros": []
    }
  ]
}`

func TestCanonico_decodesWireFormat(t *testing.T) {
	var c Canonico
	if err := json.Unmarshal([]byte(wireCanonico), &c); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	if c.Name != "foo" || c.Description != "bar" || c.Version != 3 {
		t.Errorf("identity fields = %q/%q/%d", c.Name, c.Description, c.Version)
	}
	if c.Status != StatusInactive {
		t.Errorf("Status = %v, want inactive", c.Status)
	}
	if len(c.Topics) != 2 || c.Topics[0] != "t1" {
		t.Errorf("Topics = %v", c.Topics)
	}
	if len(c.Calls) != 2 {
		t.Fatalf("len(Calls) = %d, want 2", len(c.Calls))
	}
	// Call order is preserved as received, not sorted by Order.
	if c.Calls[0].Order != 2 || c.Calls[1].Order != 1 {
		t.Errorf("call orders = %d,%d, want 2,1", c.Calls[0].Order, c.Calls[1].Order)
	}
	if c.Calls[0].Parameters[0].DataType != "string" {
		t.Errorf("Parameters[0].DataType = %q", c.Calls[0].Parameters[0].DataType)
	}
}

func TestCanonico_encodesWireKeys(t *testing.T) {
	c := Canonico{Name: "foo", Status: StatusActive, Version: 1}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"nome":"foo"`, `"statusCanonico":"A"`, `"versao":1`} {
		if !strings.Contains(s, want) {
			t.Errorf("encoded %s missing %s", s, want)
		}
	}
	if strings.Contains(s, "dependencias") {
		t.Errorf("encoded %s should omit nil dependencias", s)
	}
}

func TestCanonico_unsetStatusOmitted(t *testing.T) {
	data, err := json.Marshal(Canonico{Name: "foo"})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if strings.Contains(string(data), "statusCanonico") {
		t.Errorf("encoded %s should omit unset status", data)
	}
}

func TestCanonico_rejectsUnknownStatusCode(t *testing.T) {
	var c Canonico
	err := json.Unmarshal([]byte(`{"nome":"foo","statusCanonico":"X"}`), &c)
	if err == nil {
		t.Fatal("expected error for unknown status code")
	}
}

func TestCanonico_IsZero(t *testing.T) {
	if !(Canonico{}).IsZero() {
		t.Error("zero Canonico: IsZero() = false")
	}
	if (Canonico{Version: 1}).IsZero() {
		t.Error("Canonico with version: IsZero() = true")
	}
	if (Canonico{Topics: []string{"x"}}).IsZero() {
		t.Error("Canonico with topics: IsZero() = true")
	}
}

func TestStatusPatch_body(t *testing.T) {
	data, err := json.Marshal(StatusPatch{Status: StatusInactive})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(data) != `{"statusCanonico":"I"}` {
		t.Errorf("body = %s", data)
	}
}
