package model

import (
	"encoding/json"
	"testing"
)

func TestStatus_codesAndLabels(t *testing.T) {
	tests := []struct {
		status Status
		code   string
		label  string
		str    string
	}{
		{StatusActive, "A", "Active", "active"},
		{StatusInactive, "I", "Inactive", "inactive"},
		{StatusUnset, "", "", "unset"},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			if got := tt.status.Code(); got != tt.code {
				t.Errorf("Code() = %q, want %q", got, tt.code)
			}
			if got := tt.status.Label(); got != tt.label {
				t.Errorf("Label() = %q, want %q", got, tt.label)
			}
			if got := tt.status.String(); got != tt.str {
				t.Errorf("String() = %q, want %q", got, tt.str)
			}
		})
	}
}

func TestStatusFromCode(t *testing.T) {
	if s, err := StatusFromCode("A"); err != nil || s != StatusActive {
		t.Errorf("StatusFromCode(A) = %v, %v", s, err)
	}
	if s, err := StatusFromCode("I"); err != nil || s != StatusInactive {
		t.Errorf("StatusFromCode(I) = %v, %v", s, err)
	}
	for _, code := range []string{"", "a", "active", "X"} {
		if _, err := StatusFromCode(code); err == nil {
			t.Errorf("StatusFromCode(%q) should fail", code)
		}
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"A", StatusActive, false},
		{"a", StatusActive, false},
		{"Active", StatusActive, false},
		{" inactive ", StatusInactive, false},
		{"I", StatusInactive, false},
		{"all", StatusUnset, true},
		{"", StatusUnset, true},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStatus(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStatus(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStatus_MarshalJSON_unsetFails(t *testing.T) {
	if _, err := json.Marshal(StatusUnset); err == nil {
		t.Error("Marshal(StatusUnset) should fail")
	}
}

func TestStatus_UnmarshalJSON_nonString(t *testing.T) {
	var s Status
	if err := json.Unmarshal([]byte(`1`), &s); err == nil {
		t.Error("Unmarshal(1) should fail")
	}
}

func TestStatus_UnmarshalJSON_nullLeavesUnset(t *testing.T) {
	s := StatusActive
	if err := json.Unmarshal([]byte(`null`), &s); err != nil {
		t.Fatalf("Unmarshal(null) error: %v", err)
	}
	if s != StatusUnset {
		t.Errorf("status = %v, want unset", s)
	}

	var c Canonico
	if err := json.Unmarshal([]byte(`{"nome":"draft","statusCanonico":null}`), &c); err != nil {
		t.Fatalf("Unmarshal record error: %v", err)
	}
	if c.Status != StatusUnset {
		t.Errorf("record status = %v, want unset", c.Status)
	}
}
