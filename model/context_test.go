package model

import (
	"context"
	"testing"
)

func TestRequestContext_HasRole(t *testing.T) {
	rc := &RequestContext{Roles: []string{"admin", "editor"}}

	if !rc.HasRole("admin") {
		t.Error("HasRole(admin) = false, want true")
	}
	if rc.HasRole("viewer") {
		t.Error("HasRole(viewer) = true, want false")
	}
}

func TestRequestContext_Claim(t *testing.T) {
	rc := &RequestContext{Claims: map[string]any{"sub": "user-1"}}
	if got := rc.Claim("sub"); got != "user-1" {
		t.Errorf("Claim(sub) = %v, want user-1", got)
	}
	if got := rc.Claim("missing"); got != nil {
		t.Errorf("Claim(missing) = %v, want nil", got)
	}

	empty := &RequestContext{}
	if got := empty.Claim("sub"); got != nil {
		t.Errorf("Claim on nil claims = %v, want nil", got)
	}
}

func TestWithRequestContext_roundTrip(t *testing.T) {
	rc := &RequestContext{SubjectID: "user-1", CorrelationID: "corr-1"}
	ctx := WithRequestContext(context.Background(), rc)

	got := RequestContextFrom(ctx)
	if got != rc {
		t.Fatalf("RequestContextFrom() = %p, want %p", got, rc)
	}
}

func TestRequestContextFrom_missing(t *testing.T) {
	if got := RequestContextFrom(context.Background()); got != nil {
		t.Errorf("RequestContextFrom() = %+v, want nil", got)
	}
}
