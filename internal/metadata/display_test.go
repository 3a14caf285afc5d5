package metadata

import (
	"encoding/json"
	"testing"

	"github.com/pitabwire/canonico/model"
)

func TestPrepareForDisplay(t *testing.T) {
	records := []model.Canonico{
		{Name: "foo", Description: "bar", Status: model.StatusActive, Version: 1,
			Calls: []model.Call{{Order: 1, Name: "c"}}},
		{Name: "baz", Description: "qux", Status: model.StatusInactive, Version: 7},
	}

	rows := PrepareForDisplay(records)
	if len(rows) != 2 {
		t.Fatalf("len = %d, want 2", len(rows))
	}

	want := []model.DisplayRow{
		{Name: "foo", Description: "bar", Status: "Active", Version: 1},
		{Name: "baz", Description: "qux", Status: "Inactive", Version: 7},
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("rows[%d] = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestPrepareForDisplay_emptyInput(t *testing.T) {
	for _, in := range [][]model.Canonico{nil, {}} {
		rows := PrepareForDisplay(in)
		if rows == nil {
			t.Error("PrepareForDisplay should return a non-nil slice")
		}
		if len(rows) != 0 {
			t.Errorf("len = %d, want 0", len(rows))
		}
	}
}

func TestPrepareForDisplay_unsetStatus(t *testing.T) {
	rows := PrepareForDisplay([]model.Canonico{{Name: "foo"}})
	if rows[0].Status != "" {
		t.Errorf("Status = %q, want empty", rows[0].Status)
	}
}

func TestPrepareForDisplay_wireKeys(t *testing.T) {
	rows := PrepareForDisplay([]model.Canonico{{Name: "foo", Description: "bar", Status: model.StatusActive, Version: 2}})

	b, err := json.Marshal(rows[0])
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"nomeCanonico":"foo","descricaoCanonico":"bar","statusCanonico":"Active","versaoCanonico":2}`
	if string(b) != want {
		t.Errorf("json = %s, want %s", b, want)
	}
}

func TestCanonicoColumns(t *testing.T) {
	cols := CanonicoColumns()
	want := []model.ColumnDescriptor{
		{Label: "Canonical", Key: "nomeCanonico"},
		{Label: "Description", Key: "descricaoCanonico"},
		{Label: "Status", Key: "statusCanonico"},
		{Label: "Version", Key: "versaoCanonico"},
	}
	if len(cols) != len(want) {
		t.Fatalf("len = %d, want %d", len(cols), len(want))
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Errorf("cols[%d] = %+v, want %+v", i, cols[i], want[i])
		}
	}
}
