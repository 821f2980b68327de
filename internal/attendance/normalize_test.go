package attendance

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/julianstephens/rollcall/internal/models"
)

func TestNormalizeEntries(t *testing.T) {
	got := NormalizeEntries(map[string]any{
		"valid":     map[string]any{"status": "here", "note": "ok", "am": "here", "pm": nil},
		"badNumber": 4.0,
		"badNull":   nil,
	})
	want := map[string]models.AttendanceEntry{
		"valid": {Status: models.StatusHere, Note: "ok", AM: models.SessionHere},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeEntries() = %+v, want %+v", got, want)
	}

	data, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	wantJSON := `{"valid":{"status":"here","note":"ok","am":"here","pm":null}}`
	if string(data) != wantJSON {
		t.Errorf("Marshal() = %s, want %s", data, wantJSON)
	}
}

func TestNormalizeEntry(t *testing.T) {
	tests := []struct {
		name   string
		raw    any
		want   models.AttendanceEntry
		wantOK bool
	}{
		{"nil", nil, models.AttendanceEntry{}, false},
		{"number", 4.0, models.AttendanceEntry{}, false},
		{"string", "here", models.AttendanceEntry{}, false},
		{"array", []any{"here"}, models.AttendanceEntry{}, false},
		{"bool", true, models.AttendanceEntry{}, false},
		{"nil map", map[string]any(nil), models.AttendanceEntry{}, false},
		{"empty object", map[string]any{}, models.AttendanceEntry{}, true},
		{
			name:   "falsy fields become none",
			raw:    map[string]any{"status": "", "note": false, "am": 0.0, "pm": nil},
			want:   models.AttendanceEntry{},
			wantOK: true,
		},
		{
			name:   "extra fields are dropped",
			raw:    map[string]any{"status": "tardy", "name": "Ada", "secret": "x"},
			want:   models.AttendanceEntry{Status: models.StatusTardy},
			wantOK: true,
		},
		{
			name:   "truthy non-string kept as text",
			raw:    map[string]any{"status": "not", "note": 42.0},
			want:   models.AttendanceEntry{Status: models.StatusNot, Note: "42"},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeEntry(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("NormalizeEntry() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("NormalizeEntry() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizeEntriesIsIdempotent(t *testing.T) {
	raw := map[string]any{
		"a": map[string]any{"status": "here", "note": "", "am": "not", "pm": nil},
		"b": map[string]any{"status": "not"},
	}
	first := NormalizeEntries(raw)

	data, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var again map[string]any
	if err := json.Unmarshal(data, &again); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if second := NormalizeEntries(again); !reflect.DeepEqual(first, second) {
		t.Errorf("second normalization = %+v, want %+v", second, first)
	}
}
