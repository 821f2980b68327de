package backup

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/julianstephens/rollcall/internal/models"
)

func TestSymbol(t *testing.T) {
	tests := []struct {
		name  string
		entry models.AttendanceEntry
		want  string
	}{
		{"unmarked", models.AttendanceEntry{}, ""},
		{"here", models.AttendanceEntry{Status: models.StatusHere}, "H"},
		{"tardy", models.AttendanceEntry{Status: models.StatusTardy}, "T"},
		{"not", models.AttendanceEntry{Status: models.StatusNot}, "N"},
		{"split", models.AttendanceEntry{Status: models.StatusHere, AM: models.SessionHere, PM: models.SessionNot}, "H/N"},
		{"half inherits status", models.AttendanceEntry{Status: models.StatusNot, PM: models.SessionHere}, "N/H"},
		{"sessions without a status", models.AttendanceEntry{AM: models.SessionHere}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Symbol(tt.entry); got != tt.want {
				t.Errorf("Symbol() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteSpreadsheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.xlsx")
	if err := WriteSpreadsheet(path, testSnapshot(), "2026-10-01", "2026-10-31"); err != nil {
		t.Fatalf("WriteSpreadsheet() failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() failed: %v", err)
	}
	defer f.Close()

	grid, err := f.GetRows(SheetAttendance)
	if err != nil {
		t.Fatalf("GetRows(%s) failed: %v", SheetAttendance, err)
	}
	want := [][]string{
		{"Name", "2026-10-01", "2026-10-02"},
		{"Ada", "H", "N"},
		{"Bo", "T"},
		{"cy", "", "H/N"},
	}
	if len(grid) != len(want) {
		t.Fatalf("attendance sheet has %d rows, want %d: %v", len(grid), len(want), grid)
	}
	for r := range want {
		for c := range want[r] {
			if c >= len(grid[r]) || grid[r][c] != want[r][c] {
				t.Errorf("attendance row %d = %v, want %v", r, grid[r], want[r])
				break
			}
		}
	}

	summary, err := f.GetRows(SheetSummary)
	if err != nil {
		t.Fatalf("GetRows(%s) failed: %v", SheetSummary, err)
	}
	if len(summary) != 4 {
		t.Fatalf("summary sheet has %d rows, want 4: %v", len(summary), summary)
	}
	// Ada and cy both have two slots; Ada sorts first by name.
	if got := summary[1]; got[0] != "Ada" || got[1] != "1" || got[2] != "1" || got[3] != "2" || got[6] != "50%" {
		t.Errorf("Ada summary = %v", got)
	}
	if got := summary[3]; got[0] != "Bo" || got[4] != "1" || got[5] != "1" || got[6] != "100%" {
		t.Errorf("Bo summary = %v", got)
	}
}

func TestWriteSpreadsheetOutsideRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := WriteSpreadsheet(path, testSnapshot(), "2026-11-01", "2026-11-30"); err != nil {
		t.Fatalf("WriteSpreadsheet() failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() failed: %v", err)
	}
	defer f.Close()

	grid, err := f.GetRows(SheetAttendance)
	if err != nil {
		t.Fatal(err)
	}
	if len(grid) != 3 || len(grid[0]) != 1 {
		t.Errorf("attendance sheet = %v, want a header and one row per person", grid)
	}
}
