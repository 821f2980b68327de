package attendance

import (
	"testing"

	"github.com/julianstephens/rollcall/internal/models"
)

const (
	sNone = models.SessionNone
	sHere = models.SessionHere
	sNot  = models.SessionNot
)

func TestSummarizeAllCombinations(t *testing.T) {
	type row struct {
		am, pm                  models.Session
		here, not, total, tardy int
	}
	present := []row{
		{sNone, sNone, 1, 0, 1, 0},
		{sNone, sHere, 2, 0, 2, 0},
		{sNone, sNot, 1, 1, 2, 0},
		{sHere, sNone, 2, 0, 2, 0},
		{sHere, sHere, 2, 0, 2, 0},
		{sHere, sNot, 1, 1, 2, 0},
		{sNot, sNone, 1, 1, 2, 0},
		{sNot, sHere, 1, 1, 2, 0},
		{sNot, sNot, 0, 2, 2, 0},
	}
	absent := []row{
		{sNone, sNone, 0, 1, 1, 0},
		{sNone, sHere, 1, 1, 2, 0},
		{sNone, sNot, 0, 2, 2, 0},
		{sHere, sNone, 1, 1, 2, 0},
		{sHere, sHere, 2, 0, 2, 0},
		{sHere, sNot, 1, 1, 2, 0},
		{sNot, sNone, 0, 2, 2, 0},
		{sNot, sHere, 1, 1, 2, 0},
		{sNot, sNot, 0, 2, 2, 0},
	}
	unmarked := []row{
		{sNone, sNone, 0, 0, 0, 0},
		{sNone, sHere, 0, 0, 0, 0},
		{sNone, sNot, 0, 0, 0, 0},
		{sHere, sNone, 0, 0, 0, 0},
		{sHere, sHere, 0, 0, 0, 0},
		{sHere, sNot, 0, 0, 0, 0},
		{sNot, sNone, 0, 0, 0, 0},
		{sNot, sHere, 0, 0, 0, 0},
		{sNot, sNot, 0, 0, 0, 0},
	}

	table := map[models.Status][]row{
		models.StatusNone: unmarked,
		models.StatusHere: present,
		models.StatusNot:  absent,
	}
	tardy := make([]row, len(present))
	for i, r := range present {
		r.tardy = 1
		tardy[i] = r
	}
	table[models.StatusTardy] = tardy

	for status, rows := range table {
		for _, r := range rows {
			entry := models.AttendanceEntry{Status: status, AM: r.am, PM: r.pm}
			want := Summary{Here: r.here, Not: r.not, Total: r.total, Tardy: r.tardy}
			got := Summarize(entry)
			if got != want {
				t.Errorf("Summarize(status=%q am=%q pm=%q) = %+v, want %+v", status, r.am, r.pm, got, want)
			}
			if got.Here+got.Not > got.Total {
				t.Errorf("Summarize(%+v): here+not exceeds total", entry)
			}
		}
	}
}

func TestSummarizeUnknownValues(t *testing.T) {
	tests := []struct {
		name  string
		entry models.AttendanceEntry
		want  Summary
	}{
		{
			name:  "unknown status occupies a slot",
			entry: models.AttendanceEntry{Status: "excused"},
			want:  Summary{Total: 1},
		},
		{
			name:  "unknown status with one explicit half yields one slot",
			entry: models.AttendanceEntry{Status: "excused", AM: models.SessionHere},
			want:  Summary{Here: 1, Total: 1},
		},
		{
			name:  "unknown session value is not explicit",
			entry: models.AttendanceEntry{Status: models.StatusHere, AM: "maybe"},
			want:  Summary{Here: 1, Total: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.entry); got != tt.want {
				t.Errorf("Summarize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSummarizeWorkedExamples(t *testing.T) {
	tardySingle := Summarize(models.AttendanceEntry{Status: models.StatusTardy})
	if want := (Summary{Here: 1, Total: 1, Tardy: 1}); tardySingle != want {
		t.Errorf("tardy single = %+v, want %+v", tardySingle, want)
	}

	split := Summarize(models.AttendanceEntry{Status: models.StatusHere, AM: models.SessionHere, PM: models.SessionNot})
	if want := (Summary{Here: 1, Not: 1, Total: 2}); split != want {
		t.Errorf("split day = %+v, want %+v", split, want)
	}
}

func TestCount(t *testing.T) {
	got := Count(map[string]models.AttendanceEntry{
		"a": {Status: models.StatusHere},
		"b": {Status: models.StatusNot, AM: models.SessionNot, PM: models.SessionNot},
		"c": {Status: models.StatusTardy, AM: models.SessionHere},
	})
	want := DayCount{HereCount: 3, NotCount: 2, Total: 5}
	if got != want {
		t.Errorf("Count() = %+v, want %+v", got, want)
	}

	ratio, ok := got.Ratio()
	if !ok || ratio != 0.6 {
		t.Errorf("Ratio() = %v, %v; want 0.6, true", ratio, ok)
	}
}

func TestCountUnmarkedDayHasNoRatio(t *testing.T) {
	got := Count(map[string]models.AttendanceEntry{
		"a": {},
		"b": {Note: "away"},
	})
	if got != (DayCount{}) {
		t.Errorf("Count() = %+v, want zero", got)
	}
	if _, ok := got.Ratio(); ok {
		t.Error("Ratio() ok = true for a day with no slots")
	}
	if p := Percent(got.HereCount, got.Total); p != NoData {
		t.Errorf("Percent() = %q, want %q", p, NoData)
	}
}
