package attendance

import (
	"fmt"
	"time"

	"github.com/julianstephens/rollcall/internal/datekey"
)

// Heat classifies a calendar day by its presence ratio.
type Heat string

const (
	HeatNone   Heat = "none"
	HeatSlow   Heat = "slow"
	HeatNormal Heat = "normal"
	HeatBusy   Heat = "busy"
)

// Thresholds are the ratio cut-offs for busy and slow days.
type Thresholds struct {
	Busy float64
	Slow float64
}

// Cell is one square of the month grid. Blank cells pad the first week.
type Cell struct {
	Blank     bool     `json:"blank,omitempty"`
	Key       string   `json:"key,omitempty"`
	Day       int      `json:"day,omitempty"`
	HasRecord bool     `json:"hasRecord,omitempty"`
	Count     DayCount `json:"count"`
	Heat      Heat     `json:"heat"`
}

// Label is the short text shown in a recorded cell.
func (c Cell) Label() string {
	if c.Blank || !c.HasRecord {
		return ""
	}
	return fmt.Sprintf("%d/%d here", c.Count.HereCount, c.Count.Total)
}

// Month is a Sunday-first calendar grid.
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Cells []Cell     `json:"cells"`
}

// Title returns e.g. "February 2026".
func (m Month) Title() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

// Weeks splits the cells into rows of seven, padding the last row.
func (m Month) Weeks() [][]Cell {
	var weeks [][]Cell
	for i := 0; i < len(m.Cells); i += 7 {
		end := i + 7
		week := make([]Cell, 7)
		for j := range week {
			week[j] = Cell{Blank: true, Heat: HeatNone}
		}
		if end > len(m.Cells) {
			end = len(m.Cells)
		}
		copy(week, m.Cells[i:end])
		weeks = append(weeks, week)
	}
	return weeks
}

// BuildMonth lays out a month and tallies each day found in days, which is
// keyed by date.
func BuildMonth(year int, month time.Month, days map[string]DayRecord, th Thresholds) Month {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	m := Month{Year: year, Month: month}

	for i := 0; i < int(first.Weekday()); i++ {
		m.Cells = append(m.Cells, Cell{Blank: true, Heat: HeatNone})
	}

	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		key := datekey.Format(d)
		cell := Cell{Key: key, Day: d.Day(), Heat: HeatNone}
		if rec, ok := days[key]; ok && rec != nil {
			cell.HasRecord = true
			cell.Count = Count(rec.Entries())
			cell.Heat = th.classify(cell.Count)
		}
		m.Cells = append(m.Cells, cell)
	}
	return m
}

func (th Thresholds) classify(c DayCount) Heat {
	ratio, ok := c.Ratio()
	switch {
	case !ok:
		return HeatNone
	case ratio >= th.Busy:
		return HeatBusy
	case ratio <= th.Slow:
		return HeatSlow
	}
	return HeatNormal
}
