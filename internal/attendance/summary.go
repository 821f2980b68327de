package attendance

import "github.com/julianstephens/rollcall/internal/models"

// Summary is the slot accounting for one entry, or a sum of them.
// Here+Not never exceeds Total; Tardy counts whole-day tardy statuses.
type Summary struct {
	Here  int `json:"here"`
	Not   int `json:"not"`
	Total int `json:"total"`
	Tardy int `json:"tardy"`
}

// Add returns the field-wise sum.
func (s Summary) Add(o Summary) Summary {
	return Summary{
		Here:  s.Here + o.Here,
		Not:   s.Not + o.Not,
		Total: s.Total + o.Total,
		Tardy: s.Tardy + o.Tardy,
	}
}

// Percent formats Here/Total, or NoData when nothing was recorded.
func (s Summary) Percent() string {
	return Percent(s.Here, s.Total)
}

// Summarize counts the attendance slots an entry represents.
//
// An unmarked day counts nothing. A day with no explicit AM/PM value is one
// slot decided by the status. Once either half is explicit the day is two
// sessions, and a half left unset inherits the whole-day status.
func Summarize(entry models.AttendanceEntry) Summary {
	var s Summary
	if entry.Status == models.StatusNone {
		return s
	}

	if entry.Status == models.StatusTardy {
		s.Tardy = 1
	}

	if !entry.AM.Explicit() && !entry.PM.Explicit() {
		s.Total = 1
		if entry.Status.Present() {
			s.Here = 1
		} else if entry.Status == models.StatusNot {
			s.Not = 1
		}
		return s
	}

	fallback := entry.Status.Session()
	for _, session := range []models.Session{entry.AM, entry.PM} {
		if !session.Explicit() {
			session = fallback
		}
		switch session {
		case models.SessionHere:
			s.Total++
			s.Here++
		case models.SessionNot:
			s.Total++
			s.Not++
		}
	}
	return s
}

// DayCount is the calendar-cell tally for one day across people.
type DayCount struct {
	HereCount int `json:"hereCount"`
	NotCount  int `json:"notCount"`
	Total     int `json:"total"`
}

// Ratio returns HereCount/Total; ok is false when no slots were recorded.
func (c DayCount) Ratio() (ratio float64, ok bool) {
	if c.Total == 0 {
		return 0, false
	}
	return float64(c.HereCount) / float64(c.Total), true
}

// Count sums Summarize over every entry of a day.
func Count(entries map[string]models.AttendanceEntry) DayCount {
	var c DayCount
	for _, entry := range entries {
		s := Summarize(entry)
		c.HereCount += s.Here
		c.NotCount += s.Not
		c.Total += s.Total
	}
	return c
}
