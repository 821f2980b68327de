package days

import (
	"fmt"
	"strings"

	"github.com/julianstephens/rollcall/internal/models"
)

// describe renders an entry on one line, e.g. "tardy (AM here, PM not) - bus".
func describe(e models.AttendanceEntry) string {
	if e.IsZero() {
		return "-"
	}
	status := string(e.Status)
	if status == "" {
		status = "unmarked"
	}
	var b strings.Builder
	b.WriteString(status)
	if e.AM.Explicit() || e.PM.Explicit() {
		fmt.Fprintf(&b, " (AM %s, PM %s)", session(e.AM, e.Status), session(e.PM, e.Status))
	}
	if e.Note != "" {
		fmt.Fprintf(&b, " - %s", e.Note)
	}
	return b.String()
}

// session shows an unset half as the whole-day value it inherits.
func session(s models.Session, status models.Status) string {
	if !s.Explicit() {
		s = status.Session()
	}
	if s == models.SessionNone {
		return "-"
	}
	return string(s)
}
