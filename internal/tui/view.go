package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/rollcall/internal/attendance"
	"github.com/julianstephens/rollcall/internal/models"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateDay, StateNote:
		content = m.viewDay()
	case StateCalendar:
		content = m.viewCalendar()
	case StateTrends:
		content = m.viewTrends()
	case StatePeople:
		content = m.form.View()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		docStyle.Render(content),
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	active := m.state
	if active == StateNote || active == StatePeople {
		active = StateDay
	}
	var tabs []string
	for i, title := range tabTitles {
		if active == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewStatus() string {
	switch {
	case m.err != nil:
		return errorStyle.Render("Error: " + m.err.Error())
	case m.status != "":
		return warningStyle.Render(m.status)
	}
	return ""
}

func (m Model) viewDay() string {
	var b strings.Builder

	header := m.date
	if m.source != "" {
		header += mutedStyle.Render(fmt.Sprintf("  (%s)", m.source))
	}
	if m.dirty {
		header += warningStyle.Render("  • unsaved")
	}
	b.WriteString(titleStyle.Render(header) + "\n\n")

	if len(m.roster.People) == 0 {
		b.WriteString(mutedStyle.Render("No people yet. Press P to add some."))
		return b.String()
	}

	for i, p := range m.roster.People {
		e := m.entries[p.ID]
		line := fmt.Sprintf("%-20s %s  AM %-4s PM %-4s  %s",
			truncate(p.Name, 20), statusCell(e.Status), sessionText(e.AM), sessionText(e.PM), e.Note)
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> ") + line + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}

	if m.state == StateNote {
		b.WriteString("\n" + m.note.View() + "\n")
	}

	count := attendance.Count(m.entries)
	b.WriteString("\n" + mutedStyle.Render(fmt.Sprintf("%d/%d here, %d not", count.HereCount, count.Total, count.NotCount)))
	return b.String()
}

func (m Model) viewCalendar() string {
	var b strings.Builder
	title := m.calendar.Title()
	if m.calendar.Year == 0 {
		title = "Loading..."
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")

	var head []string
	for _, d := range []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"} {
		head = append(head, cellStyle.Render(d))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, head...) + "\n")

	for _, week := range m.calendar.Weeks() {
		var cells []string
		for _, c := range week {
			if c.Blank {
				cells = append(cells, cellStyle.Render(""))
				continue
			}
			text := fmt.Sprintf("%2d", c.Day)
			if c.HasRecord {
				text += fmt.Sprintf(" %d/%d", c.Count.HereCount, c.Count.Total)
			}
			style, ok := heatStyles[c.Heat]
			if !ok {
				style = cellStyle
			}
			cells = append(cells, style.Render(text))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...) + "\n")
	}
	return b.String()
}

func (m Model) viewTrends() string {
	var b strings.Builder
	if m.trends.End == "" {
		return "Loading..."
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s to %s", m.trends.Start, m.trends.End)) + "\n\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%-20s %5s %5s %5s %5s %5s %7s", "Name", "Here", "Not", "Total", "Tardy", "Late", "%")) + "\n")
	for _, t := range m.trends.People {
		b.WriteString(fmt.Sprintf("%-20s %5d %5d %5d %5d %5d %7s\n",
			truncate(t.Name, 20), t.Summary.Here, t.Summary.Not, t.Summary.Total, t.Summary.Tardy, t.Late, t.Percent()))
	}

	if len(m.trends.Teams) > 0 {
		b.WriteString("\n" + titleStyle.Render("Teams") + "\n")
		for _, t := range m.trends.Teams {
			b.WriteString(fmt.Sprintf("%-20s %5d %5d %5d %19s\n",
				truncate(t.Name, 20), t.Summary.Here, t.Summary.Not, t.Summary.Total, t.Percent()))
		}
	}
	return b.String()
}

func statusCell(s models.Status) string {
	text := fmt.Sprintf("%-5s", string(s))
	if s == models.StatusNone {
		return mutedStyle.Render(fmt.Sprintf("%-5s", "-"))
	}
	if style, ok := statusStyles[s]; ok {
		return style.Render(text)
	}
	return text
}

func sessionText(s models.Session) string {
	if s == models.SessionNone {
		return "-"
	}
	return string(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
