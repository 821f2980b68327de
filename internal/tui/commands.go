package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/rollcall/internal/attendance"
	"github.com/julianstephens/rollcall/internal/docstore"
	"github.com/julianstephens/rollcall/internal/logger"
	"github.com/julianstephens/rollcall/internal/models"
	"github.com/julianstephens/rollcall/internal/tracker"
)

type rosterLoadedMsg struct {
	roster models.Roster
	err    error
}

type rosterSavedMsg struct {
	roster models.Roster
	err    error
}

type dayLoadedMsg struct {
	day tracker.Day
	err error
}

type daySavedMsg struct {
	date string
	err  error
}

// remoteDayMsg is a change to a watched day pushed by the remote store.
type remoteDayMsg struct {
	day tracker.Day
}

type watchStartedMsg struct {
	date string
	sub  docstore.Subscription
	err  error
}

type monthLoadedMsg struct {
	month attendance.Month
	err   error
}

type trendsLoadedMsg struct {
	report tracker.TrendReport
	err    error
}

func (m Model) loadRoster() tea.Cmd {
	return func() tea.Msg {
		r, err := m.svc.LoadRoster(m.ctx)
		return rosterLoadedMsg{roster: r, err: err}
	}
}

func (m Model) saveRoster(people []models.Person, teams []models.Team) tea.Cmd {
	return func() tea.Msg {
		r, err := m.svc.SaveRoster(m.ctx, people, teams)
		return rosterSavedMsg{roster: r, err: err}
	}
}

func (m Model) loadDay(date string) tea.Cmd {
	return func() tea.Msg {
		day, err := m.svc.LoadDay(m.ctx, date)
		return dayLoadedMsg{day: day, err: err}
	}
}

func (m Model) saveDay() tea.Cmd {
	date := m.date
	entries := make(map[string]models.AttendanceEntry, len(m.entries))
	for id, e := range m.entries {
		entries[id] = e
	}
	return func() tea.Msg {
		_, err := m.svc.SaveDay(m.ctx, date, entries)
		return daySavedMsg{date: date, err: err}
	}
}

func (m Model) watchDay(date string) tea.Cmd {
	if !m.svc.Online() {
		return nil
	}
	updates := m.updates
	ctx := m.ctx
	return func() tea.Msg {
		sub, err := m.svc.WatchDay(ctx, date, func(day tracker.Day) {
			select {
			case updates <- day:
			case <-ctx.Done():
			}
		})
		return watchStartedMsg{date: date, sub: sub, err: err}
	}
}

// waitForUpdate blocks until the subscription delivers a change. It is
// re-issued after every remoteDayMsg.
func (m Model) waitForUpdate() tea.Cmd {
	updates := m.updates
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case day := <-updates:
			return remoteDayMsg{day: day}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m Model) loadMonth() tea.Cmd {
	year, month := m.year, m.month
	return func() tea.Msg {
		cal, err := m.svc.Month(m.ctx, year, month)
		return monthLoadedMsg{month: cal, err: err}
	}
}

func (m Model) loadTrends() tea.Cmd {
	return func() tea.Msg {
		report, err := m.svc.Trends(m.ctx, 0, "")
		return trendsLoadedMsg{report: report, err: err}
	}
}

// switchDay drops the subscription for the open day and loads another.
// Unsaved edits are discarded.
func (m Model) switchDay(delta int) (Model, tea.Cmd) {
	if m.dirty {
		logger.Debug("Discarding unsaved edits", "date", m.date)
		m.status = "Discarded unsaved changes for " + m.date
	} else {
		m.status = ""
	}
	if m.sub != nil {
		if err := m.sub.Close(); err != nil {
			logger.Warn("Failed to close subscription", "date", m.date, "error", err)
		}
		m.sub = nil
	}
	m.date = m.svc.Calendar().AddDays(m.date, delta)
	m.entries = map[string]models.AttendanceEntry{}
	m.dirty = false
	return m, m.loadDay(m.date)
}

// shiftMonth moves the calendar by delta months.
func (m Model) shiftMonth(delta int) (Model, tea.Cmd) {
	t := time.Date(m.year, m.month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	m.year, m.month = t.Year(), t.Month()
	return m, m.loadMonth()
}
