package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/rollcall/internal/attendance"
	"github.com/julianstephens/rollcall/internal/logger"
	"github.com/julianstephens/rollcall/internal/models"
	"github.com/julianstephens/rollcall/internal/roster"
	"github.com/julianstephens/rollcall/internal/tracker"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case rosterLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.setRoster(msg.roster)
		return m, nil

	case rosterSavedMsg:
		m.err = nil
		if msg.err != nil && !errors.Is(msg.err, tracker.ErrSavedLocally) {
			m.err = msg.err
			return m, nil
		}
		m.setRoster(msg.roster)
		m.status = savedStatus("People saved", msg.err)
		return m, nil

	case dayLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if msg.day.Date != m.date {
			return m, nil
		}
		m.err = nil
		m.entries = msg.day.Entries
		m.source = msg.day.Source
		m.dirty = false
		return m, m.watchDay(m.date)

	case watchStartedMsg:
		if msg.err != nil {
			logger.Warn("Failed to watch day", "date", msg.date, "error", msg.err)
			return m, nil
		}
		if msg.date != m.date {
			if err := msg.sub.Close(); err != nil {
				logger.Warn("Failed to close subscription", "date", msg.date, "error", err)
			}
			return m, nil
		}
		if m.sub != nil {
			_ = m.sub.Close()
		}
		m.sub = msg.sub
		return m, nil

	case remoteDayMsg:
		m.applyRemote(msg.day)
		return m, m.waitForUpdate()

	case daySavedMsg:
		m.err = nil
		if msg.err != nil && !errors.Is(msg.err, tracker.ErrSavedLocally) {
			m.err = msg.err
			return m, nil
		}
		if msg.date == m.date {
			m.dirty = false
		}
		m.status = savedStatus("Saved "+msg.date, msg.err)
		return m, nil

	case monthLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.calendar = msg.month
		return m, nil

	case trendsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.trends = msg.report
		return m, nil
	}

	switch m.state {
	case StateNote:
		return m.updateNote(msg)
	case StatePeople:
		return m.updatePeople(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(keyMsg, m.keys.Tab):
		return m.setTab((m.state + 1) % tabCount)
	case key.Matches(keyMsg, m.keys.ShiftTab):
		return m.setTab((m.state - 1 + tabCount) % tabCount)
	}

	switch m.state {
	case StateDay:
		return m.updateDay(keyMsg)
	case StateCalendar:
		switch {
		case key.Matches(keyMsg, m.keys.Prev):
			return m.shiftMonth(-1)
		case key.Matches(keyMsg, m.keys.Next):
			return m.shiftMonth(1)
		}
	}
	return m, nil
}

func (m Model) setTab(state SessionState) (tea.Model, tea.Cmd) {
	m.state = state
	switch state {
	case StateCalendar:
		return m, m.loadMonth()
	case StateTrends:
		return m, m.loadTrends()
	}
	return m, nil
}

func (m Model) updateDay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.roster.People)-1 {
			m.cursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.Prev):
		return m.switchDay(-1)
	case key.Matches(msg, m.keys.Next):
		return m.switchDay(1)
	case key.Matches(msg, m.keys.Save):
		m.status = "Saving..."
		return m, m.saveDay()
	case key.Matches(msg, m.keys.People):
		return m.openPeopleForm()
	case key.Matches(msg, m.keys.Note):
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.note.SetValue(m.entries[p.ID].Note)
		m.note.CursorEnd()
		cmd := m.note.Focus()
		m.state = StateNote
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Here):
		m.editSelected(func(e models.AttendanceEntry) models.AttendanceEntry {
			return attendance.ToggleStatus(e, models.StatusHere)
		})
	case key.Matches(msg, m.keys.Not):
		m.editSelected(func(e models.AttendanceEntry) models.AttendanceEntry {
			return attendance.ToggleStatus(e, models.StatusNot)
		})
	case key.Matches(msg, m.keys.Tardy):
		m.editSelected(func(e models.AttendanceEntry) models.AttendanceEntry {
			return attendance.ToggleStatus(e, models.StatusTardy)
		})
	case key.Matches(msg, m.keys.Clear):
		m.editSelected(attendance.Clear)
	case key.Matches(msg, m.keys.AM):
		m.editSelected(func(e models.AttendanceEntry) models.AttendanceEntry {
			e.AM = attendance.CycleSession(e.AM)
			return e
		})
	case key.Matches(msg, m.keys.PM):
		m.editSelected(func(e models.AttendanceEntry) models.AttendanceEntry {
			e.PM = attendance.CycleSession(e.PM)
			return e
		})
	}
	return m, nil
}

func (m Model) updateNote(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEnter:
			value := m.note.Value()
			m.editSelected(func(e models.AttendanceEntry) models.AttendanceEntry {
				return attendance.SetNote(e, value)
			})
			m.note.Blur()
			m.state = StateDay
			return m, nil
		case tea.KeyEsc:
			m.note.Blur()
			m.state = StateDay
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.note, cmd = m.note.Update(msg)
	return m, cmd
}

func (m Model) openPeopleForm() (tea.Model, tea.Cmd) {
	names := ""
	for i, p := range m.roster.People {
		if i > 0 {
			names += "\n"
		}
		names += p.Name
	}
	m.peopleForm = &PeopleFormModel{Names: names}
	m.form = newPeopleForm(m.peopleForm)
	cmd := m.form.Init()
	m.state = StatePeople
	return m, cmd
}

func newPeopleForm(fm *PeopleFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("People").
				Description("One name per line. People keep their id while their name stays on the list.").
				Lines(12).
				Value(&fm.Names),
		),
	)
}

func (m Model) updatePeople(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = StateDay
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		people := roster.BuildPeopleList(m.roster.People, roster.ParseNames(m.peopleForm.Names))
		teams := roster.PruneTeams(people, m.roster.Teams)
		m.state = StateDay
		return m, m.saveRoster(people, teams)
	case huh.StateAborted:
		m.state = StateDay
		return m, nil
	}
	return m, cmd
}

// editSelected applies fn to the entry under the cursor and marks the day
// dirty.
func (m *Model) editSelected(fn func(models.AttendanceEntry) models.AttendanceEntry) {
	p, ok := m.selected()
	if !ok {
		return
	}
	entries := make(map[string]models.AttendanceEntry, len(m.entries)+1)
	for id, e := range m.entries {
		entries[id] = e
	}
	entries[p.ID] = fn(entries[p.ID])
	m.entries = entries
	m.dirty = true
}

// applyRemote replaces the open day with a remote change unless there are
// unsaved local edits, which win until saved.
func (m *Model) applyRemote(day tracker.Day) {
	if day.Date != m.date {
		return
	}
	if m.dirty {
		logger.Debug("Ignoring remote update for edited day", "date", day.Date)
		m.status = "Remote change ignored: unsaved edits"
		return
	}
	m.entries = day.Entries
	m.source = day.Source
}

func (m *Model) setRoster(r models.Roster) {
	m.roster = r
	if m.cursor >= len(r.People) {
		m.cursor = max(len(r.People)-1, 0)
	}
}

func savedStatus(prefix string, remoteErr error) string {
	if remoteErr != nil {
		return fmt.Sprintf("%s locally only (%v)", prefix, remoteErr)
	}
	return prefix
}
