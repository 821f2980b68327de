// Package tui is the interactive attendance screen: a day sheet, a month
// calendar and a trends table over the tracker service.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/rollcall/internal/attendance"
	"github.com/julianstephens/rollcall/internal/datekey"
	"github.com/julianstephens/rollcall/internal/docstore"
	"github.com/julianstephens/rollcall/internal/models"
	"github.com/julianstephens/rollcall/internal/tracker"
)

type SessionState int

const (
	StateDay SessionState = iota
	StateCalendar
	StateTrends
	StateNote
	StatePeople
)

const tabCount = 3

var tabTitles = []string{"Day", "Calendar", "Trends"}

type PeopleFormModel struct {
	Names string
}

type Model struct {
	ctx        context.Context
	svc        *tracker.Service
	state      SessionState
	keys       KeyMap
	help       help.Model
	note       textinput.Model
	form       *huh.Form
	peopleForm *PeopleFormModel

	roster  models.Roster
	date    string
	entries map[string]models.AttendanceEntry
	source  tracker.Source
	dirty   bool
	cursor  int

	year     int
	month    time.Month
	calendar attendance.Month
	trends   tracker.TrendReport

	// updates carries remote changes for the open day from the
	// subscription callback into the program.
	updates chan tracker.Day
	sub     docstore.Subscription

	status   string
	err      error
	quitting bool
	width    int
	height   int
}

func NewModel(ctx context.Context, svc *tracker.Service) Model {
	today := svc.Today()
	t, _ := datekey.Parse(today)

	note := textinput.New()
	note.Placeholder = "note"
	note.CharLimit = 200

	return Model{
		ctx:     ctx,
		svc:     svc,
		state:   StateDay,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		note:    note,
		date:    today,
		entries: map[string]models.AttendanceEntry{},
		year:    t.Year(),
		month:   t.Month(),
		updates: make(chan tracker.Day, 16),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadRoster(), m.loadDay(m.date), m.waitForUpdate())
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case StateDay:
		keys = append(keys, m.keys.Here, m.keys.Not, m.keys.Tardy, m.keys.Save)
	case StateCalendar:
		keys = append(keys, m.keys.Prev, m.keys.Next)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}
	navigation := []key.Binding{m.keys.Up, m.keys.Down, m.keys.Prev, m.keys.Next}

	var actions []key.Binding
	if m.state == StateDay {
		actions = []key.Binding{
			m.keys.Here, m.keys.Not, m.keys.Tardy, m.keys.Clear,
			m.keys.AM, m.keys.PM, m.keys.Note, m.keys.Save, m.keys.People,
		}
	}
	return [][]key.Binding{global, navigation, actions}
}

// Close releases the remote subscription for the open day.
func (m Model) Close() error {
	if m.sub != nil {
		return m.sub.Close()
	}
	return nil
}

// selected returns the person under the cursor.
func (m Model) selected() (models.Person, bool) {
	if m.cursor < 0 || m.cursor >= len(m.roster.People) {
		return models.Person{}, false
	}
	return m.roster.People[m.cursor], true
}
