package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
	Help     key.Binding
	Here     key.Binding
	Not      key.Binding
	Tardy    key.Binding
	Clear    key.Binding
	AM       key.Binding
	PM       key.Binding
	Note     key.Binding
	Save     key.Binding
	Prev     key.Binding
	Next     key.Binding
	People   key.Binding
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Quit, k.Help}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab, k.Quit, k.Help},
		{k.Up, k.Down, k.Prev, k.Next},
		{k.Here, k.Not, k.Tardy, k.Clear, k.AM, k.PM, k.Note, k.Save, k.People},
	}
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next tab"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev tab"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Here: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "here"),
		),
		Not: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "not here"),
		),
		Tardy: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "tardy"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear"),
		),
		AM: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "cycle AM"),
		),
		PM: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "cycle PM"),
		),
		Note: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit note"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save"),
		),
		Prev: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "previous"),
		),
		Next: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next"),
		),
		People: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "edit people"),
		),
	}
}
