package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Quit     key.Binding
	Help     key.Binding
	Lang     key.Binding

	Toggle key.Binding
	Note   key.Binding

	Add key.Binding

	Save     key.Binding
	Improve  key.Binding
	Continue key.Binding
	Preview  key.Binding
	Snippet  key.Binding
	Back     key.Binding
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Quit, k.Help}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab, k.Quit, k.Help, k.Lang},
		{k.Toggle, k.Note, k.Add},
		{k.Save, k.Improve, k.Continue, k.Preview, k.Snippet, k.Back},
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
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Lang: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "language"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "s"),
			key.WithHelp("space", "start/stop"),
		),
		Note: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "journal note"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "record measurements"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Improve: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "improve"),
		),
		Continue: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "continue writing"),
		),
		Preview: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "preview"),
		),
		Snippet: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "insert markdown"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
	}
}
