package notelist

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/markease/internal/models"
)

type NewNoteMsg struct{}

type OpenNoteMsg struct {
	ID string
}

type RenameNoteMsg struct {
	ID string
}

type DeleteNoteMsg struct {
	ID string
}

type ExportNoteMsg struct {
	ID string
}

type Item struct {
	Note models.Note
}

func (i Item) Title() string { return i.Note.Title }

func (i Item) Description() string {
	updated := i.Note.Updated().Format("2006-01-02 15:04")
	if p := preview(i.Note.Content); p != "" {
		return updated + " · " + p
	}
	return updated
}

func (i Item) FilterValue() string { return i.Note.Title }

// preview is the first non-heading line of content.
func preview(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line
	}
	return ""
}

type KeyMap struct {
	New    key.Binding
	Open   key.Binding
	Rename key.Binding
	Delete key.Binding
	Export key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		New: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "new"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter", "e"),
			key.WithHelp("enter", "open"),
		),
		Rename: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rename"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "export"),
		),
	}
}

type Model struct {
	list  list.Model
	keys  KeyMap
	empty string
}

func New(notes []models.Note, width, height int) Model {
	l := list.New(toItems(notes), list.NewDefaultDelegate(), width, height)
	l.Title = "Notes"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.New, keys.Open, keys.Rename, keys.Delete, keys.Export}
	}
	l.AdditionalFullHelpKeys = l.AdditionalShortHelpKeys

	return Model{
		list:  l,
		keys:  keys,
		empty: "No notes yet.",
	}
}

func toItems(notes []models.Note) []list.Item {
	items := make([]list.Item, len(notes))
	for i, n := range notes {
		items[i] = Item{Note: n}
	}
	return items
}

// SetNotes replaces the list, keeping the cursor on selectID when present.
func (m *Model) SetNotes(notes []models.Note, selectID string) {
	m.list.SetItems(toItems(notes))
	for i, n := range notes {
		if n.ID == selectID {
			m.list.Select(i)
			return
		}
	}
}

// SetEmptyText sets the placeholder shown when there are no notes.
func (m *Model) SetEmptyText(s string) {
	m.empty = s
}

// Selected returns the highlighted note.
func (m Model) Selected() (models.Note, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i.Note, ok
}

// Filtering reports whether the user is typing a filter.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		if key.Matches(msg, m.keys.New) {
			return m, func() tea.Msg { return NewNoteMsg{} }
		}
		if i, ok := m.list.SelectedItem().(Item); ok {
			id := i.Note.ID
			switch {
			case key.Matches(msg, m.keys.Open):
				return m, func() tea.Msg { return OpenNoteMsg{ID: id} }
			case key.Matches(msg, m.keys.Rename):
				return m, func() tea.Msg { return RenameNoteMsg{ID: id} }
			case key.Matches(msg, m.keys.Delete):
				return m, func() tea.Msg { return DeleteNoteMsg{ID: id} }
			case key.Matches(msg, m.keys.Export):
				return m, func() tea.Msg { return ExportNoteMsg{ID: id} }
			}
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  " + m.empty + "\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
