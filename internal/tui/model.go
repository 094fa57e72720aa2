package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/markease/internal/ai"
	"github.com/julianstephens/markease/internal/cli"
	"github.com/julianstephens/markease/internal/habit"
	"github.com/julianstephens/markease/internal/health"
	"github.com/julianstephens/markease/internal/i18n"
	"github.com/julianstephens/markease/internal/logger"
	"github.com/julianstephens/markease/internal/markdown"
	"github.com/julianstephens/markease/internal/models"
	"github.com/julianstephens/markease/internal/notes"
	"github.com/julianstephens/markease/internal/stats"
	"github.com/julianstephens/markease/internal/tui/components/journal"
	"github.com/julianstephens/markease/internal/tui/components/notelist"
)

type SessionState int

const (
	StateFocus SessionState = iota
	StateBody
	StateNotes
	StateForm
	StateEditNote
	StateConfirmDelete
	StateAIResult
	StatePreview
)

var tabs = []SessionState{StateFocus, StateBody, StateNotes}

var tabTitles = map[SessionState]string{
	StateFocus: i18n.TabFocus,
	StateBody:  i18n.TabBody,
	StateNotes: i18n.TabNotes,
}

const journalDays = 7

// runtime is shared by every copy of the Model.
type runtime struct {
	ctx      context.Context
	cancel   context.CancelFunc
	saver    *notes.AutoSaver
	aiCancel context.CancelFunc
	ai       *ai.Service
	aiErr    error
	aiLoaded bool
	renderer *markdown.Renderer
}

type JournalFormModel struct {
	Date string
	Note string
}

type BodyFormModel struct {
	Date   string
	Gender models.Gender
	Height string
	Weight string
	Neck   string
	Chest  string
	Waist  string
	Hips   string
	Arm    string
	Thigh  string
}

type TitleFormModel struct {
	Title string
}

type SnippetFormModel struct {
	Snippet markdown.Snippet
}

type AIFormModel struct {
	Preset      ai.Preset
	Instruction string
}

type Model struct {
	app     *cli.Context
	rt      *runtime
	tracker *habit.Tracker
	merger  *health.Merger
	notes   *notes.Service
	lang    models.Language

	state    SessionState
	tab      SessionState
	keys     KeyMap
	help     help.Model
	journal  journal.Model
	noteList notelist.Model
	editor   textarea.Model
	preview  viewport.Model
	editing  models.Note

	form       *huh.Form
	formSubmit func(*Model) (tea.Cmd, error)
	formReturn SessionState
	formError  string

	summary     habit.Summary
	today       models.HabitRecord
	focusWeeks  []stats.FocusWeek
	bodyWeeks   []stats.WeekBucket
	bodyRecords []models.HealthRecord

	ticks      <-chan time.Duration
	aiStream   <-chan aiChunkMsg
	aiSeq      int
	aiBusy     bool
	suggestion string

	noteToDeleteID string
	status         string
	quitting       bool
	width          int
	height         int
}

// tickMsg and tickDoneMsg carry their channel so a stale stream from a
// stopped session cannot clear the current one.
type tickMsg struct {
	ch      <-chan time.Duration
	elapsed time.Duration
}

type tickDoneMsg struct {
	ch <-chan time.Duration
}

type autosaveCheckMsg struct{}

type aiResultMsg struct {
	seq  int
	text string
	err  error
}

type aiChunkMsg struct {
	seq   int
	chunk string
	done  bool
	err   error
}

func NewModel(app *cli.Context) Model {
	ctx, cancel := context.WithCancel(context.Background())
	svc := app.Notes()
	rt := &runtime{
		ctx:      ctx,
		cancel:   cancel,
		saver:    notes.NewAutoSaver(svc, app.Config.Notes.AutosaveDelay),
		renderer: markdown.NewRenderer(styles.DarkStyle),
	}

	editor := textarea.New()
	editor.ShowLineNumbers = false
	editor.CharLimit = 0
	editor.MaxHeight = 0

	m := Model{
		app:      app,
		rt:       rt,
		tracker:  app.Tracker(),
		merger:   app.Merger(),
		notes:    svc,
		lang:     app.Lang(),
		state:    StateFocus,
		tab:      StateFocus,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		journal:  journal.New(0),
		noteList: notelist.New(svc.List(), 0, 0),
		editor:   editor,
		preview:  viewport.New(0, 0),
	}
	m.noteList.SetEmptyText(m.t(i18n.NotesEmpty))
	m.refreshFocus()
	m.refreshBody()

	if m.tracker.State() == habit.Running {
		m.ticks = m.tracker.Ticks(rt.ctx)
	}
	return m
}

// Close stops background work and writes any pending note.
func (m Model) Close() {
	if m.rt.aiCancel != nil {
		m.rt.aiCancel()
	}
	m.rt.cancel()
	if _, err := m.rt.saver.Flush(); err != nil {
		logger.Error("Failed to save note on exit", "error", err)
	}
	m.rt.saver.Stop()
}

func (m Model) Init() tea.Cmd {
	if m.ticks != nil {
		return waitForTick(m.ticks)
	}
	return nil
}

func (m Model) t(key string, args ...any) string {
	return i18n.T(m.lang, key, args...)
}

func (m *Model) refreshFocus() {
	m.today = m.tracker.Today()
	m.summary = m.tracker.Summary()
	m.focusWeeks = stats.WeeklyFocus(m.tracker.Records())
	m.journal.SetRecords(m.tracker.Journal(m.app.Now(), journalDays), m.today.Date)
}

func (m *Model) refreshBody() {
	m.bodyRecords = m.merger.Records()
	m.bodyWeeks = stats.WeeklyHealth(m.bodyRecords)
}

func (m *Model) refreshNotes(selectID string) {
	m.noteList.SetNotes(m.notes.List(), selectID)
}

// aiService builds the assistant on first use.
func (m *Model) aiService() (*ai.Service, error) {
	if !m.rt.aiLoaded {
		m.rt.ai, m.rt.aiErr = m.app.AI()
		m.rt.aiLoaded = true
	}
	return m.rt.ai, m.rt.aiErr
}

func waitForTick(ch <-chan time.Duration) tea.Cmd {
	return func() tea.Msg {
		d, ok := <-ch
		if !ok {
			return tickDoneMsg{ch: ch}
		}
		return tickMsg{ch: ch, elapsed: d}
	}
}

func waitForChunk(ch <-chan aiChunkMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return aiChunkMsg{seq: -1, done: true}
		}
		return msg
	}
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case StateFocus:
		keys = append(keys, m.keys.Toggle, m.keys.Note)
	case StateBody:
		keys = append(keys, m.keys.Add)
	case StateNotes:
		nk := notelist.DefaultKeyMap()
		keys = append(keys, nk.New, nk.Open, nk.Rename, nk.Delete, nk.Export)
	case StateEditNote:
		keys = []key.Binding{m.keys.Save, m.keys.Improve, m.keys.Continue, m.keys.Back}
	case StateForm, StateConfirmDelete, StateAIResult:
		keys = []key.Binding{m.keys.Back}
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{m.ShortHelp(), {m.keys.ShiftTab, m.keys.Lang}}
}
