package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/julianstephens/markease/internal/ai"
	"github.com/julianstephens/markease/internal/cli"
	"github.com/julianstephens/markease/internal/habit"
	"github.com/julianstephens/markease/internal/markdown"
	"github.com/julianstephens/markease/internal/models"
	"github.com/julianstephens/markease/internal/storage/sqlite"
	"github.com/julianstephens/markease/internal/tui/components/notelist"
)

type testEnv struct {
	app *cli.Context
	now time.Time
}

func setupTestModel(t *testing.T) (*testEnv, Model) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, store.Init())
	t.Cleanup(func() { _ = store.Close() })

	env := &testEnv{now: time.Date(2024, 3, 4, 9, 0, 0, 0, time.Local)}
	env.app = cli.NewContext(store, nil)
	env.app.Config.Habit.Notify = false
	env.app.Config.Notes.AutosaveDelay = time.Hour
	env.app.Now = func() time.Time { return env.now }

	m := NewModel(env.app)
	t.Cleanup(m.Close)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return env, next.(Model)
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+o":
		return tea.KeyMsg{Type: tea.KeyCtrlO}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+x":
		return tea.KeyMsg{Type: tea.KeyCtrlX}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		m, _ = send(t, m, keyMsg(k))
	}
	return m
}

func TestTabCycle(t *testing.T) {
	_, m := setupTestModel(t)
	assert.Equal(t, StateFocus, m.state)

	m = press(t, m, "tab")
	assert.Equal(t, StateBody, m.state)
	m = press(t, m, "tab")
	assert.Equal(t, StateNotes, m.state)
	m = press(t, m, "tab")
	assert.Equal(t, StateFocus, m.state)
	m = press(t, m, "shift+tab")
	assert.Equal(t, StateNotes, m.state)
	assert.Equal(t, StateNotes, m.tab)
}

func TestToggleSession(t *testing.T) {
	env, m := setupTestModel(t)

	m, cmd := send(t, m, keyMsg("s"))
	require.NotNil(t, cmd)
	assert.Equal(t, habit.Running, m.tracker.State())
	assert.NotNil(t, m.ticks)
	assert.Contains(t, m.View(), "Focusing")

	env.now = env.now.Add(30 * time.Minute)
	m = press(t, m, "s")
	assert.Equal(t, habit.Idle, m.tracker.State())
	assert.Nil(t, m.ticks)
	assert.Contains(t, m.status, "Today: 30m")
	assert.Equal(t, 30, m.today.DurationMinutes)
	assert.Equal(t, 1, m.summary.Days)
}

func TestStaleTickDoneKeepsCurrentStream(t *testing.T) {
	_, m := setupTestModel(t)

	m = press(t, m, "s")
	current := m.ticks
	require.NotNil(t, current)

	stale := make(chan time.Duration)
	m, _ = send(t, m, tickDoneMsg{ch: stale})
	assert.Equal(t, current, m.ticks)

	m, _ = send(t, m, tickDoneMsg{ch: current})
	assert.Nil(t, m.ticks)
}

func TestLanguageToggle(t *testing.T) {
	env, m := setupTestModel(t)

	m = press(t, m, "L")
	assert.Equal(t, models.LanguageChinese, m.lang)
	assert.Equal(t, models.LanguageChinese, env.app.Records().Language())
	assert.Contains(t, m.View(), "专注")

	m = press(t, m, "L")
	assert.Equal(t, models.LanguageEnglish, m.lang)
}

func TestNewNoteEditAndFlush(t *testing.T) {
	env, m := setupTestModel(t)
	m = press(t, m, "tab", "tab")
	require.Equal(t, StateNotes, m.state)

	m, _ = send(t, m, notelist.NewNoteMsg{})
	require.Equal(t, StateEditNote, m.state)
	id := m.editing.ID
	require.NotEmpty(t, id)

	m = press(t, m, "Z")
	assert.True(t, strings.HasSuffix(m.editor.Value(), "Z"))
	assert.True(t, m.rt.saver.Pending())
	assert.Equal(t, "Unsaved changes", m.status)

	m = press(t, m, "esc")
	assert.Equal(t, StateNotes, m.state)
	assert.False(t, m.rt.saver.Pending())

	stored, err := env.app.Notes().Get(id)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(stored.Content, "Z"))
}

func TestConfirmDelete(t *testing.T) {
	env, m := setupTestModel(t)
	note, err := env.app.Notes().Create("Scratch", "text")
	require.NoError(t, err)
	m = press(t, m, "tab", "tab")

	m, _ = send(t, m, notelist.DeleteNoteMsg{ID: note.ID})
	require.Equal(t, StateConfirmDelete, m.state)
	assert.Contains(t, m.View(), "Scratch")

	m = press(t, m, "n")
	assert.Equal(t, StateNotes, m.state)
	assert.Len(t, env.app.Notes().List(), 1)

	m, _ = send(t, m, notelist.DeleteNoteMsg{ID: note.ID})
	m = press(t, m, "y")
	assert.Equal(t, StateNotes, m.state)
	assert.Empty(t, env.app.Notes().List())
}

func TestExportNote(t *testing.T) {
	env, m := setupTestModel(t)
	env.app.Config.Notes.ExportDir = t.TempDir()
	note, err := env.app.Notes().Create("Trip Plan", "# Trip")
	require.NoError(t, err)

	m, _ = send(t, m, notelist.ExportNoteMsg{ID: note.ID})
	assert.Contains(t, m.status, filepath.Join(env.app.Config.Notes.ExportDir, "Trip_Plan.md"))
}

func TestAIResultIgnoresStaleAndApplies(t *testing.T) {
	env, m := setupTestModel(t)
	note, err := env.app.Notes().Create("Draft", "teh text")
	require.NoError(t, err)
	m, _ = send(t, m, notelist.OpenNoteMsg{ID: note.ID})
	require.Equal(t, StateEditNote, m.state)

	m.aiSeq = 2
	m.aiBusy = true
	m.state = StateAIResult

	m, _ = send(t, m, aiResultMsg{seq: 1, text: "stale"})
	assert.True(t, m.aiBusy)
	assert.Empty(t, m.suggestion)

	m, _ = send(t, m, aiResultMsg{seq: 2, text: "the text"})
	assert.False(t, m.aiBusy)
	assert.Equal(t, "the text", m.suggestion)

	m = press(t, m, "enter")
	assert.Equal(t, StateEditNote, m.state)
	assert.Equal(t, "the text", m.editor.Value())

	m = press(t, m, "ctrl+s")
	stored, err := env.app.Notes().Get(note.ID)
	require.NoError(t, err)
	assert.Equal(t, "the text", stored.Content)
}

func TestAIResultDiscard(t *testing.T) {
	env, m := setupTestModel(t)
	note, err := env.app.Notes().Create("Draft", "keep me")
	require.NoError(t, err)
	m, _ = send(t, m, notelist.OpenNoteMsg{ID: note.ID})

	m.aiSeq = 1
	m.state = StateAIResult
	m.suggestion = "replacement"

	m = press(t, m, "esc")
	assert.Equal(t, StateEditNote, m.state)
	assert.Equal(t, "keep me", m.editor.Value())
	assert.Empty(t, m.suggestion)
}

type streamModel struct {
	chunks []string
}

func (s *streamModel) GenerateContent(ctx context.Context, _ []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.StreamingFunc != nil {
		for _, c := range s.chunks {
			if err := opts.StreamingFunc(ctx, []byte(c)); err != nil {
				return nil, err
			}
		}
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: strings.Join(s.chunks, "")}},
	}, nil
}

func (s *streamModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, s, prompt, options...)
}

func TestContinueWritingStreamsIntoSuggestion(t *testing.T) {
	env, m := setupTestModel(t)
	note, err := env.app.Notes().Create("Story", "Once")
	require.NoError(t, err)
	m, _ = send(t, m, notelist.OpenNoteMsg{ID: note.ID})

	m.rt.ai = ai.NewWithModel(&streamModel{chunks: []string{" upon", " a time"}}, 0)
	m.rt.aiLoaded = true

	m, cmd := send(t, m, keyMsg("ctrl+o"))
	require.Equal(t, StateAIResult, m.state)
	require.True(t, m.aiBusy)

	for cmd != nil {
		m, cmd = send(t, m, cmd())
	}
	assert.False(t, m.aiBusy)
	assert.Equal(t, " upon a time", m.suggestion)
	assert.Nil(t, m.aiStream)
}

func TestBodyFormHealthUpdate(t *testing.T) {
	fm := &BodyFormModel{
		Date:   "2024-03-04",
		Gender: models.GenderMale,
		Height: "180",
		Neck:   "38",
		Waist:  " 90 ",
	}
	u, err := fm.HealthUpdate()
	require.NoError(t, err)
	require.NotNil(t, u.Gender)
	assert.Equal(t, models.GenderMale, *u.Gender)
	assert.Equal(t, 180.0, models.Value(u.Height))
	assert.Nil(t, u.Weight)
	assert.Equal(t, models.Dimensions{models.Neck: 38, models.Waist: 90}, u.Dimensions)

	fm.Weight = "heavy"
	_, err = fm.HealthUpdate()
	assert.ErrorContains(t, err, "weight")

	_, err = (&BodyFormModel{Date: "2024-03-04"}).HealthUpdate()
	assert.ErrorContains(t, err, "at least one")
}

func TestBodyFormSubmitRequiresMeasurement(t *testing.T) {
	env, m := setupTestModel(t)
	m = press(t, m, "tab")

	m, _ = send(t, m, keyMsg("a"))
	require.Equal(t, StateForm, m.state)
	assert.Equal(t, StateBody, m.formReturn)

	_, err := m.formSubmit(&m)
	assert.Error(t, err)
	assert.Empty(t, env.app.Merger().Records())

	m = press(t, m, "esc")
	assert.Equal(t, StateBody, m.state)
	assert.Nil(t, m.form)
}

func TestParseOptional(t *testing.T) {
	tests := []struct {
		in      string
		want    *float64
		wantErr bool
	}{
		{"", nil, false},
		{"  ", nil, false},
		{"72.5", models.Float(72.5), false},
		{"0", nil, true},
		{"-3", nil, true},
		{"abc", nil, true},
	}
	for _, tt := range tests {
		got, err := parseOptional(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func openNote(t *testing.T, env *testEnv, m Model, content string) Model {
	t.Helper()
	note, err := env.app.Notes().Create("Draft", content)
	require.NoError(t, err)
	m, _ = send(t, m, notelist.OpenNoteMsg{ID: note.ID})
	require.Equal(t, StateEditNote, m.state)
	return m
}

func TestInsertSnippetLeavesCursorInside(t *testing.T) {
	env, m := setupTestModel(t)
	m = openNote(t, env, m, "ab")
	m.editor.CursorEnd()

	bold, ok := markdown.Lookup("Bold")
	require.True(t, ok)
	m.insertSnippet(bold)
	assert.Equal(t, "ab****", m.editor.Value())
	assert.True(t, m.rt.saver.Pending())

	m = press(t, m, "x")
	assert.Equal(t, "ab**x**", m.editor.Value())

	link, _ := markdown.Lookup("Link")
	m.insertSnippet(link)
	m = press(t, m, "y")
	assert.Equal(t, "ab**x[y](url)**", m.editor.Value())
}

func TestSnippetPicker(t *testing.T) {
	env, m := setupTestModel(t)
	m = openNote(t, env, m, "")
	m.editor.SetValue("")

	m, _ = send(t, m, keyMsg("ctrl+x"))
	require.Equal(t, StateForm, m.state)
	assert.Equal(t, StateEditNote, m.formReturn)

	_, err := m.formSubmit(&m)
	require.NoError(t, err)
	assert.Equal(t, markdown.Snippets[0].Prefix, m.editor.Value())

	m = press(t, m, "esc")
	assert.Equal(t, StateEditNote, m.state)
}

func TestPreviewToggle(t *testing.T) {
	env, m := setupTestModel(t)
	content := "# Heading\n\nSome **bold** text"
	m = openNote(t, env, m, content)

	m = press(t, m, "ctrl+r")
	require.Equal(t, StatePreview, m.state)
	assert.Contains(t, m.View(), "Heading")

	m = press(t, m, "x")
	assert.Equal(t, StatePreview, m.state)

	m = press(t, m, "ctrl+r")
	assert.Equal(t, StateEditNote, m.state)
	assert.Equal(t, content, m.editor.Value(), "keys in preview do not edit")

	m = press(t, m, "ctrl+r", "esc")
	assert.Equal(t, StateEditNote, m.state)
}

func TestDialogsFollowLanguage(t *testing.T) {
	env, m := setupTestModel(t)
	note, err := env.app.Notes().Create("Scratch", "text")
	require.NoError(t, err)

	m = press(t, m, "L")
	m, _ = send(t, m, notelist.DeleteNoteMsg{ID: note.ID})
	view := m.View()
	assert.Contains(t, view, "删除这条笔记？")
	assert.Contains(t, view, "[y] 是")
	assert.NotContains(t, view, "Delete this note?")

	m = press(t, m, "esc", "tab")
	require.Equal(t, StateBody, m.state)
	assert.Contains(t, m.View(), "按 a 记录身体数据")
}
