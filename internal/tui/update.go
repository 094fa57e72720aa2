package tui

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/markease/internal/ai"
	"github.com/julianstephens/markease/internal/habit"
	"github.com/julianstephens/markease/internal/i18n"
	"github.com/julianstephens/markease/internal/logger"
	"github.com/julianstephens/markease/internal/markdown"
	"github.com/julianstephens/markease/internal/models"
	"github.com/julianstephens/markease/internal/notes"
	"github.com/julianstephens/markease/internal/tui/components/notelist"
)

// autosaveSlack lets the debounce timer fire before the status is checked.
const autosaveSlack = 50 * time.Millisecond

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case tickMsg:
		return m, waitForTick(msg.ch)

	case tickDoneMsg:
		if msg.ch == m.ticks {
			m.ticks = nil
		}
		m.refreshFocus()
		return m, nil

	case autosaveCheckMsg:
		if (m.state == StateEditNote || m.state == StatePreview) && !m.rt.saver.Pending() {
			m.status = m.t(i18n.NoteSaved)
			m.refreshNotes(m.editing.ID)
		}
		return m, nil

	case aiResultMsg:
		return m.handleAIResult(msg)

	case aiChunkMsg:
		return m.handleAIChunk(msg)

	case notelist.NewNoteMsg, notelist.OpenNoteMsg, notelist.RenameNoteMsg,
		notelist.DeleteNoteMsg, notelist.ExportNoteMsg:
		return m.handleNoteListMsg(msg)
	}

	switch m.state {
	case StateForm:
		return m.updateForm(msg)
	case StateEditNote:
		return m.updateEditor(msg)
	case StatePreview:
		return m.updatePreview(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	case StateAIResult:
		return m.updateAIResult(msg)
	}
	return m.updateTabs(msg)
}

func (m *Model) resize() {
	w := m.width - docStyle.GetHorizontalFrameSize()
	h := m.height - docStyle.GetVerticalFrameSize() - 4
	if w < 20 {
		w = 20
	}
	if h < 5 {
		h = 5
	}
	m.noteList.SetSize(w, h)
	m.editor.SetWidth(w)
	m.editor.SetHeight(h - 1)
	m.preview.Width = w
	m.preview.Height = h - 2
	m.journal.SetWidth(w)
}

func (m *Model) setTab(s SessionState) {
	m.tab = s
	m.state = s
	m.status = ""
	switch s {
	case StateFocus:
		m.refreshFocus()
	case StateBody:
		m.refreshBody()
	case StateNotes:
		m.refreshNotes("")
	}
}

func (m *Model) shiftTab(delta int) {
	idx := 0
	for i, s := range tabs {
		if s == m.tab {
			idx = i
		}
	}
	n := len(tabs)
	m.setTab(tabs[(idx+delta+n)%n])
}

func (m *Model) toggleLanguage() {
	next := models.LanguageChinese
	if m.lang == models.LanguageChinese {
		next = models.LanguageEnglish
	}
	if err := m.app.Records().SetLanguage(next); err != nil {
		m.status = m.t(i18n.LanguageSaveFailed, err)
		return
	}
	m.lang = next
	m.noteList.SetEmptyText(m.t(i18n.NotesEmpty))
}

func (m Model) updateTabs(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	filtering := m.state == StateNotes && m.noteList.Filtering()

	if ok && !filtering {
		switch {
		case key.Matches(keyMsg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(keyMsg, m.keys.Tab):
			m.shiftTab(1)
			return m, nil
		case key.Matches(keyMsg, m.keys.ShiftTab):
			m.shiftTab(-1)
			return m, nil
		case key.Matches(keyMsg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(keyMsg, m.keys.Lang):
			m.toggleLanguage()
			return m, nil
		}

		switch m.state {
		case StateFocus:
			switch {
			case key.Matches(keyMsg, m.keys.Toggle):
				return m, m.toggleSession()
			case key.Matches(keyMsg, m.keys.Note):
				return m, m.openJournalForm()
			}
		case StateBody:
			if key.Matches(keyMsg, m.keys.Add) {
				return m, m.openBodyForm()
			}
		}
	}

	if m.state == StateNotes {
		var cmd tea.Cmd
		m.noteList, cmd = m.noteList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) toggleSession() tea.Cmd {
	if m.tracker.State() == habit.Running {
		rec, err := m.tracker.Stop()
		if err != nil {
			m.status = err.Error()
			return nil
		}
		m.ticks = nil
		m.refreshFocus()
		m.status = m.t(i18n.FocusLogged, habit.FormatMinutes(rec.DurationMinutes))
		return nil
	}

	if _, err := m.tracker.Start(); err != nil {
		m.status = err.Error()
		return nil
	}
	m.status = ""
	m.ticks = m.tracker.Ticks(m.rt.ctx)
	return waitForTick(m.ticks)
}

// openForm switches to form state. back is where Esc or a successful
// submit returns to.
func (m *Model) openForm(form *huh.Form, back SessionState, submit func(*Model) (tea.Cmd, error)) tea.Cmd {
	m.form = form
	m.formSubmit = submit
	m.formReturn = back
	m.formError = ""
	m.state = StateForm
	return m.form.Init()
}

func (m *Model) closeForm() {
	m.state = m.formReturn
	m.form = nil
	m.formSubmit = nil
	m.formError = ""
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.closeForm()
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	cmds = append(cmds, cmd)

	switch m.form.State {
	case huh.StateCompleted:
		submit := m.formSubmit
		m.state = m.formReturn
		next, err := submit(&m)
		if err != nil {
			m.state = StateForm
			m.formError = err.Error()
			m.form.State = huh.StateNormal
			return m, tea.Batch(cmds...)
		}
		m.form = nil
		m.formSubmit = nil
		m.formError = ""
		return m, next
	case huh.StateAborted:
		m.closeForm()
		return m, nil
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) openJournalForm() tea.Cmd {
	fm := &JournalFormModel{Date: m.today.Date, Note: m.today.Note}
	return m.openForm(NewJournalForm(fm), StateFocus, func(m *Model) (tea.Cmd, error) {
		if _, err := m.tracker.SetNote(fm.Date, strings.TrimSpace(fm.Note)); err != nil {
			return nil, err
		}
		m.refreshFocus()
		return nil, nil
	})
}

func (m *Model) openBodyForm() tea.Cmd {
	fm := &BodyFormModel{Date: m.app.Today()}
	if n := len(m.bodyRecords); n > 0 {
		last := m.bodyRecords[n-1]
		fm.Gender = last.Gender
		fm.Height = formatOptional(last.Height)
	}
	return m.openForm(NewBodyForm(fm), StateBody, func(m *Model) (tea.Cmd, error) {
		u, err := fm.HealthUpdate()
		if err != nil {
			return nil, err
		}
		if _, err := m.merger.Upsert(u); err != nil {
			return nil, err
		}
		m.refreshBody()
		m.status = m.t(i18n.BodySaved, u.Date)
		return nil, nil
	})
}

func (m Model) handleNoteListMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case notelist.NewNoteMsg:
		note, err := m.notes.Create("", "")
		if err != nil {
			m.status = m.t(i18n.NoteCreateFailed, err)
			return m, nil
		}
		m.refreshNotes(note.ID)
		return m, m.openEditor(note)

	case notelist.OpenNoteMsg:
		note, err := m.notes.Get(msg.ID)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		return m, m.openEditor(note)

	case notelist.RenameNoteMsg:
		note, err := m.notes.Get(msg.ID)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		fm := &TitleFormModel{Title: note.Title}
		return m, m.openForm(NewTitleForm(fm), StateNotes, func(m *Model) (tea.Cmd, error) {
			if _, err := m.notes.Rename(note.ID, strings.TrimSpace(fm.Title)); err != nil {
				return nil, err
			}
			m.refreshNotes(note.ID)
			return nil, nil
		})

	case notelist.DeleteNoteMsg:
		m.noteToDeleteID = msg.ID
		m.state = StateConfirmDelete
		return m, nil

	case notelist.ExportNoteMsg:
		path, err := m.notes.Export(msg.ID, m.app.Config.Notes.ExportDir)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.status = m.t(i18n.NoteExported, path)
		return m, nil
	}
	return m, nil
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "y", "Y":
		if err := m.notes.Delete(m.noteToDeleteID); err != nil {
			m.status = err.Error()
		} else {
			m.status = m.t(i18n.NoteDeleted)
		}
		m.noteToDeleteID = ""
		m.state = StateNotes
		m.refreshNotes("")
	case "n", "N", "esc":
		m.noteToDeleteID = ""
		m.state = StateNotes
	}
	return m, nil
}

func (m *Model) openEditor(note models.Note) tea.Cmd {
	m.editing = note
	m.editor.SetValue(note.Content)
	m.state = StateEditNote
	m.status = m.t(i18n.NoteSaved)
	return m.editor.Focus()
}

func (m *Model) scheduleSave() tea.Cmd {
	m.editing.Content = m.editor.Value()
	m.rt.saver.Schedule(m.editing)
	m.status = m.t(i18n.NoteUnsaved)
	return tea.Tick(m.app.Config.Notes.AutosaveDelay+autosaveSlack, func(time.Time) tea.Msg {
		return autosaveCheckMsg{}
	})
}

func (m *Model) flushNote() {
	saved, err := m.rt.saver.Flush()
	if err != nil {
		m.status = m.t(i18n.NoteSaveFailed, err)
		return
	}
	if saved.ID != "" {
		m.editing = saved
	}
	m.status = m.t(i18n.NoteSaved)
}

func (m Model) updateEditor(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case keyMsg.String() == "ctrl+c":
			m.flushNote()
			m.quitting = true
			return m, tea.Quit
		case key.Matches(keyMsg, m.keys.Back):
			m.flushNote()
			m.editor.Blur()
			m.state = StateNotes
			m.refreshNotes(m.editing.ID)
			return m, nil
		case key.Matches(keyMsg, m.keys.Save):
			m.flushNote()
			m.refreshNotes(m.editing.ID)
			return m, nil
		case key.Matches(keyMsg, m.keys.Improve):
			return m, m.openImproveForm()
		case key.Matches(keyMsg, m.keys.Preview):
			return m, m.openPreview()
		case key.Matches(keyMsg, m.keys.Snippet):
			return m, m.openSnippetForm()
		case key.Matches(keyMsg, m.keys.Continue):
			svc, err := m.aiService()
			if err != nil {
				m.status = err.Error()
				return m, nil
			}
			return m, m.startContinue(svc)
		}
	}

	before := m.editor.Value()
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if m.editor.Value() != before {
		return m, tea.Batch(cmd, m.scheduleSave())
	}
	return m, cmd
}

func (m *Model) openPreview() tea.Cmd {
	out, err := m.rt.renderer.Render(m.editor.Value(), m.preview.Width)
	if err != nil {
		m.status = m.t(i18n.PreviewFailed, err)
		return nil
	}
	m.preview.SetContent(out)
	m.preview.GotoTop()
	m.editor.Blur()
	m.state = StatePreview
	return nil
}

func (m Model) updatePreview(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case keyMsg.String() == "ctrl+c":
			m.flushNote()
			m.quitting = true
			return m, tea.Quit
		case key.Matches(keyMsg, m.keys.Preview), key.Matches(keyMsg, m.keys.Back):
			m.state = StateEditNote
			return m, m.editor.Focus()
		}
	}
	var cmd tea.Cmd
	m.preview, cmd = m.preview.Update(msg)
	return m, cmd
}

func (m *Model) openSnippetForm() tea.Cmd {
	fm := &SnippetFormModel{Snippet: markdown.Snippets[0]}
	return m.openForm(NewSnippetForm(fm, m.t(i18n.SnippetTitle)), StateEditNote, func(m *Model) (tea.Cmd, error) {
		return tea.Batch(m.editor.Focus(), m.insertSnippet(fm.Snippet)), nil
	})
}

// insertSnippet writes the pair at the cursor and leaves the cursor
// between prefix and suffix.
func (m *Model) insertSnippet(s markdown.Snippet) tea.Cmd {
	m.editor.InsertString(s.Prefix + s.Suffix)
	if n := utf8.RuneCountInString(s.Suffix); n > 0 {
		li := m.editor.LineInfo()
		m.editor.SetCursor(li.StartColumn + li.ColumnOffset - n)
	}
	return m.scheduleSave()
}

func (m *Model) openImproveForm() tea.Cmd {
	fm := &AIFormModel{Preset: ai.PresetGeneric}
	return m.openForm(NewAIForm(fm, m.lang), StateEditNote, func(m *Model) (tea.Cmd, error) {
		svc, err := m.aiService()
		if err != nil {
			m.status = err.Error()
			return nil, nil
		}
		return m.startImprove(svc, fm.instruction(m.lang)), nil
	})
}

// newAIRequest cancels any request in flight and returns a context for
// the next one along with its sequence number.
func (m *Model) newAIRequest() (context.Context, int) {
	m.cancelAI()
	m.aiSeq++
	ctx, cancel := context.WithCancel(m.rt.ctx)
	m.rt.aiCancel = cancel
	m.aiBusy = true
	m.suggestion = ""
	m.state = StateAIResult
	return ctx, m.aiSeq
}

func (m *Model) cancelAI() {
	if m.rt.aiCancel != nil {
		m.rt.aiCancel()
		m.rt.aiCancel = nil
	}
	m.aiBusy = false
	m.aiStream = nil
}

func (m *Model) startImprove(svc *ai.Service, instruction string) tea.Cmd {
	text := m.editor.Value()
	ctx, seq := m.newAIRequest()
	return func() tea.Msg {
		out, err := svc.Improve(ctx, text, instruction)
		return aiResultMsg{seq: seq, text: out, err: err}
	}
}

func (m *Model) startContinue(svc *ai.Service) tea.Cmd {
	text := m.editor.Value()
	ctx, seq := m.newAIRequest()

	ch := make(chan aiChunkMsg)
	send := func(msg aiChunkMsg) {
		select {
		case ch <- msg:
		case <-ctx.Done():
		}
	}
	go func() {
		defer close(ch)
		err := svc.ContinueWriting(ctx, text, func(chunk string) {
			send(aiChunkMsg{seq: seq, chunk: chunk})
		})
		send(aiChunkMsg{seq: seq, done: true, err: err})
	}()

	m.aiStream = ch
	return waitForChunk(ch)
}

func (m Model) handleAIResult(msg aiResultMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.aiSeq || !m.aiBusy {
		return m, nil
	}
	m.aiBusy = false
	if msg.err != nil {
		logger.Warn("AI improve failed", "error", msg.err)
		m.status = m.t(i18n.AIFailed, msg.err)
		m.state = StateEditNote
		return m, nil
	}
	m.suggestion = msg.text
	return m, nil
}

func (m Model) handleAIChunk(msg aiChunkMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.aiSeq || m.aiStream == nil {
		return m, nil
	}
	if !msg.done {
		m.suggestion += msg.chunk
		return m, waitForChunk(m.aiStream)
	}

	m.aiBusy = false
	m.aiStream = nil
	if msg.err != nil {
		logger.Warn("AI continuation failed", "error", msg.err)
		m.status = m.t(i18n.AIFailed, msg.err)
		if m.suggestion == "" {
			m.state = StateEditNote
		}
	}
	return m, nil
}

func (m Model) updateAIResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "enter", "y", "Y":
		if m.aiBusy || m.suggestion == "" {
			return m, nil
		}
		m.editor.SetValue(notes.ApplySuggestion(m.editor.Value(), m.suggestion))
		m.suggestion = ""
		m.state = StateEditNote
		return m, m.scheduleSave()
	case "n", "N", "esc":
		m.cancelAI()
		m.suggestion = ""
		m.state = StateEditNote
	case "ctrl+c":
		m.cancelAI()
		m.flushNote()
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}
