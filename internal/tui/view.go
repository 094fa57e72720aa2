package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/markease/internal/habit"
	"github.com/julianstephens/markease/internal/i18n"
	"github.com/julianstephens/markease/internal/models"
	"github.com/julianstephens/markease/internal/tui/components/chart"
)

const (
	chartWidth  = 32
	chartHeight = 4
	recentRows  = 5
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string

	switch m.state {
	case StateFocus:
		content = m.viewFocus()
	case StateBody:
		content = m.viewBody()
	case StateNotes:
		content = docStyle.Render(m.noteList.View())
	case StateForm:
		content = m.viewForm()
	case StateEditNote:
		content = m.viewEditor()
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	case StateAIResult:
		content = m.viewAIResult()
	case StatePreview:
		content = m.viewPreview()
	}

	parts := []string{m.viewTabs(), content}
	if m.status != "" {
		parts = append(parts, labelStyle.Render(m.status))
	}
	parts = append(parts, m.help.View(m))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewTabs() string {
	var out []string
	for _, s := range tabs {
		title := m.t(tabTitles[s])
		if m.tab == s {
			out = append(out, activeTabStyle.Render(title))
		} else {
			out = append(out, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, out...)
}

func (m Model) viewFocus() string {
	label := m.t(i18n.FocusIdle)
	elapsed := habit.FormatElapsed(m.tracker.Elapsed())
	if m.tracker.State() == habit.Running {
		label = m.t(i18n.FocusRunning)
	}
	timer := timerStyle.Render(lipgloss.JoinVertical(lipgloss.Center, label, elapsed))

	totals := lipgloss.JoinVertical(lipgloss.Left,
		m.t(i18n.FocusToday, habit.FormatMinutes(m.today.DurationMinutes)),
		m.t(i18n.FocusTotal, m.summary.Hours),
		m.t(i18n.FocusDays, m.summary.Days),
	)
	if m.today.HasNote() {
		totals = lipgloss.JoinVertical(lipgloss.Left, totals, "", labelStyle.Render(firstLine(m.today.Note)))
	}
	top := lipgloss.JoinHorizontal(lipgloss.Top, timer, "  ", totals)

	values := make([]float64, len(m.focusWeeks))
	labels := make([]string, len(m.focusWeeks))
	for i, w := range m.focusWeeks {
		values[i] = float64(w.Minutes)
		labels[i] = w.Label
	}
	weekly := lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render(m.t(i18n.FocusWeekly)),
		chart.Sparkline(values, chartWidth, chartHeight),
		chart.Axis(labels, chartWidth),
	)

	days := lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render(m.t(i18n.FocusJournal)),
		m.journal.View(),
	)

	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, top, weekly, days))
}

func (m Model) viewBody() string {
	if len(m.bodyRecords) == 0 {
		return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			labelStyle.Render(m.t(i18n.BodyEmpty)),
			"",
			m.t(i18n.BodyHint),
		))
	}

	latest := m.bodyRecords[len(m.bodyRecords)-1]
	summary := lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render(latest.Date),
		fmt.Sprintf("%s: %s", m.t(i18n.BodyHeight), orDash(latest.Height)),
		fmt.Sprintf("%s: %s", m.t(i18n.BodyWeight), orDash(latest.Weight)),
		fmt.Sprintf("%s: %s", m.t(i18n.BodyFat), orDash(latest.BodyFat)),
	)

	n := len(m.bodyWeeks)
	fat, weight, waist := make([]float64, n), make([]float64, n), make([]float64, n)
	labels := make([]string, n)
	for i, w := range m.bodyWeeks {
		fat[i] = w.BodyFat
		weight[i] = w.Weight
		waist[i] = w.Waist
		labels[i] = w.Label
	}
	charts := lipgloss.JoinHorizontal(lipgloss.Top,
		chart.Labeled(m.t(i18n.BodyFat), fat, chartWidth/2, chartHeight),
		"  ",
		chart.Labeled(m.t(i18n.BodyWeight), weight, chartWidth/2, chartHeight),
		"  ",
		chart.Labeled(m.t(i18n.BodyWaist), waist, chartWidth/2, chartHeight),
	)

	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		summary,
		"",
		charts,
		chart.Axis(labels, chartWidth/2),
		m.viewRecent(),
	))
}

func (m Model) viewRecent() string {
	var b strings.Builder
	count := 0
	for i := len(m.bodyRecords) - 1; i >= 0 && count < recentRows; i-- {
		r := m.bodyRecords[i]
		waist := "-"
		if v, ok := r.Dimension(models.Waist); ok {
			waist = fmt.Sprintf("%.1f", v)
		}
		b.WriteString(m.t(i18n.BodyRow, r.Date, orDash(r.Weight), orDash(r.BodyFat), waist))
		b.WriteByte('\n')
		count++
	}
	return lipgloss.JoinVertical(lipgloss.Left, sectionStyle.Render(m.t(i18n.BodyRecent)), strings.TrimRight(b.String(), "\n"))
}

func (m Model) viewForm() string {
	content := m.form.View()
	if m.formError != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, content, dangerStyle.Render(m.formError))
	}
	return docStyle.Render(content)
}

func (m Model) viewEditor() string {
	title := sectionStyle.Render(m.editing.Title)
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, m.editor.View()))
}

func (m Model) viewConfirmDelete() string {
	title := m.noteToDeleteID
	if note, err := m.notes.Get(m.noteToDeleteID); err == nil {
		title = note.Title
	}
	return lipgloss.Place(m.width, m.height-4,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(m.t(i18n.NoteDeleteConfirm)),
			"",
			title,
			"",
			m.t(i18n.ConfirmYesNo),
		),
	)
}

func (m Model) viewAIResult() string {
	body := m.suggestion
	if m.aiBusy && body == "" {
		body = warningStyle.Render(m.t(i18n.AIWorking))
	}

	width := m.width - docStyle.GetHorizontalFrameSize() - previewStyle.GetHorizontalFrameSize()
	if width < 20 {
		width = 20
	}
	footer := m.t(i18n.AIApplyDiscard)
	if m.aiBusy {
		footer = warningStyle.Render(m.t(i18n.AIWorking)) + "   " + m.t(i18n.AICancel)
	}
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render(m.editing.Title),
		previewStyle.Width(width).Render(body),
		footer,
	))
}

func (m Model) viewPreview() string {
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render(m.editing.Title),
		m.preview.View(),
		labelStyle.Render(m.t(i18n.PreviewFooter)),
	))
}

func orDash(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *p)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
