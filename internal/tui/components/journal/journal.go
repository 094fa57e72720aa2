// Package journal renders the focus journal timeline.
package journal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/markease/internal/habit"
	"github.com/julianstephens/markease/internal/models"
)

var (
	todayStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	dateStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	focusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

type Model struct {
	records []models.HabitRecord
	today   string
	width   int
}

func New(width int) Model {
	return Model{width: width}
}

// SetRecords takes the timeline newest first.
func (m *Model) SetRecords(records []models.HabitRecord, today string) {
	m.records = records
	m.today = today
}

func (m *Model) SetWidth(width int) {
	m.width = width
}

func (m Model) View() string {
	var b strings.Builder
	for _, r := range m.records {
		b.WriteString(m.row(r))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) row(r models.HabitRecord) string {
	date := dateStyle.Render(r.Date)
	if r.Date == m.today {
		date = todayStyle.Render(r.Date)
	}

	dur := emptyStyle.Render(fmt.Sprintf("%6s", "-"))
	if r.HasFocus() {
		dur = focusStyle.Render(fmt.Sprintf("%6s", habit.FormatMinutes(r.DurationMinutes)))
	}

	note := emptyStyle.Render("...")
	if r.HasNote() {
		note = firstLine(r.Note)
	}

	line := fmt.Sprintf("%s  %s  %s", date, dur, note)
	if m.width > 0 && lipgloss.Width(line) > m.width {
		// keep the date and duration, clip the note
		room := m.width - lipgloss.Width(date) - lipgloss.Width(dur) - 5
		if room > 0 && r.HasNote() {
			line = fmt.Sprintf("%s  %s  %s…", date, dur, clip(firstLine(r.Note), room))
		}
	}
	return line
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// clip cuts s to at most n terminal cells.
func clip(s string, n int) string {
	var b strings.Builder
	used := 0
	for _, r := range s {
		w := lipgloss.Width(string(r))
		if used+w > n {
			break
		}
		used += w
		b.WriteRune(r)
	}
	return b.String()
}
