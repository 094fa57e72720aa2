package journal

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/markease/internal/models"
)

func TestView(t *testing.T) {
	m := New(0)
	m.SetRecords([]models.HabitRecord{
		{Date: "2024-03-04", DurationMinutes: 90, Note: "deep work\nsecond line"},
		{Date: "2024-03-03"},
	}, "2024-03-04")

	lines := strings.Split(m.View(), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "1.5h") || !strings.Contains(lines[0], "deep work") {
		t.Errorf("first row = %q", lines[0])
	}
	if strings.Contains(lines[0], "second line") {
		t.Errorf("only the first note line should render: %q", lines[0])
	}
	if !strings.Contains(lines[1], "...") {
		t.Errorf("empty day should show a placeholder: %q", lines[1])
	}
}

func TestViewClipsLongNotes(t *testing.T) {
	m := New(40)
	m.SetRecords([]models.HabitRecord{
		{Date: "2024-03-04", DurationMinutes: 5, Note: strings.Repeat("写", 60)},
	}, "2024-03-04")

	if w := lipgloss.Width(m.View()); w > 40 {
		t.Errorf("row width = %d, want <= 40", w)
	}
}
