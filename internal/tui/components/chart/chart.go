// Package chart renders small trend charts for the dashboard tabs.
package chart

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"
)

var (
	sparkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Sparkline draws values oldest to newest. Zero values are gaps in the
// underlying data and are drawn as empty columns.
func Sparkline(values []float64, width, height int) string {
	if len(values) == 0 {
		return dimStyle.Render(fmt.Sprintf("%-*s", width, "no data"))
	}

	spark := sparkline.New(width, height)
	spark.PushAll(values)
	spark.Draw()
	return sparkStyle.Render(spark.View())
}

// Labeled puts a caption and the latest non-zero value above a sparkline.
func Labeled(caption string, values []float64, width, height int) string {
	latest := "-"
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] != 0 {
			latest = fmt.Sprintf("%.1f", values[i])
			break
		}
	}
	header := caption + "  " + lipgloss.NewStyle().Bold(true).Render(latest)
	return lipgloss.JoinVertical(lipgloss.Left, header, Sparkline(values, width, height))
}

// Axis renders week labels spaced under a chart of the given width.
func Axis(labels []string, width int) string {
	if len(labels) == 0 {
		return ""
	}
	first, last := labels[0], labels[len(labels)-1]
	gap := width - len(first) - len(last)
	if gap < 1 || len(labels) == 1 {
		return dimStyle.Render(last)
	}
	return dimStyle.Render(first + strings.Repeat(" ", gap) + last)
}
