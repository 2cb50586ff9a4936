package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/user/letgo_analyzer_go/internal/analysis"
)

var (
	colorRed    = lipgloss.Color("#FF5555")
	colorYellow = lipgloss.Color("#F1FA8C")
	colorGreen  = lipgloss.Color("#50FA7B")
	colorCyan   = lipgloss.Color("#8BE9FD")
	colorWhite  = lipgloss.Color("#F8F8F2")
	colorGray   = lipgloss.Color("#6272A4")

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGray).
			Padding(0, 1)

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	labelStyle  = lipgloss.NewStyle().Foreground(colorGray).Width(16)
	valueStyle  = lipgloss.NewStyle().Foreground(colorWhite)
	warnStyle   = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(colorGray)
)

func verdictStyle(v analysis.Verdict) lipgloss.Style {
	if v == analysis.Pass {
		return passStyle
	}
	return failStyle
}
