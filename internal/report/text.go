// Package report renders analysis results as terminal text, JSON, PNG plots
// and PDF documents.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/user/letgo_analyzer_go/internal/analysis"
)

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

func channelUnit(ch analysis.Channel) string {
	if ch == analysis.Voltage {
		return "V"
	}
	return "A"
}

// WriteText writes a human-readable summary of run to w.
func WriteText(w io.Writer, run *Run) error {
	res := run.Result
	var b strings.Builder

	b.WriteString(titleStyle.Render("Let-go analysis") + " " + dimStyle.Render(run.ID.String()) + "\n")
	lines := []string{
		row("data file", run.DataFile),
		row("standard", res.Config.Version.String()),
		row("interpretation", res.Config.Interpretation.String()),
		row("condition", res.Config.Condition.String()),
		row("skip time", formatSI(res.SkipTime, "s")),
		row("min window", formatSI(res.MinWindow, "s")),
	}
	for _, ch := range res.Channels {
		lines = append(lines, row(string(ch.Channel), fmt.Sprintf("%d samples, %d violation intervals", ch.Samples, len(ch.Violations))))
	}
	b.WriteString(panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)) + "\n")

	verdict := verdictStyle(res.Verdict).Render(string(res.Verdict))
	if !res.Analyzed {
		verdict += dimStyle.Render(" (no samples at or after the skip time)")
	}
	b.WriteString("Verdict: " + verdict + "\n")

	if len(res.Segments) > 0 {
		b.WriteString("\n" + headerStyle.Render(fmt.Sprintf("%-4s %-12s %-12s %-12s %-16s %-14s %-14s",
			"#", "start", "end", "duration", "channels", "peak current", "peak voltage")) + "\n")
		for i, seg := range res.Segments {
			names := make([]string, len(seg.Channels))
			for j, ch := range seg.Channels {
				names[j] = string(ch)
			}
			b.WriteString(fmt.Sprintf("%-4d %-12s %-12s %-12s %-16s %-14s %-14s\n",
				i+1,
				formatSI(seg.Start, "s"),
				formatSI(seg.End, "s"),
				formatSI(seg.Duration(), "s"),
				strings.Join(names, ","),
				excessText(seg.PeakCurrentExcess, analysis.Current),
				excessText(seg.PeakVoltageExcess, analysis.Voltage),
			))
		}
	}

	if res.Analyzed {
		b.WriteString("\n" + headerStyle.Render(compliantHeading(res)) + "\n")
		if len(res.Compliant) == 0 {
			b.WriteString(dimStyle.Render(noCompliantText) + "\n")
		}
		for i, r := range res.Compliant {
			b.WriteString(fmt.Sprintf("%-4d %-12s %-12s %-12s\n",
				i+1, formatSI(r.Start, "s"), formatSI(r.End, "s"), formatSI(r.Duration(), "s")))
		}
	}

	for _, note := range run.Warnings {
		b.WriteString(warnStyle.Render("warning: ") + note + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

const noCompliantText = "No regions comply with let-go limits"

func compliantHeading(res *analysis.Result) string {
	return fmt.Sprintf("Compliant regions of at least %s", formatSI(res.MinWindow, "s"))
}

func excessText(v float64, ch analysis.Channel) string {
	if v <= 0 {
		return "-"
	}
	return "+" + formatSI(v, channelUnit(ch))
}

// document is the JSON form of a Run.
type document struct {
	RunID    string    `json:"run_id"`
	Created  time.Time `json:"created"`
	Version  string    `json:"version,omitempty"`
	DataFile string    `json:"data_file"`
	Warnings []string  `json:"warnings"`
	*analysis.Result
}

// WriteJSON writes run as an indented JSON document.
func WriteJSON(w io.Writer, run *Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(document{
		RunID:    run.ID.String(),
		Created:  run.Created,
		Version:  run.Version,
		DataFile: run.DataFile,
		Warnings: run.Warnings,
		Result:   run.Result,
	})
}
