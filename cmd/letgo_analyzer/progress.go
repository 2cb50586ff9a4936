package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/user/letgo_analyzer_go/internal/analysis"
	"github.com/user/letgo_analyzer_go/internal/threshold"
)

const progressBarWidth = 40

var (
	pCyan  = lipgloss.Color("#8BE9FD")
	pGreen = lipgloss.Color("#50FA7B")
	pGray  = lipgloss.Color("#6272A4")
	pRed   = lipgloss.Color("#FF5555")

	pTitle = lipgloss.NewStyle().Bold(true).Foreground(pCyan)
	pBar   = lipgloss.NewStyle().Foreground(pGreen)
	pDim   = lipgloss.NewStyle().Foreground(pGray)
	pErr   = lipgloss.NewStyle().Foreground(pRed)
)

// progressMsg is sent for every finished chunk.
type progressMsg analysis.Progress

// analysisDoneMsg is sent once Analyze returns.
type analysisDoneMsg struct{ err error }

// progressModel is the Bubbletea model shown while chunks are evaluated.
type progressModel struct {
	title    string
	cancel   context.CancelFunc
	channels map[analysis.Channel]analysis.Progress
	stopping bool
	err      error
}

func newProgressModel(title string, cancel context.CancelFunc) progressModel {
	return progressModel{
		title:    title,
		cancel:   cancel,
		channels: make(map[analysis.Channel]analysis.Progress),
	}
}

func (m progressModel) Init() tea.Cmd { return nil }

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			// Wait for Analyze to return so no worker outlives the view.
			m.stopping = true
			m.cancel()
		}
	case progressMsg:
		m.channels[msg.Channel] = analysis.Progress(msg)
	case analysisDoneMsg:
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func progressBar(done, total int) string {
	filled := progressBarWidth
	if total > 0 {
		filled = done * progressBarWidth / total
	}
	return pBar.Render(strings.Repeat("█", filled)) + pDim.Render(strings.Repeat("░", progressBarWidth-filled))
}

func (m progressModel) View() string {
	var sb strings.Builder
	sb.WriteString(pTitle.Render(m.title) + "\n")
	for _, ch := range []analysis.Channel{analysis.Current, analysis.Voltage} {
		p, ok := m.channels[ch]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "  %-8s %s %s\n", ch, progressBar(p.Done, p.Total), pDim.Render(fmt.Sprintf("%d/%d chunks", p.Done, p.Total)))
	}
	switch {
	case m.err != nil:
		sb.WriteString(pErr.Render("  "+m.err.Error()) + "\n")
	case m.stopping:
		sb.WriteString(pDim.Render("  cancelling...") + "\n")
	}
	return sb.String()
}

// analyzeWithProgress runs Analyze while a progress view renders on stderr.
// The view only displays; the result always comes from Analyze itself.
func (a *App) analyzeWithProgress(table *threshold.Table, req analysis.Request) (*analysis.Result, error) {
	ctx, cancel := context.WithCancel(a.ctx)
	defer cancel()

	m := newProgressModel("Analyzing "+req.Config.String(), cancel)
	p := tea.NewProgram(m, tea.WithOutput(os.Stderr))

	type outcome struct {
		res *analysis.Result
		err error
	}
	done := make(chan outcome, 1)
	req.Progress = func(pr analysis.Progress) { p.Send(progressMsg(pr)) }
	go func() {
		res, err := analysis.Analyze(ctx, table, req)
		done <- outcome{res, err}
		p.Send(analysisDoneMsg{err: err})
	}()

	a.runView(p.Run)
	out := <-done
	return out.res, out.err
}

// runView drives a progress view. A terminal that cannot be driven only
// loses the view, so the failure is logged and the analysis carries on.
func (a *App) runView(run func() (tea.Model, error)) {
	if _, err := run(); err != nil {
		a.sendStatus("progress view: %v", err)
	}
}
