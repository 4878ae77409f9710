package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/ruleflow/pkg/errors"
	"github.com/matzehuels/ruleflow/pkg/flow"
)

// historySize is how many past refreshes the watch view lists.
const historySize = 5

var (
	tuiDimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	tuiErrorStyle = lipgloss.NewStyle().Foreground(colorRed)
	tuiBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// =============================================================================
// WatchModel - Live view of a followed trace
// =============================================================================

// WatchModel is the bubbletea model of 'watch --tui'. It shows the latest
// good graph, keeps it on screen while a refresh fails, and lists the last
// few refreshes.
type WatchModel struct {
	Path    string
	Latest  *refreshMsg // last refresh that produced a graph
	Failure *refreshMsg // set when the newest refresh failed
	History []refreshMsg
	Width   int
}

func newWatchModel(path string) WatchModel {
	return WatchModel{Path: path}
}

func (m WatchModel) Init() tea.Cmd {
	return nil
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Width = msg.Width
	case refreshMsg:
		if msg.summary != "" {
			latest := msg
			m.Latest = &latest
		}
		if msg.err != nil {
			failed := msg
			m.Failure = &failed
		} else {
			m.Failure = nil
		}
		m.History = append([]refreshMsg{msg}, m.History...)
		if len(m.History) > historySize {
			m.History = m.History[:historySize]
		}
	}
	return m, nil
}

func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("ruleflow watch"))
	b.WriteString(" ")
	b.WriteString(tuiDimStyle.Render(m.Path))
	b.WriteString("\n")
	b.WriteString(tuiDimStyle.Render("q quit"))
	b.WriteString("\n\n")

	if m.Latest == nil && m.Failure == nil {
		b.WriteString(tuiDimStyle.Render("Waiting for the first read..."))
		return b.String()
	}

	if m.Latest != nil {
		l := m.Latest
		b.WriteString(StyleValue.Bold(true).Render(l.summary))
		b.WriteString("\n")
		b.WriteString(statsLine(l.nodes, l.edges, l.cyclic, l.cached))
		b.WriteString("\n")
		if l.lastRule != "" {
			b.WriteString(tuiDimStyle.Render("  last rule: "))
			b.WriteString(StyleHighlight.Render(flow.Flatten(l.lastRule)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(columnsTable(l.columns, l.lastRule))
		b.WriteString("\n")
	}

	if m.Failure != nil {
		b.WriteString("\n")
		b.WriteString(tuiBoxStyle.BorderForeground(colorRed).Render(
			tuiErrorStyle.Render(iconError + " " + errors.UserMessage(m.Failure.err))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(tuiDimStyle.Render("Recent refreshes"))
	b.WriteString("\n")
	for _, h := range m.History {
		b.WriteString(historyLine(h))
		b.WriteString("\n")
	}

	return b.String()
}

func historyLine(h refreshMsg) string {
	stamp := tuiDimStyle.Render(fmt.Sprintf("  #%-3d %s", h.seq, h.at.Format("15:04:05")))
	if h.err != nil {
		return stamp + " " + tuiErrorStyle.Render(iconError+" "+errors.UserMessage(h.err))
	}
	detail := fmt.Sprintf("%d event(s), %s", h.events, h.elapsed.Round(time.Millisecond))
	if h.seq == 1 {
		detail = "initial read, " + h.elapsed.Round(time.Millisecond).String()
	}
	return stamp + " " + styleIconSuccess.Render(iconSuccess) + " " + h.summary + " " + tuiDimStyle.Render("("+detail+")")
}
