package reporter

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/vulnforge/internal/analyze"
)

var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// TUI styles
var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	runStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")) // cyan
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Pipeline stages shown in the TUI header.
const (
	StageExtracting  = "extracting"
	StageAnalyzing   = "analyzing"
	StageRemediating = "remediating"
)

type tickMsg time.Time

// StageMsg moves the TUI to a new pipeline stage.
type StageMsg string

// ProgressMsg reports one analyzed file.
type ProgressMsg analyze.Progress

// DoneMsg ends the TUI. Err is nil on success.
type DoneMsg struct{ Err error }

// ProgressModel is the Bubbletea model for the live analysis view.
type ProgressModel struct {
	repoURL   string
	cancelRun func() // called on 'q' to cancel the run context

	stage        string
	total        int
	events       []analyze.Progress
	findings     int
	failed       int
	started      time.Time
	scrollOffset int
	follow       bool
	frame        int
	width        int
	height       int
	done         bool
	err          error
}

// NewProgressModel creates a new TUI model.
func NewProgressModel(repoURL string, cancelRun func()) ProgressModel {
	return ProgressModel{
		repoURL:   repoURL,
		cancelRun: cancelRun,
		stage:     StageExtracting,
		started:   time.Now(),
		follow:    true,
	}
}

// Init implements tea.Model.
func (m ProgressModel) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancelRun != nil {
				m.cancelRun()
			}
			m.done = true
			return m, tea.Quit

		case "j", "down":
			m.scrollDown(1)

		case "k", "up":
			m.follow = false
			m.scrollUp(1)

		case "g", "home":
			m.follow = false
			m.scrollOffset = 0

		case "G", "end":
			m.follow = true
			m.scrollOffset = m.maxScroll()
		}

	case StageMsg:
		m.stage = string(msg)

	case ProgressMsg:
		p := analyze.Progress(msg)
		m.stage = StageAnalyzing
		m.total = p.Total
		m.events = append(m.events, p)
		if p.Failed {
			m.failed++
		} else {
			m.findings += p.Findings
		}
		if m.follow {
			m.scrollOffset = m.maxScroll()
		}

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit

	case tickMsg:
		m.frame++
		return m, tickCmd()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.follow {
			m.scrollOffset = m.maxScroll()
		}
	}

	return m, nil
}

func (m *ProgressModel) scrollDown(n int) {
	m.scrollOffset += n
	if max := m.maxScroll(); m.scrollOffset >= max {
		m.scrollOffset = max
		m.follow = true
	}
}

func (m *ProgressModel) scrollUp(n int) {
	m.scrollOffset -= n
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

func (m ProgressModel) visibleLines() int {
	// header(1) + stage(1) + bar(1) + blank(1) + help(1) = 5 reserved lines
	avail := m.height - 5
	if avail < 3 {
		return 3
	}
	return avail
}

func (m ProgressModel) maxScroll() int {
	total := len(m.events)
	vis := m.visibleLines()
	if total <= vis {
		return 0
	}
	return total - vis
}

// Err returns the pipeline error delivered with DoneMsg.
func (m ProgressModel) Err() error { return m.err }

// View implements tea.Model.
func (m ProgressModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("vulnforge — " + m.repoURL))
	b.WriteString("\n")
	b.WriteString(m.stageLine())
	b.WriteString("\n")
	b.WriteString(m.progressLine())
	b.WriteString("\n")

	vis := m.visibleLines()
	start := m.scrollOffset
	end := start + vis
	if end > len(m.events) {
		end = len(m.events)
	}
	if start > end {
		start = end
	}
	for _, p := range m.events[start:end] {
		b.WriteString(fmtEvent(p))
		b.WriteString("\n")
	}
	for i := end - start; i < vis; i++ {
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("  ↑↓/jk: scroll  g/G: top/follow  q: quit"))
	return b.String()
}

func (m ProgressModel) stageLine() string {
	elapsed := time.Since(m.started).Truncate(time.Second)
	if m.done {
		if m.err != nil {
			return failedStyle.Render(fmt.Sprintf("  ✗ failed after %s: %v", elapsed, m.err))
		}
		return doneStyle.Render(fmt.Sprintf("  ✓ done in %s", elapsed))
	}
	spinner := spinnerChars[m.frame%len(spinnerChars)]
	return runStyle.Render(fmt.Sprintf("  %s %s  %s", spinner, m.stage, elapsed))
}

func (m ProgressModel) progressLine() string {
	const barWidth = 30
	n := len(m.events)
	filled := 0
	if m.total > 0 {
		filled = n * barWidth / m.total
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	parts := []string{fmt.Sprintf("  %s %d/%d", bar, n, m.total)}
	if m.findings > 0 {
		parts = append(parts, warnStyle.Render(fmt.Sprintf("%d findings", m.findings)))
	}
	if m.failed > 0 {
		parts = append(parts, failedStyle.Render(fmt.Sprintf("%d unparsed", m.failed)))
	}
	return strings.Join(parts, "  ")
}

func fmtEvent(p analyze.Progress) string {
	counter := fmt.Sprintf("[%d/%d]", p.Index, p.Total)
	switch {
	case p.Failed:
		return failedStyle.Render(fmt.Sprintf("  ✗ %-9s %s", counter, p.File))
	case p.Findings > 0:
		return warnStyle.Render(fmt.Sprintf("  ! %-9s %s  %d", counter, p.File, p.Findings))
	default:
		return dimStyle.Render(fmt.Sprintf("  ✓ %-9s %s", counter, p.File))
	}
}
