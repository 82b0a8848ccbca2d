package ui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).PaddingLeft(2)

	frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
)

const tickInterval = 100 * time.Millisecond

type tickMsg struct{}

type doneMsg struct {
	details []string
	err     error
}

type model struct {
	title    string
	frame    int
	done     bool
	canceled bool
	details  []string
	err      error
	cancel   context.CancelFunc
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.frame = (m.frame + 1) % len(frames)
		return m, tick()
	case doneMsg:
		m.done = true
		m.details = msg.details
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.canceled = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	switch {
	case m.canceled:
		b.WriteString(failStyle.Render("✘ ") + titleStyle.Render(m.title) + " canceled\n")
		return b.String()
	case !m.done:
		b.WriteString(frames[m.frame] + " " + titleStyle.Render(m.title) + "\n")
		return b.String()
	case m.err != nil:
		b.WriteString(failStyle.Render("✘ ") + titleStyle.Render(m.title) + "\n")
	default:
		b.WriteString(okStyle.Render("✔ ") + titleStyle.Render(m.title) + "\n")
	}
	for _, line := range m.details {
		b.WriteString(detailStyle.Render(line) + "\n")
	}
	if m.err != nil {
		b.WriteString(detailStyle.Render("error: "+m.err.Error()) + "\n")
	}
	return b.String()
}

// Run shows a spinner while fn runs and prints its details when it returns.
// Pressing ctrl+c cancels the context handed to fn.
func Run(title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(model{title: title, cancel: cancel})
	go func() {
		details, err := fn(ctx)
		p.Send(doneMsg{details: details, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(model)
	if !ok || m.canceled {
		return nil, context.Canceled
	}
	return m.details, m.err
}
