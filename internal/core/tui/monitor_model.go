// Package tui is the live threat monitor behind `gsh monitor`.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Lin-Jiong-HDU/gsh/internal/core/security"
)

// DefaultInterval is the refresh period of the monitor.
const DefaultInterval = time.Second

// model is the Bubble Tea model for the threat monitor
type model struct {
	detector    security.Detector
	posture     security.Posture
	interval    time.Duration
	now         func() time.Time
	report      security.ThreatReport
	lastCheck   time.Time
	checks      int
	paused      bool
	showingHelp bool
	keys        keyMap
	spinner     spinner.Model
	renderer    *Renderer
	width       int
	height      int
}

// NewModel creates a monitor that snapshots d every interval
func NewModel(d security.Detector, posture security.Posture, interval time.Duration) Model {
	if interval <= 0 {
		interval = DefaultInterval
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	return model{
		detector: d,
		posture:  posture,
		interval: interval,
		now:      time.Now,
		keys:     defaultKeyMap(),
		spinner:  sp,
		renderer: NewRenderer(0, 0),
	}
}

// Init starts the first snapshot and the spinner
func (m model) Init() tea.Cmd {
	return tea.Batch(
		tea.WindowSize(),
		m.spinner.Tick,
		m.probe(),
	)
}

// probe takes a snapshot off the update loop
func (m model) probe() tea.Cmd {
	d, now := m.detector, m.now
	return func() tea.Msg {
		return ReportMsg{Report: security.Snapshot(d), At: now()}
	}
}

func (m model) schedule() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.renderer = NewRenderer(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case ReportMsg:
		m.report = msg.Report
		m.lastCheck = msg.At
		m.checks++
		if m.paused {
			return m, nil
		}
		return m, m.schedule()

	case TickMsg:
		if m.paused {
			return m, nil
		}
		return m, m.probe()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.keys.Quit.matches(msg), m.keys.ForceQuit.matches(msg), msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case m.keys.HelpKey.matches(msg):
		m.showingHelp = !m.showingHelp
		return m, nil
	case m.keys.Refresh.matches(msg):
		return m, m.probe()
	case m.keys.Pause.matches(msg):
		m.paused = !m.paused
		if !m.paused {
			return m, m.probe()
		}
		return m, nil
	}
	return m, nil
}

// View renders the UI
func (m model) View() string {
	if m.showingHelp {
		return m.renderer.RenderHelp(&m)
	}
	return m.renderer.Render(&m)
}
