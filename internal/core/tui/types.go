package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Lin-Jiong-HDU/gsh/internal/core/security"
)

// ReportMsg carries a fresh threat snapshot
type ReportMsg struct {
	Report security.ThreatReport
	At     time.Time
}

// TickMsg asks for the next snapshot
type TickMsg struct{}

// Model is the interface for the TUI model
type Model interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (tea.Model, tea.Cmd)
	View() string
}
