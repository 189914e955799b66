package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Lin-Jiong-HDU/gsh/internal/core/security"
)

// Renderer handles TUI rendering
type Renderer struct {
	width  int
	height int
	style  *StyleConfig
}

// StyleConfig defines visual styles
type StyleConfig struct {
	TitleColor   lipgloss.Color
	SubtleColor  lipgloss.Color
	ErrorColor   lipgloss.Color
	SuccessColor lipgloss.Color
	WarningColor lipgloss.Color
	BorderColor  lipgloss.Color
}

// DefaultStyleConfig returns the default style configuration
func DefaultStyleConfig() *StyleConfig {
	return &StyleConfig{
		TitleColor:   lipgloss.Color("10"),  // Green
		SubtleColor:  lipgloss.Color("241"), // Grey
		ErrorColor:   lipgloss.Color("9"),   // Red
		SuccessColor: lipgloss.Color("10"),  // Green
		WarningColor: lipgloss.Color("11"),  // Yellow
		BorderColor:  lipgloss.Color("8"),   // Dark grey
	}
}

// NewRenderer creates a new TUI renderer
func NewRenderer(width, height int) *Renderer {
	return &Renderer{
		width:  width,
		height: height,
		style:  DefaultStyleConfig(),
	}
}

// Render renders the full monitor view
func (r *Renderer) Render(mdl *model) string {
	header := r.renderHeader(mdl)
	content := r.renderPosture(mdl.posture, mdl.report) + "\n" + r.renderThreats(mdl.report)
	footer := r.renderFooter(mdl)

	// push the footer to the bottom of the window
	if r.height > 0 {
		used := countLines(header) + countLines(content) + countLines(footer)
		if pad := r.height - used; pad > 0 {
			content += strings.Repeat("\n", pad)
		}
	}
	return header + content + footer
}

// RenderHelp renders the key help screen
func (r *Renderer) RenderHelp(mdl *model) string {
	return r.renderHeader(mdl) + lipgloss.NewStyle().
		Foreground(r.style.SubtleColor).
		Render(mdl.keys.Help().String()) + "\n"
}

func (r *Renderer) renderHeader(mdl *model) string {
	title := lipgloss.NewStyle().
		Foreground(r.style.TitleColor).
		Bold(true).
		Render("gsh threat monitor")

	width := r.width
	if width <= 0 || width > 62 {
		width = 62
	}
	border := lipgloss.NewStyle().
		Foreground(r.style.BorderColor).
		Render(strings.Repeat("─", width))

	state := mdl.spinner.View() + " watching"
	if mdl.paused {
		state = "paused"
	}
	return fmt.Sprintf("%s  %s\n%s\n", title, state, border)
}

func (r *Renderer) renderPosture(p security.Posture, rep security.ThreatReport) string {
	var b strings.Builder
	r.row(&b, "Memory Locked", p.MemoryLocked, "YES", "NO")
	r.row(&b, "Swap Disabled", !rep.SwapEnabled, "YES", "NO (memory may be swapped to disk)")
	r.row(&b, "Core Dumps Blocked", p.CoreDumpsDisabled, "YES", "NO")
	r.row(&b, "Process Masked", p.ProcessMasked, "YES", "NO")
	r.row(&b, "Tracer Attached", !rep.TracerAttached, "NO", "YES")
	return b.String()
}

func (r *Renderer) row(b *strings.Builder, label string, good bool, yes, no string) {
	symbol, text, color := "✓", yes, r.style.SuccessColor
	if !good {
		symbol, text, color = "✗", no, r.style.ErrorColor
	}
	value := lipgloss.NewStyle().Foreground(color).Render(symbol + " " + text)
	fmt.Fprintf(b, "  %-20s %s\n", label+":", value)
}

func (r *Renderer) renderThreats(rep security.ThreatReport) string {
	threats := rep.Threats()
	if len(threats) == 0 {
		return lipgloss.NewStyle().
			Foreground(r.style.SubtleColor).
			Render("  No threats detected") + "\n"
	}

	warn := lipgloss.NewStyle().Foreground(r.style.WarningColor).Bold(true)
	var b strings.Builder
	b.WriteString(warn.Render("  ⚠ THREATS DETECTED:") + "\n")
	for _, t := range threats {
		fmt.Fprintf(&b, "    - %s\n", t)
	}
	return b.String()
}

func (r *Renderer) renderFooter(mdl *model) string {
	style := lipgloss.NewStyle().
		Foreground(r.style.SubtleColor)

	last := "never"
	if !mdl.lastCheck.IsZero() {
		last = mdl.lastCheck.Format("15:04:05")
	}
	status := fmt.Sprintf("last check %s · %d checks · every %s", last, mdl.checks, mdl.interval)

	return "\n" + style.Render(status) + "\n" + style.Render(mdl.keys.Help().View()) + "\n"
}

// countLines counts the number of lines in a string
func countLines(s string) int {
	if s == "" {
		return 0
	}
	count := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		count++
	}
	return count
}
