package terminal

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
)

var (
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	paranoidStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// Prompt builds the input prompt: "<prefix> <basename of dir>>> ". The
// prefix turns red in paranoid mode.
func Prompt(prefix, dir string, paranoid bool) string {
	base := filepath.Base(dir)
	if dir == "" {
		base = "?"
	}

	style := promptStyle
	if paranoid {
		style = paranoidStyle
	}
	return fmt.Sprintf("%s %s>> ", style.Render(prefix), base)
}
