package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Lin-Jiong-HDU/gsh/internal/core/security"
	"github.com/Lin-Jiong-HDU/gsh/internal/core/tui"
	"github.com/Lin-Jiong-HDU/gsh/internal/storage"
)

var monitorInterval time.Duration

// getMonitorCommand returns the monitor command
func getMonitorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Watch for tracers and monitoring tools",
		Long: `Open a live view of the threat detector: attached tracers, running
monitoring tools and swap. Nothing is recorded.`,
		Args: cobra.NoArgs,
		RunE: runMonitor,
	}

	cmd.Flags().DurationVar(&monitorInterval, "interval", tui.DefaultInterval, "refresh interval")
	return cmd
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg := storage.GetConfig()
	detector := security.NewProcDetector(cfg.Security.ProcRoot, cfg.Security.MonitoringTools)

	// the monitor only reports what the shell would have, it does not harden
	posture := security.Posture{}

	model := tui.NewModel(detector, posture, monitorInterval)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("monitor failed: %w", err)
	}
	return nil
}
