package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"github.com/awnumar/memguard"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Lin-Jiong-HDU/gsh/internal/core"
	"github.com/Lin-Jiong-HDU/gsh/internal/core/security"
	"github.com/Lin-Jiong-HDU/gsh/internal/core/vault"
	"github.com/Lin-Jiong-HDU/gsh/internal/storage"
	"github.com/Lin-Jiong-HDU/gsh/internal/terminal"
)

var (
	bannerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// newLogger builds the diagnostic logger. Logs go to w only; "off"
// discards everything.
func newLogger(level string, w io.Writer) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// newClipboardSink returns the clipboard sink, or nil when disabled. An
// unavailable clipboard is still returned so that ::cp reports the error.
func newClipboardSink(cfg *storage.Config, warn func(string)) vault.Sink {
	if !cfg.Vault.Clipboard {
		return nil
	}
	cb, err := vault.NewSystemClipboard()
	if err != nil {
		warn("clipboard unavailable: ::cp will fail (use --no-clipboard to skip it)")
		return &vault.SystemClipboard{}
	}
	return cb
}

func runShell(cmd *cobra.Command, args []string) error {
	cfg := storage.GetConfig()
	out := cmd.OutOrStdout()
	logger := newLogger(cfg.Log.Level, cmd.ErrOrStderr())

	warn := func(msg string) {
		fmt.Fprintln(out, noticeStyle.Render("[!] "+msg))
	}

	posture, errs := security.Harden(security.HardeningOptions{
		LockMemory:       cfg.Security.LockMemory,
		DisableCoreDumps: cfg.Security.DisableCoreDumps,
		ProcessName:      cfg.Security.ProcessName,
	})
	for _, err := range errs {
		logger.Warn("hardening step failed", "error", err)
		warn(fmt.Sprintf("WARNING: %v", err))
	}
	logger.Info("hardening applied",
		"memory_locked", posture.MemoryLocked,
		"core_dumps_disabled", posture.CoreDumpsDisabled,
		"process_masked", posture.ProcessMasked)

	detector := security.NewProcDetector(cfg.Security.ProcRoot, cfg.Security.MonitoringTools)
	if detector.SwapEnabled() {
		warn("WARNING: swap is enabled; memory may be written to disk")
	}

	sessionID := uuid.New().String()
	store := vault.NewStore(vault.Options{
		Timeout:        cfg.VaultTimeout(),
		Sink:           newClipboardSink(cfg, warn),
		AssociatedData: []byte(sessionID),
		Logger:         logger,
	})

	router := terminal.NewRouter()
	var input *terminal.LineReader
	session := terminal.NewSession(terminal.Options{
		ID:            sessionID,
		Detector:      detector,
		Vault:         store,
		Executor:      core.NewExecutor(cfg.ExecTimeoutDuration()),
		Router:        router,
		Posture:       posture,
		Paranoid:      cfg.Security.Paranoid,
		CheckInterval: cfg.Security.CheckInterval,
		OnPurge: func() {
			if input != nil {
				input.ResetHistory()
			}
		},
		Logger: logger,
	})

	input, err := terminal.NewLineReader(terminal.NewCompleter(router, session.Dir))
	if err != nil {
		session.Close()
		return fmt.Errorf("failed to initialize line editor: %w", err)
	}

	// a termination signal wipes every locked buffer before the process exits
	memguard.CatchSignal(func(sig os.Signal) {
		logger.Warn("signal received, purging secrets", "signal", sig.String())
		input.Close()
	}, syscall.SIGTERM, syscall.SIGHUP)

	renderer, err := terminal.NewRenderer(out, cfg.Shell.RenderMarkdown, 80)
	if err != nil {
		input.Close()
		session.Close()
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}

	fmt.Fprintln(out, bannerStyle.Render("GHOST SHELL ACTIVE. HISTORY IN RAM ONLY. Type ::help for commands."))
	if cfg.Security.Paranoid {
		warn("PARANOID MODE ENABLED")
	}

	repl := terminal.NewREPL(session, input, renderer, cfg.Shell.PromptPrefix)
	status, runErr := repl.Run(context.Background())

	if session.State() == terminal.StateEmergencyTerminated {
		// everything secret was wiped before Run returned
		exitFunc(status)
		return nil
	}

	input.Close()
	memguard.Purge()
	if runErr != nil {
		return runErr
	}
	if status != terminal.ExitOK {
		exitFunc(status)
	}
	return nil
}
