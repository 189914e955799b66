package terminal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Lin-Jiong-HDU/gsh/internal/core/security"
	"github.com/Lin-Jiong-HDU/gsh/internal/core/vault"
	"github.com/Lin-Jiong-HDU/gsh/internal/secure"
)

func registerBuiltins(r *Router) {
	r.Handle("status", "report security posture", cmdStatus)
	r.Handle("security-status", "full threat report", cmdSecurityStatus)
	r.Handle("history", "list in-memory history", cmdHistory)
	r.Handle("purge-history", "zeroize and clear history", cmdPurgeHistory)
	r.Handle("cp", "`<text>` encrypt text, print the one-time key", cmdCopy)
	r.Handle("decrypt", "`<key>` recover the stored secret", cmdDecrypt)
	r.Handle("anti-debug", "check for an attached debugger", cmdAntiDebug)
	r.Handle("paranoid", "`on|off` toggle paranoid mode", cmdParanoid)
	r.Handle("clear", "clear the screen", cmdClear)
	r.Handle("help", "show this help", cmdHelp)
	r.Handle("exit", "secure shutdown", cmdExit)
	r.Handle("panic", "zeroize everything and crash out", cmdPanic)
}

func cmdStatus(_ context.Context, s *Session, _ string) Result {
	vaultState := "EMPTY"
	if s.vault.Live() {
		vaultState = "SECRET HELD"
	}
	return output(fmt.Sprintf("GHOST MODE ACTIVE. MEMORY SECURE. TRACE: NONE.\nSESSION: %s\nVAULT: %s", s.ID(), vaultState))
}

func cmdSecurityStatus(_ context.Context, s *Session, _ string) Result {
	status := security.Status{
		Posture: s.posture,
		Report:  security.Snapshot(s.detector),
	}
	if status.Report.MonitoringDetected() {
		return warning(status.String())
	}
	return output(status.String())
}

func cmdHistory(_ context.Context, s *Session, _ string) Result {
	n := s.history.Len()
	if n == 0 {
		return output("No commands in history.")
	}

	// entries are copied buffer to buffer so no Go string holds them
	buf := secure.New(64 * n)
	_ = buf.AppendString("Command History (RAM only):")
	for i := 0; i < n; i++ {
		_ = buf.AppendString(fmt.Sprintf("\n  %d: ", i+1))
		_ = buf.Append(s.history.entry(i))
	}
	return Result{Kind: KindOutput, Secret: buf}
}

func cmdPurgeHistory(_ context.Context, s *Session, _ string) Result {
	count := s.PurgeHistory()
	return output(fmt.Sprintf("HISTORY PURGED. %d COMMANDS ZEROIZED FROM MEMORY.", count))
}

func cmdCopy(_ context.Context, s *Session, arg string) Result {
	if arg == "" {
		return output("Error: No content to copy.")
	}

	key, err := s.vault.Store([]byte(arg))
	if err != nil {
		s.logger.Warn("secret store failed", "error", err)
		return warning(fmt.Sprintf("Error: %v", err))
	}
	defer key.Destroy()

	buf := secure.New(128)
	_ = buf.AppendString("ENCRYPTED DATA INJECTED. KEY: ")
	_ = buf.Append(key.Bytes())
	_ = buf.AppendString(fmt.Sprintf("\nAUTO-CLEAR IN %ds.\nUse ::decrypt to recover.", int(s.vault.Timeout().Seconds())))
	return Result{Kind: KindOutput, Secret: buf}
}

func cmdDecrypt(_ context.Context, s *Session, arg string) Result {
	if strings.TrimSpace(arg) == "" {
		return output("Usage: ::decrypt <key>")
	}

	key := []byte(arg)
	defer secure.Wipe(key)

	plain, err := s.vault.Recall(key)
	if err != nil {
		switch {
		case errors.Is(err, vault.ErrNoSecret):
			return warning("Decryption failed: no secret stored (expired or already recovered).")
		default:
			return warning("Decryption failed. Wrong key or corrupted data.")
		}
	}
	defer plain.Destroy()

	buf := secure.New(plain.Len() + 16)
	_ = buf.AppendString("Decrypted: ")
	_ = buf.Append(plain.Bytes())
	return Result{Kind: KindOutput, Secret: buf}
}

func cmdAntiDebug(_ context.Context, s *Session, _ string) Result {
	if s.detector.TracerAttached() {
		return Result{
			Kind:           KindWarning,
			Text:           "⚠ WARNING: DEBUGGER DETECTED!",
			TracerDetected: true,
		}
	}
	return output("✓ No debugger detected.")
}

func cmdParanoid(_ context.Context, s *Session, arg string) Result {
	switch arg {
	case "on":
		s.paranoid = true
		return warning(fmt.Sprintf("⚠ PARANOID MODE ENABLED\n"+
			"- Auto-panic on debugger detection\n"+
			"- Periodic security checks every %d commands\n"+
			"- Enhanced threat monitoring", s.checkInterval))
	case "off":
		s.paranoid = false
		return output("PARANOID MODE DISABLED")
	default:
		state := "DISABLED"
		if s.paranoid {
			state = "ENABLED"
		}
		return output(fmt.Sprintf("Paranoid mode: %s\nUsage: ::paranoid on|off", state))
	}
}

func cmdClear(context.Context, *Session, string) Result {
	return Result{Kind: KindClear}
}

func cmdHelp(_ context.Context, s *Session, _ string) Result {
	var b strings.Builder
	b.WriteString("# Ghost commands\n\n| Command | Description |\n|---|---|\n")
	for _, name := range s.router.Names() {
		fmt.Fprintf(&b, "| `%s%s` | %s |\n", GhostPrefix, name, s.router.Usage(name))
	}
	b.WriteString("\nAnything else runs in your shell. History lives in RAM only.\n")
	return Result{Kind: KindOutput, Text: b.String(), Markdown: true}
}

func cmdExit(context.Context, *Session, string) Result {
	return Result{Kind: KindExit, Status: ExitOK}
}

func cmdPanic(context.Context, *Session, string) Result {
	return Result{
		Kind:   KindTerminate,
		Status: ExitPanic,
		Text:   "KERNEL PANIC - MEMORY CORRUPTION DETECTED at 0xDEADBEEF\nDumping core to /dev/null...",
	}
}
