package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Lin-Jiong-HDU/gsh/internal/storage"
)

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand_HasFlags(t *testing.T) {
	cmd := newRootCommand()

	for _, flag := range []string{"paranoid", "config", "log-level", "no-mask", "no-clipboard"} {
		if cmd.Flags().Lookup(flag) == nil && cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("Expected flag '%s' to exist", flag)
		}
	}
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmd := newRootCommand()

	for _, name := range []string{"monitor", "config", "version"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Errorf("Expected subcommand '%s'", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := executeRoot(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if out != "gsh dev\n" {
		t.Errorf("Unexpected output %q", out)
	}
}

func TestConfigShow(t *testing.T) {
	t.Setenv("GSH_VAULT_TIMEOUT", "12")

	out, err := executeRoot(t, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{"prompt_prefix: gsh", "check_interval: 5", "timeout: 12"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in:\n%s", want, out)
		}
	}
}

func TestConfigShow_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("vault:\n  timeout: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := executeRoot(t, "--config", path, "config", "show"); err == nil {
		t.Error("Expected invalid config to be rejected")
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := executeRoot(t, "--config", path, "config", "init")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("Expected path in output, got %q", out)
	}

	cfg, err := storage.InitConfig(path)
	if err != nil {
		t.Fatalf("Written config does not load: %v", err)
	}
	if cfg.Security.CheckInterval != 5 {
		t.Errorf("Expected defaults in written config, got %+v", cfg.Security)
	}

	if _, err := executeRoot(t, "--config", path, "config", "init"); err == nil {
		t.Error("Expected existing file to be kept without --force")
	}
	if _, err := executeRoot(t, "--config", path, "config", "init", "--force"); err != nil {
		t.Errorf("Expected --force to overwrite, got %v", err)
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cmd := newRootCommand()
	if err := cmd.ParseFlags([]string{"--paranoid", "--no-mask", "--no-clipboard", "--log-level", "debug"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}

	cfg := storage.DefaultConfig()
	if err := applyFlagOverrides(cmd, &cfg); err != nil {
		t.Fatalf("applyFlagOverrides failed: %v", err)
	}

	if !cfg.Security.Paranoid {
		t.Error("Expected --paranoid to enable paranoid mode")
	}
	if cfg.Security.ProcessName != "" {
		t.Errorf("Expected --no-mask to clear the process name, got %q", cfg.Security.ProcessName)
	}
	if cfg.Vault.Clipboard {
		t.Error("Expected --no-clipboard to disable the clipboard")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %q", cfg.Log.Level)
	}
}

func TestApplyFlagOverrides_Untouched(t *testing.T) {
	cmd := newRootCommand()
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}

	cfg := storage.DefaultConfig()
	cfg.Security.Paranoid = true
	if err := applyFlagOverrides(cmd, &cfg); err != nil {
		t.Fatalf("applyFlagOverrides failed: %v", err)
	}

	if !cfg.Security.Paranoid || cfg.Security.ProcessName == "" || !cfg.Vault.Clipboard {
		t.Errorf("Expected config values to survive without flags, got %+v", cfg)
	}
}

func TestApplyFlagOverrides_InvalidLogLevel(t *testing.T) {
	cmd := newRootCommand()
	if err := cmd.ParseFlags([]string{"--log-level", "chatty"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}

	cfg := storage.DefaultConfig()
	if err := applyFlagOverrides(cmd, &cfg); err == nil {
		t.Error("Expected invalid log level to be rejected")
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantWarn  bool
	}{
		{"off", false, false},
		{"", false, false},
		{"debug", true, true},
		{"INFO", false, true},
		{"warn", false, true},
		{"error", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(tt.level, &buf)

			logger.Debug("debug line")
			logger.Warn("warn line")

			if got := strings.Contains(buf.String(), "debug line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(buf.String(), "warn line"); got != tt.wantWarn {
				t.Errorf("warn logged = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

func TestNewClipboardSink_Disabled(t *testing.T) {
	cfg := storage.DefaultConfig()
	cfg.Vault.Clipboard = false

	if sink := newClipboardSink(&cfg, func(string) { t.Error("unexpected warning") }); sink != nil {
		t.Errorf("Expected no sink when disabled, got %T", sink)
	}
}

func TestGetMonitorCommand(t *testing.T) {
	cmd := getMonitorCommand()

	if cmd.Use != "monitor" {
		t.Errorf("Expected command name 'monitor', got '%s'", cmd.Use)
	}
	f := cmd.Flags().Lookup("interval")
	if f == nil {
		t.Fatal("Expected flag 'interval' to exist")
	}
	if f.DefValue != time.Second.String() {
		t.Errorf("Expected default interval 1s, got %s", f.DefValue)
	}
}
