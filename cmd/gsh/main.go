package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Lin-Jiong-HDU/gsh/internal/storage"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// exitFunc ends the process; replaced in tests.
var exitFunc = os.Exit

var (
	configPath  string
	logLevel    string
	paranoid    bool
	noMask      bool
	noClipboard bool
)

var rootCmd = newRootCommand()

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gsh",
		Short: "Ghost shell",
		Long: `gsh - an interactive shell that keeps history in RAM only, watches for
debuggers and monitoring tools, and hands out short-lived encrypted secrets.

Lines starting with :: are ghost commands (try ::help); everything else runs
in your shell.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := storage.InitConfig(configPath)
			if err != nil {
				return err
			}
			return applyFlagOverrides(cmd, cfg)
		},
		RunE: runShell,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.gsh/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "diagnostic log level on stderr: debug|info|warn|error|off")
	cmd.Flags().BoolVar(&paranoid, "paranoid", false, "start in paranoid mode")
	cmd.Flags().BoolVar(&noMask, "no-mask", false, "do not mask the process name")
	cmd.Flags().BoolVar(&noClipboard, "no-clipboard", false, "do not write encrypted envelopes to the clipboard")

	cmd.AddCommand(getMonitorCommand())
	cmd.AddCommand(getConfigCommand())
	cmd.AddCommand(getVersionCommand())
	return cmd
}

// applyFlagOverrides lets command-line flags win over the config file.
func applyFlagOverrides(cmd *cobra.Command, cfg *storage.Config) error {
	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		cfg.Log.Level = logLevel
	}
	if f := cmd.Flags().Lookup("paranoid"); f != nil && f.Changed {
		cfg.Security.Paranoid = paranoid
	}
	if f := cmd.Flags().Lookup("no-mask"); f != nil && f.Changed && noMask {
		cfg.Security.ProcessName = ""
	}
	if f := cmd.Flags().Lookup("no-clipboard"); f != nil && f.Changed && noClipboard {
		cfg.Vault.Clipboard = false
	}
	return cfg.Validate()
}

func getVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gsh version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gsh %s\n", version)
		},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitFunc(1)
	}
}
