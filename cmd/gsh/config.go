package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Lin-Jiong-HDU/gsh/internal/storage"
)

var configInitForce bool

// getConfigCommand returns the config command
func getConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Long: `Write the built-in defaults to ~/.gsh/config.yaml (or --config).
Only settings are written; gsh never stores history or secrets.`,
		Args: cobra.NoArgs,
		// the file may not exist yet, so nothing is loaded first
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE:              runConfigInit,
	}
	initCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing file")

	cmd.AddCommand(show, initCmd)
	return cmd
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out, err := storage.DumpYAML(storage.GetConfig())
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		var err error
		if path, err = storage.DefaultConfigPath(); err != nil {
			return err
		}
	}

	if _, err := os.Stat(path); err == nil && !configInitForce {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	cfg := storage.DefaultConfig()
	if err := storage.SaveConfig(&cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ wrote %s\n", path)
	return nil
}
