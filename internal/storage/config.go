// Package storage loads gsh configuration. It is the only package that
// touches the disk, and only for configuration: history and secrets are
// never written anywhere.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Lin-Jiong-HDU/gsh/internal/core/security"
)

const (
	ConfigFileName = "config"
	ConfigFileType = "yaml"
	GshDirName     = ".gsh"
	EnvPrefix      = "GSH"
)

// LogLevels are the accepted values of log.level.
var LogLevels = []string{"debug", "info", "warn", "error", "off"}

var config *Config

// Config holds the application configuration
type Config struct {
	Shell    ShellConfig    `mapstructure:"shell" yaml:"shell"`
	Security SecurityConfig `mapstructure:"security" yaml:"security"`
	Vault    VaultConfig    `mapstructure:"vault" yaml:"vault"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// ShellConfig holds interactive shell settings
type ShellConfig struct {
	PromptPrefix string `mapstructure:"prompt_prefix" yaml:"prompt_prefix"`
	// ExecTimeout is in seconds; 0 means no limit.
	ExecTimeout    int  `mapstructure:"exec_timeout" yaml:"exec_timeout"`
	RenderMarkdown bool `mapstructure:"render_markdown" yaml:"render_markdown"`
}

// SecurityConfig holds detection and hardening settings
type SecurityConfig struct {
	Paranoid         bool     `mapstructure:"paranoid" yaml:"paranoid"`
	CheckInterval    int      `mapstructure:"check_interval" yaml:"check_interval"`
	MonitoringTools  []string `mapstructure:"monitoring_tools" yaml:"monitoring_tools"`
	LockMemory       bool     `mapstructure:"lock_memory" yaml:"lock_memory"`
	DisableCoreDumps bool     `mapstructure:"disable_core_dumps" yaml:"disable_core_dumps"`
	// ProcessName is the masked process name; empty disables masking.
	ProcessName string `mapstructure:"process_name" yaml:"process_name"`
	ProcRoot    string `mapstructure:"proc_root" yaml:"proc_root"`
}

// VaultConfig holds ephemeral secret store settings
type VaultConfig struct {
	// Timeout is in seconds.
	Timeout   int  `mapstructure:"timeout" yaml:"timeout"`
	Clipboard bool `mapstructure:"clipboard" yaml:"clipboard"`
}

// LogConfig holds diagnostic logging settings
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() Config {
	return Config{
		Shell: ShellConfig{
			PromptPrefix:   "gsh",
			ExecTimeout:    0,
			RenderMarkdown: true,
		},
		Security: SecurityConfig{
			Paranoid:         false,
			CheckInterval:    5,
			MonitoringTools:  append([]string(nil), security.DefaultMonitoringTools...),
			LockMemory:       true,
			DisableCoreDumps: true,
			ProcessName:      "systemd-journald",
			ProcRoot:         security.DefaultProcRoot,
		},
		Vault: VaultConfig{
			Timeout:   30,
			Clipboard: true,
		},
		Log: LogConfig{
			Level: "off",
		},
	}
}

// ExecTimeoutDuration returns the pass-through timeout.
func (c *Config) ExecTimeoutDuration() time.Duration {
	return time.Duration(c.Shell.ExecTimeout) * time.Second
}

// VaultTimeout returns the secret destruction window.
func (c *Config) VaultTimeout() time.Duration {
	return time.Duration(c.Vault.Timeout) * time.Second
}

// Validate rejects values the shell cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Shell.PromptPrefix) == "" {
		errs = append(errs, errors.New("shell.prompt_prefix must not be empty"))
	}
	if c.Shell.ExecTimeout < 0 {
		errs = append(errs, fmt.Errorf("shell.exec_timeout must be >= 0, got %d", c.Shell.ExecTimeout))
	}
	if c.Security.CheckInterval < 1 {
		errs = append(errs, fmt.Errorf("security.check_interval must be >= 1, got %d", c.Security.CheckInterval))
	}
	if c.Vault.Timeout < 1 {
		errs = append(errs, fmt.Errorf("vault.timeout must be >= 1, got %d", c.Vault.Timeout))
	}
	if !validLogLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of %s, got %q", strings.Join(LogLevels, "|"), c.Log.Level))
	}
	return errors.Join(errs...)
}

func validLogLevel(level string) bool {
	for _, l := range LogLevels {
		if strings.EqualFold(level, l) {
			return true
		}
	}
	return false
}

// GetConfigDir returns the gsh config directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, GshDirName), nil
}

// DefaultConfigPath returns the path of the default config file
func DefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigFileName+"."+ConfigFileType), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType(ConfigFileType)

	// GSH_SECURITY_PARANOID overrides security.paranoid
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())
	return v
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("shell.prompt_prefix", d.Shell.PromptPrefix)
	v.SetDefault("shell.exec_timeout", d.Shell.ExecTimeout)
	v.SetDefault("shell.render_markdown", d.Shell.RenderMarkdown)

	v.SetDefault("security.paranoid", d.Security.Paranoid)
	v.SetDefault("security.check_interval", d.Security.CheckInterval)
	v.SetDefault("security.monitoring_tools", d.Security.MonitoringTools)
	v.SetDefault("security.lock_memory", d.Security.LockMemory)
	v.SetDefault("security.disable_core_dumps", d.Security.DisableCoreDumps)
	v.SetDefault("security.process_name", d.Security.ProcessName)
	v.SetDefault("security.proc_root", d.Security.ProcRoot)

	v.SetDefault("vault.timeout", d.Vault.Timeout)
	v.SetDefault("vault.clipboard", d.Vault.Clipboard)

	v.SetDefault("log.level", d.Log.Level)
}

// InitConfig loads the configuration from path, or from ~/.gsh/config.yaml
// when path is empty. A missing default file is not an error; a missing
// explicit file is.
func InitConfig(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		configDir, err := GetConfigDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(configDir)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	config = &cfg
	return config, nil
}

// GetConfig returns the loaded config
func GetConfig() *Config {
	return config
}

// SaveConfig writes cfg to path, or to the default location when path is
// empty. Only configuration is ever written.
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType(ConfigFileType)

	v.Set("shell.prompt_prefix", cfg.Shell.PromptPrefix)
	v.Set("shell.exec_timeout", cfg.Shell.ExecTimeout)
	v.Set("shell.render_markdown", cfg.Shell.RenderMarkdown)

	v.Set("security.paranoid", cfg.Security.Paranoid)
	v.Set("security.check_interval", cfg.Security.CheckInterval)
	v.Set("security.monitoring_tools", cfg.Security.MonitoringTools)
	v.Set("security.lock_memory", cfg.Security.LockMemory)
	v.Set("security.disable_core_dumps", cfg.Security.DisableCoreDumps)
	v.Set("security.process_name", cfg.Security.ProcessName)
	v.Set("security.proc_root", cfg.Security.ProcRoot)

	v.Set("vault.timeout", cfg.Vault.Timeout)
	v.Set("vault.clipboard", cfg.Vault.Clipboard)

	v.Set("log.level", cfg.Log.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// DumpYAML renders cfg as YAML.
func DumpYAML(cfg *Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return out, nil
}
