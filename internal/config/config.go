package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	PollInterval time.Duration      `yaml:"-"`
	RawInterval  string             `yaml:"poll_interval"`
	LogFile      string             `yaml:"log_file"`
	Log          LogConfig          `yaml:"log"`
	CircleCI     CircleCIConfig     `yaml:"circleci"`
	Notification NotificationConfig `yaml:"notification"`
	TUI          TUIConfig          `yaml:"tui"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type CircleCIConfig struct {
	APIToken string `yaml:"api_token"`
	BaseURL  string `yaml:"base_url"`
}

type NotificationConfig struct {
	// Command is the alerter binary.
	Command   string        `yaml:"command"`
	SenderApp string        `yaml:"sender_app"`
	Timeout   time.Duration `yaml:"-"`
	// RawTimeout auto-dismisses status notifications. Empty or "0s" keeps them until resolved.
	RawTimeout string `yaml:"timeout"`
}

type TUIConfig struct {
	RefreshInterval time.Duration `yaml:"-"`
	RawInterval     string        `yaml:"refresh_interval"`
}

type MetricsConfig struct {
	// Listen is the address of the Prometheus endpoint. Empty disables it.
	Listen string `yaml:"listen"`
}

// DefaultPath is ~/.config/git-on-with-it/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "git-on-with-it", "config.yaml")
}

// Load reads the config at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Finalize fills defaults and validates. Callers that change fields after Load, such as
// flag overrides, call it again.
func (c *Config) Finalize() error {
	if err := c.setDefaults(); err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

func (c *Config) setDefaults() error {
	if c.RawInterval == "" {
		c.RawInterval = "10s"
	}
	d, err := time.ParseDuration(c.RawInterval)
	if err != nil {
		return fmt.Errorf("parse poll_interval %q: %w", c.RawInterval, err)
	}
	c.PollInterval = d

	if c.LogFile == "" {
		c.LogFile = filepath.Join(os.TempDir(), "git-on-with-it", "git-on-with-it.log")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Notification.Command == "" {
		c.Notification.Command = "alerter"
	}

	if c.Notification.RawTimeout != "" {
		timeout, err := time.ParseDuration(c.Notification.RawTimeout)
		if err != nil {
			return fmt.Errorf("parse notification.timeout %q: %w", c.Notification.RawTimeout, err)
		}
		c.Notification.Timeout = timeout
	}

	if c.TUI.RawInterval == "" {
		c.TUI.RawInterval = "1s"
	}
	tuiInterval, err := time.ParseDuration(c.TUI.RawInterval)
	if err != nil {
		return fmt.Errorf("parse tui.refresh_interval %q: %w", c.TUI.RawInterval, err)
	}
	c.TUI.RefreshInterval = tuiInterval

	return nil
}

func (c *Config) validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.RawInterval)
	}
	if c.TUI.RefreshInterval <= 0 {
		return fmt.Errorf("tui.refresh_interval must be positive, got %s", c.TUI.RawInterval)
	}
	if c.Notification.Timeout < 0 {
		return fmt.Errorf("notification.timeout must not be negative, got %s", c.Notification.RawTimeout)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q (debug|info|warn|error)", c.Log.Level)
	}
	return nil
}
