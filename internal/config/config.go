// Package config loads and saves the fincoach TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/fincoach/internal/widget"
)

const appName = "fincoach"

// BaseURLEnv overrides the configured backend address when set.
const BaseURLEnv = "FINCOACH_BASE_URL"

// Config holds all fincoach configuration.
type Config struct {
	Backend    BackendConfig    `toml:"backend"`
	Budget     BudgetConfig     `toml:"budget"`
	Debt       DebtConfig       `toml:"debt"`
	Assistant  AssistantConfig  `toml:"assistant"`
	Appearance AppearanceConfig `toml:"appearance"`
	Serve      ServeConfig      `toml:"serve"`
}

// BackendConfig locates the finance backend.
type BackendConfig struct {
	BaseURL string `toml:"base_url"`
}

// BudgetConfig scopes the monthly budget view.
type BudgetConfig struct {
	TopK int `toml:"top_k"`
	Year int `toml:"year"`
}

// DebtConfig parameterizes the payoff plan request.
type DebtConfig struct {
	ScheduleMonths int     `toml:"schedule_months"`
	Strategy       string  `toml:"strategy,omitempty"`
	ExtraPayment   float64 `toml:"extra_payment,omitempty"`
}

// AssistantConfig configures the hosted assistant widget.
type AssistantConfig struct {
	OrchestrationID    string `toml:"orchestration_id"`
	HostURL            string `toml:"host_url"`
	RootElementID      string `toml:"root_element_id"`
	AgentID            string `toml:"agent_id"`
	AgentEnvironmentID string `toml:"agent_environment_id"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// ServeConfig configures the background sync server.
type ServeConfig struct {
	Addr     string `toml:"addr"`
	Schedule string `toml:"schedule"`
}

// Strategies the backend accepts for payoff plans.
var Strategies = []string{"avalanche", "snowball"}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			BaseURL: "http://localhost:8000",
		},
		Budget: BudgetConfig{
			TopK: 5,
			Year: 2024,
		},
		Debt: DebtConfig{
			ScheduleMonths: 12,
		},
		Assistant: AssistantConfig{
			OrchestrationID:    widget.DefaultOrchestrationID,
			HostURL:            widget.DefaultHostURL,
			RootElementID:      widget.DefaultRootElementID,
			AgentID:            widget.DefaultAgentID,
			AgentEnvironmentID: widget.DefaultAgentEnvironmentID,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Serve: ServeConfig{
			Addr:     "127.0.0.1:8787",
			Schedule: "@every 5m",
		},
	}
}

// Validate reports settings the backend would reject.
func (c Config) Validate() error {
	var errs []error
	if c.Budget.TopK < 1 {
		errs = append(errs, fmt.Errorf("budget.top_k must be at least 1, got %d", c.Budget.TopK))
	}
	if c.Debt.ScheduleMonths < 1 || c.Debt.ScheduleMonths > 60 {
		errs = append(errs, fmt.Errorf("debt.schedule_months must be within 1..60, got %d", c.Debt.ScheduleMonths))
	}
	if c.Debt.Strategy != "" && c.Debt.Strategy != Strategies[0] && c.Debt.Strategy != Strategies[1] {
		errs = append(errs, fmt.Errorf("debt.strategy must be avalanche or snowball, got %q", c.Debt.Strategy))
	}
	if c.Debt.ExtraPayment < 0 {
		errs = append(errs, fmt.Errorf("debt.extra_payment must not be negative"))
	}
	return errors.Join(errs...)
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// CacheDir returns the XDG-compliant cache directory holding logs and the
// fetch journal.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", appName)
}

// LogPath returns the TUI log file path.
func LogPath() string {
	return filepath.Join(CacheDir(), "fincoach.log")
}

// JournalPath returns the fetch journal database path.
func JournalPath() string {
	return filepath.Join(CacheDir(), "journal.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// GetBaseURL returns the backend address from env var or config, in that order.
func GetBaseURL(cfg Config) string {
	if u := strings.TrimSpace(os.Getenv(BaseURLEnv)); u != "" {
		return u
	}
	return cfg.Backend.BaseURL
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
