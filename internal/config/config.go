// Package config handles configuration loading and management for agentcoord.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ShayCichocki/agentcoord/internal/coordinator"
)

// ProjectConfigName is the project-level override file searched for from cwd upwards.
const ProjectConfigName = ".agentcoord.yaml"

// EnvPrefix prefixes every environment override, e.g. AGENTCOORD_COORDINATOR_MAX_RETRIES.
const EnvPrefix = "AGENTCOORD"

// Config holds all configuration for agentcoord.
type Config struct {
	Coordinator CoordinatorConfig `mapstructure:"coordinator"`
	Journal     JournalConfig     `mapstructure:"journal"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	TUI         TUIConfig         `mapstructure:"tui"`
	Signals     SignalsConfig     `mapstructure:"signals"`
}

// CoordinatorConfig holds the coordinator policy.
type CoordinatorConfig struct {
	MaxConcurrentAgents int           `mapstructure:"max_concurrent_agents"`
	MaxRetries          int           `mapstructure:"max_retries"`
	LockTimeout         time.Duration `mapstructure:"lock_timeout"`
	StaleAfter          time.Duration `mapstructure:"stale_after"`
	SweepInterval       time.Duration `mapstructure:"sweep_interval"`
	PollInterval        time.Duration `mapstructure:"poll_interval"`
}

// Policy converts the loaded settings into a coordinator policy.
func (c CoordinatorConfig) Policy() coordinator.Policy {
	return coordinator.Policy{
		MaxConcurrentAgents: c.MaxConcurrentAgents,
		MaxRetries:          c.MaxRetries,
		LockTimeout:         c.LockTimeout,
		StaleAfter:          c.StaleAfter,
		SweepInterval:       c.SweepInterval,
		PollInterval:        c.PollInterval,
	}
}

// JournalConfig holds the event journal settings.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Driver  string `mapstructure:"driver"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds debug logging settings.
type LoggingConfig struct {
	// DebugLog is the debug log file path. Empty disables debug logging.
	DebugLog string `mapstructure:"debug_log"`
}

// TUIConfig holds TUI display settings.
type TUIConfig struct {
	RefreshRate time.Duration `mapstructure:"refresh_rate"`
}

// SignalsConfig holds the control-signal directory.
type SignalsConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (AGENTCOORD_*)
// 2. Project config (.agentcoord.yaml in current directory or parent)
// 3. User config (~/.config/agentcoord/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path, ignoring user and
// project files. Environment overrides still apply.
func LoadFromPath(path string) (*Config, error) {
	v := newViper()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return unmarshal(v)
}

// Save writes cfg to the user config file.
func Save(cfg *Config) error {
	return SaveTo(GetUserConfigPath(), cfg)
}

// SaveTo writes cfg to path, creating parent directories.
func SaveTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	for key, value := range cfg.Settings() {
		v.Set(key, value)
	}

	return v.WriteConfig()
}

// Settings flattens cfg into dotted keys with printable values.
func (c *Config) Settings() map[string]interface{} {
	return map[string]interface{}{
		"coordinator.max_concurrent_agents": c.Coordinator.MaxConcurrentAgents,
		"coordinator.max_retries":           c.Coordinator.MaxRetries,
		"coordinator.lock_timeout":          c.Coordinator.LockTimeout.String(),
		"coordinator.stale_after":           c.Coordinator.StaleAfter.String(),
		"coordinator.sweep_interval":        c.Coordinator.SweepInterval.String(),
		"coordinator.poll_interval":         c.Coordinator.PollInterval.String(),
		"journal.enabled":                   c.Journal.Enabled,
		"journal.driver":                    c.Journal.Driver,
		"journal.path":                      c.Journal.Path,
		"logging.debug_log":                 c.Logging.DebugLog,
		"tui.refresh_rate":                  c.TUI.RefreshRate.String(),
		"signals.dir":                       c.Signals.Dir,
	}
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Journal.Path = os.ExpandEnv(cfg.Journal.Path)
	cfg.Logging.DebugLog = os.ExpandEnv(cfg.Logging.DebugLog)
	cfg.Signals.Dir = os.ExpandEnv(cfg.Signals.Dir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()
	for key, value := range d.Settings() {
		v.SetDefault(key, value)
	}
}

// getUserConfigDir returns the XDG config directory for agentcoord.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "agentcoord")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "agentcoord")
	}
	return filepath.Join(home, ".config", "agentcoord")
}

// findProjectConfig searches for .agentcoord.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ProjectConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	p := coordinator.DefaultPolicy()
	return &Config{
		Coordinator: CoordinatorConfig{
			MaxConcurrentAgents: p.MaxConcurrentAgents,
			MaxRetries:          p.MaxRetries,
			LockTimeout:         p.LockTimeout,
			StaleAfter:          p.StaleAfter,
			SweepInterval:       p.SweepInterval,
			PollInterval:        p.PollInterval,
		},
		Journal: JournalConfig{
			Enabled: true,
			Driver:  "sqlite",
			Path:    filepath.Join(".agentcoord", "journal.db"),
		},
		TUI: TUIConfig{
			RefreshRate: 200 * time.Millisecond,
		},
		Signals: SignalsConfig{
			Dir: ".agentcoord",
		},
	}
}
