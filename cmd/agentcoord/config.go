package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/agentcoord/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify agentcoord configuration.

Without arguments, displays current configuration with the source of each value.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/agentcoord/config.yaml
Project-specific overrides can be placed in .agentcoord.yaml
Environment variables override both, e.g. AGENTCOORD_COORDINATOR_MAX_RETRIES`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		out := cmd.OutOrStdout()
		switch len(args) {
		case 0:
			displayAllConfig(out, cfg)
			return nil
		case 1:
			value, err := getConfigValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, value)
			return nil
		default:
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Fprintf(out, "Set %s = %s\n", strings.ToLower(args[0]), args[1])
			return nil
		}
	},
}

// displayAllConfig prints every configuration value with where it came from.
func displayAllConfig(w io.Writer, cfg *config.Config) {
	settings := cfg.Settings()
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(w, "%s: %v  (%s)\n", k, settings[k], config.GetSource(k))
	}
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	value, ok := cfg.Settings()[strings.ToLower(key)]
	if !ok {
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
	return fmt.Sprint(value), nil
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "coordinator.max_concurrent_agents":
		return setInt(&cfg.Coordinator.MaxConcurrentAgents, key, value)
	case "coordinator.max_retries":
		return setInt(&cfg.Coordinator.MaxRetries, key, value)
	case "coordinator.lock_timeout":
		return setDuration(&cfg.Coordinator.LockTimeout, key, value)
	case "coordinator.stale_after":
		return setDuration(&cfg.Coordinator.StaleAfter, key, value)
	case "coordinator.sweep_interval":
		return setDuration(&cfg.Coordinator.SweepInterval, key, value)
	case "coordinator.poll_interval":
		return setDuration(&cfg.Coordinator.PollInterval, key, value)
	case "journal.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		cfg.Journal.Enabled = b
	case "journal.driver":
		cfg.Journal.Driver = value
	case "journal.path":
		cfg.Journal.Path = value
	case "logging.debug_log":
		cfg.Logging.DebugLog = value
	case "tui.refresh_rate":
		return setDuration(&cfg.TUI.RefreshRate, key, value)
	case "signals.dir":
		cfg.Signals.Dir = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	*dst = d
	return nil
}
