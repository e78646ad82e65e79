package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks ranges and enumerations that viper cannot express.
func (c *Config) Validate() error {
	var problems []string

	if c.Coordinator.MaxConcurrentAgents <= 0 {
		problems = append(problems, "coordinator.max_concurrent_agents must be positive")
	}
	if c.Coordinator.MaxRetries < 0 {
		problems = append(problems, "coordinator.max_retries must not be negative")
	}
	durations := []struct {
		key string
		d   time.Duration
	}{
		{"coordinator.lock_timeout", c.Coordinator.LockTimeout},
		{"coordinator.stale_after", c.Coordinator.StaleAfter},
		{"coordinator.sweep_interval", c.Coordinator.SweepInterval},
		{"coordinator.poll_interval", c.Coordinator.PollInterval},
	}
	for _, f := range durations {
		if f.d <= 0 {
			problems = append(problems, f.key+" must be positive")
		}
	}
	if c.Journal.Enabled {
		switch c.Journal.Driver {
		case "sqlite", "sqlite3":
		default:
			problems = append(problems, fmt.Sprintf("journal.driver %q must be sqlite or sqlite3", c.Journal.Driver))
		}
		if c.Journal.Path == "" {
			problems = append(problems, "journal.path must be set when the journal is enabled")
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}

// Source represents where a setting was loaded from.
type Source string

const (
	SourceEnv     Source = "environment"
	SourceProject Source = "project_config"
	SourceUser    Source = "user_config"
	SourceDefault Source = "default"
)

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// GetSource reports which layer supplies the effective value of key.
func GetSource(key string) Source {
	if _, ok := os.LookupEnv(EnvName(key)); ok {
		return SourceEnv
	}
	if p := findProjectConfig(); p != "" && fileSets(p, key) {
		return SourceProject
	}
	if fileSets(GetUserConfigPath(), key) {
		return SourceUser
	}
	return SourceDefault
}

func fileSets(path, key string) bool {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return false
	}
	return v.IsSet(key)
}
