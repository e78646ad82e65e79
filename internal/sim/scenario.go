// Package sim drives a Coordinator with a scripted set of agents loaded from YAML.
package sim

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/agentcoord/internal/coordinator"
	"github.com/ShayCichocki/agentcoord/pkg/models"
)

// ErrInvalidScenario wraps every scenario validation failure.
var ErrInvalidScenario = errors.New("invalid scenario")

// Defaults applied to agents that leave fields empty.
const (
	DefaultOperation = "write"
	DefaultWork      = 50 * time.Millisecond
)

// Scenario is a scripted run.
type Scenario struct {
	Name   string          `yaml:"name"`
	Policy PolicyOverrides `yaml:"policy"`
	Agents []AgentSpec     `yaml:"agents"`
}

// PolicyOverrides replaces individual policy fields. Nil or zero fields keep
// the base policy.
type PolicyOverrides struct {
	MaxConcurrentAgents *int          `yaml:"max_concurrent_agents"`
	MaxRetries          *int          `yaml:"max_retries"`
	LockTimeout         time.Duration `yaml:"lock_timeout"`
	StaleAfter          time.Duration `yaml:"stale_after"`
	SweepInterval       time.Duration `yaml:"sweep_interval"`
	PollInterval        time.Duration `yaml:"poll_interval"`
}

// Apply returns base with the overrides applied.
func (o PolicyOverrides) Apply(base coordinator.Policy) coordinator.Policy {
	if o.MaxConcurrentAgents != nil {
		base.MaxConcurrentAgents = *o.MaxConcurrentAgents
	}
	if o.MaxRetries != nil {
		base.MaxRetries = *o.MaxRetries
	}
	if o.LockTimeout > 0 {
		base.LockTimeout = o.LockTimeout
	}
	if o.StaleAfter > 0 {
		base.StaleAfter = o.StaleAfter
	}
	if o.SweepInterval > 0 {
		base.SweepInterval = o.SweepInterval
	}
	if o.PollInterval > 0 {
		base.PollInterval = o.PollInterval
	}
	return base
}

// AgentSpec describes one simulated agent.
type AgentSpec struct {
	ID          string   `yaml:"id"`
	TaskID      string   `yaml:"task_id"`
	Description string   `yaml:"description"`
	Files       []string `yaml:"files"`
	DependsOn   []string `yaml:"depends_on"`
	// Operation tags the file locks. Defaults to "write".
	Operation string `yaml:"operation"`
	// Work is how long each attempt holds its locks.
	Work time.Duration `yaml:"work"`
	// FailTimes is the number of attempts that fail before one succeeds.
	FailTimes int `yaml:"fail_times"`
	// Heartbeat is the heartbeat period while working. Zero sends one per attempt.
	Heartbeat time.Duration `yaml:"heartbeat"`
}

// TaskInfo converts the agent into a registration record.
func (a AgentSpec) TaskInfo() models.TaskInfo {
	return models.TaskInfo{
		TaskID:      a.TaskID,
		Description: a.Description,
		Files:       append([]string(nil), a.Files...),
	}
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScenario decodes and validates scenario YAML, filling defaults.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	for i := range s.Agents {
		if s.Agents[i].Operation == "" {
			s.Agents[i].Operation = DefaultOperation
		}
		if s.Agents[i].Work == 0 {
			s.Agents[i].Work = DefaultWork
		}
		if s.Agents[i].TaskID == "" {
			s.Agents[i].TaskID = s.Agents[i].ID
		}
	}
	return &s, nil
}

// Validate checks agent IDs, dependency references and numeric ranges.
func (s *Scenario) Validate() error {
	if len(s.Agents) == 0 {
		return fmt.Errorf("%w: no agents", ErrInvalidScenario)
	}

	ids := make(map[string]bool, len(s.Agents))
	for i, a := range s.Agents {
		if a.ID == "" {
			return fmt.Errorf("%w: agent %d has no id", ErrInvalidScenario, i)
		}
		if ids[a.ID] {
			return fmt.Errorf("%w: duplicate agent id %q", ErrInvalidScenario, a.ID)
		}
		ids[a.ID] = true
		if a.Work < 0 || a.Heartbeat < 0 {
			return fmt.Errorf("%w: agent %q has a negative duration", ErrInvalidScenario, a.ID)
		}
		if a.FailTimes < 0 {
			return fmt.Errorf("%w: agent %q has negative fail_times", ErrInvalidScenario, a.ID)
		}
	}

	for _, a := range s.Agents {
		for _, dep := range a.DependsOn {
			if !ids[dep] {
				return fmt.Errorf("%w: agent %q depends on unknown agent %q", ErrInvalidScenario, a.ID, dep)
			}
		}
	}

	if o := s.Policy; o.MaxConcurrentAgents != nil && *o.MaxConcurrentAgents <= 0 {
		return fmt.Errorf("%w: policy.max_concurrent_agents must be positive", ErrInvalidScenario)
	}
	if o := s.Policy; o.MaxRetries != nil && *o.MaxRetries < 0 {
		return fmt.Errorf("%w: policy.max_retries must not be negative", ErrInvalidScenario)
	}
	return nil
}
