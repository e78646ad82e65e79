package models

import "time"

// AgentStatus represents the lifecycle state of a coordinated agent.
type AgentStatus string

const (
	// AgentStatusRunning indicates the agent is registered and working.
	AgentStatusRunning AgentStatus = "running"
	// AgentStatusCompleted indicates the owning executor reported success.
	AgentStatusCompleted AgentStatus = "completed"
	// AgentStatusFailed indicates the agent reported a failure.
	AgentStatusFailed AgentStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentStatusRunning, AgentStatusCompleted, AgentStatusFailed:
		return true
	default:
		return false
	}
}

// TaskInfo is the record a caller supplies when registering an agent.
type TaskInfo struct {
	// TaskID identifies the task the agent is working on.
	TaskID string `json:"task_id" yaml:"task_id"`
	// Description is a short human readable summary of the task.
	Description string `json:"description,omitempty" yaml:"description"`
	// Files lists the resource paths the agent intends to touch.
	Files []string `json:"files,omitempty" yaml:"files"`
	// Status overrides the initial status. Empty means running.
	Status AgentStatus `json:"status,omitempty" yaml:"status"`
	// RetryCount seeds the retry counter, normally zero.
	RetryCount int `json:"retry_count,omitempty" yaml:"retry_count"`
}

// AgentRecord is the coordinator's view of a registered agent.
type AgentRecord struct {
	// ID is the caller-supplied unique identifier.
	ID string `json:"agent_id"`
	// TaskID is the ID of the task this agent is working on.
	TaskID string `json:"task_id"`
	// Description is the task description used for duplicate detection.
	Description string `json:"description,omitempty"`
	// Files are the declared resource claims.
	Files []string `json:"files,omitempty"`
	// Status is the current lifecycle state.
	Status AgentStatus `json:"status"`
	// RetryCount is the number of recoveries that chose to retry.
	RetryCount int `json:"retry_count"`
	// RegisteredAt is when the agent was admitted.
	RegisteredAt time.Time `json:"registered_at"`
	// LastHeartbeat is the last time the agent proved it was alive.
	LastHeartbeat time.Time `json:"last_heartbeat"`
	// Error holds the most recent failure reason.
	Error string `json:"error,omitempty"`
}

// AgentSnapshot is a point-in-time copy of an agent joined with its locks.
type AgentSnapshot struct {
	AgentRecord
	// Locks lists the paths currently held by the agent, sorted.
	Locks []string `json:"locks"`
	// Dependencies lists the agents this agent waits on, sorted.
	Dependencies []string `json:"dependencies,omitempty"`
}
