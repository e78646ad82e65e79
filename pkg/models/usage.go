package models

import "time"

// ResourceUsage reports how much of the coordinator's capacity is in use.
type ResourceUsage struct {
	ActiveAgents    int     `json:"active_agents"`
	FileLocks       int     `json:"file_locks"`
	CapacityPercent float64 `json:"capacity_percent"`
}

// Status is the coordinator-wide summary.
type Status struct {
	ActiveAgents int `json:"active_agents"`
	FileLocks    int `json:"file_locks"`
	Conflicts    int `json:"conflicts"`
}

// EventType represents the type of coordination event.
type EventType string

const (
	// EventAgentRegistered indicates an agent was admitted.
	EventAgentRegistered EventType = "agent_registered"
	// EventAdmissionDenied indicates registration hit the concurrency ceiling.
	EventAdmissionDenied EventType = "admission_denied"
	// EventAgentUnregistered indicates an agent was removed by its caller.
	EventAgentUnregistered EventType = "agent_unregistered"
	// EventAgentEvicted indicates an agent was removed for missing heartbeats.
	EventAgentEvicted EventType = "agent_evicted"
	// EventAgentStatus indicates an externally driven status change.
	EventAgentStatus EventType = "agent_status"
	// EventLockAcquired indicates a file lock was granted.
	EventLockAcquired EventType = "lock_acquired"
	// EventLockReleased indicates a file lock was released by its holder.
	EventLockReleased EventType = "lock_released"
	// EventLockReclaimed indicates a stale lock was reclaimed.
	EventLockReclaimed EventType = "lock_reclaimed"
	// EventDependencyAdded indicates a dependency edge was recorded.
	EventDependencyAdded EventType = "dependency_added"
	// EventDependencyRejected indicates a dependency edge would have closed a cycle.
	EventDependencyRejected EventType = "dependency_rejected"
	// EventAgentFailed indicates a caller reported a failure.
	EventAgentFailed EventType = "agent_failed"
	// EventAgentRetried indicates recovery chose to retry.
	EventAgentRetried EventType = "agent_retried"
	// EventAgentAbandoned indicates recovery gave up on the agent.
	EventAgentAbandoned EventType = "agent_abandoned"
)

// Event is a single coordination event emitted to subscribers.
type Event struct {
	// ID is a unique identifier for the event.
	ID string `json:"id"`
	// Type is the kind of event.
	Type EventType `json:"type"`
	// AgentID is the agent the event concerns, if any.
	AgentID string `json:"agent_id,omitempty"`
	// Path is the resource path involved, if any.
	Path string `json:"path,omitempty"`
	// Message provides additional context.
	Message string `json:"message,omitempty"`
	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`
}
