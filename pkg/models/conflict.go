package models

// ConflictType classifies an incompatibility between two or more agents.
type ConflictType string

const (
	// ConflictFileOverlap means two agents declared the same file.
	ConflictFileOverlap ConflictType = "file_overlap"
	// ConflictFileEdit means two agents want to edit the same file.
	// It is resolved exactly like a file overlap.
	ConflictFileEdit ConflictType = "file_edit"
	// ConflictDuplicateTask means two agents carry the same task.
	ConflictDuplicateTask ConflictType = "duplicate_task"
)

// Valid returns true if the conflict type is a known value.
func (t ConflictType) Valid() bool {
	switch t {
	case ConflictFileOverlap, ConflictFileEdit, ConflictDuplicateTask:
		return true
	default:
		return false
	}
}

// Conflict is a transient record produced by conflict detection.
type Conflict struct {
	// Type is the kind of conflict.
	Type ConflictType `json:"type"`
	// Agents are the agents involved, in registration order.
	Agents []string `json:"agents"`
	// File is one shared path for file conflicts.
	File string `json:"file,omitempty"`
	// Files lists every shared path for file conflicts, sorted.
	Files []string `json:"files,omitempty"`
	// TaskID is the shared task for duplicate-task conflicts.
	TaskID string `json:"task_id,omitempty"`
}

// ResolutionStrategy names how a conflict should be handled.
type ResolutionStrategy string

const (
	// ResolutionSerialize runs the queued agents one at a time.
	ResolutionSerialize ResolutionStrategy = "serialize"
	// ResolutionCancelDuplicate keeps one agent and cancels the rest.
	ResolutionCancelDuplicate ResolutionStrategy = "cancel_duplicate"
	// ResolutionEscalate hands an unrecognised conflict back to the caller.
	ResolutionEscalate ResolutionStrategy = "escalate"
)

// Resolution is the recommended handling of a conflict.
type Resolution struct {
	// Strategy is the chosen strategy.
	Strategy ResolutionStrategy `json:"strategy"`
	// Queue is the serial execution order for serialize resolutions.
	Queue []string `json:"queue,omitempty"`
	// Keep is the surviving agent for cancel_duplicate resolutions.
	Keep string `json:"keep,omitempty"`
	// Cancel lists the agents to cancel for cancel_duplicate resolutions.
	Cancel []string `json:"cancel,omitempty"`
	// Reason explains escalations.
	Reason string `json:"reason,omitempty"`
}

// RecoveryStrategy is the outcome of recovering a failed agent.
type RecoveryStrategy string

const (
	// RecoveryRetry means the agent may run again.
	RecoveryRetry RecoveryStrategy = "retry"
	// RecoveryAbandon means the retry budget is exhausted.
	RecoveryAbandon RecoveryStrategy = "abandon"
)

// RecoveryResult describes what recovery did to an agent.
type RecoveryResult struct {
	Strategy      RecoveryStrategy `json:"strategy"`
	AgentID       string           `json:"agent_id"`
	RetryCount    int              `json:"retry_count"`
	LocksReleased int              `json:"locks_released"`
	Error         string           `json:"error,omitempty"`
}
