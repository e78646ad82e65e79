package sim

import (
	"time"

	"github.com/ShayCichocki/agentcoord/pkg/models"
)

// Outcome is how a simulated agent ended.
type Outcome string

const (
	// OutcomeCompleted means the agent finished its work.
	OutcomeCompleted Outcome = "completed"
	// OutcomeAbandoned means the retry budget ran out.
	OutcomeAbandoned Outcome = "abandoned"
	// OutcomeCancelled means the agent was cancelled as a duplicate.
	OutcomeCancelled Outcome = "cancelled"
	// OutcomeRejected means admission was denied.
	OutcomeRejected Outcome = "rejected"
	// OutcomeBlocked means a dependency could never complete.
	OutcomeBlocked Outcome = "blocked"
	// OutcomeEvicted means the agent was removed while running.
	OutcomeEvicted Outcome = "evicted"
	// OutcomeInterrupted means the run was stopped first.
	OutcomeInterrupted Outcome = "interrupted"
)

// terminalFailure reports whether dependents of an agent with this outcome
// can never proceed.
func (o Outcome) terminalFailure() bool {
	switch o {
	case OutcomeAbandoned, OutcomeRejected, OutcomeBlocked, OutcomeEvicted, OutcomeInterrupted:
		return true
	default:
		return false
	}
}

// AgentReport is the per-agent result of a run.
type AgentReport struct {
	ID         string        `json:"id"`
	Outcome    Outcome       `json:"outcome"`
	Attempts   int           `json:"attempts"`
	RetryCount int           `json:"retry_count"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Report summarises a scenario run.
type Report struct {
	RunID    string `json:"run_id"`
	Scenario string `json:"scenario"`
	// Order is the execution order computed before agents started.
	Order []string `json:"order"`
	// Conflicts and Resolutions are index-aligned.
	Conflicts   []models.Conflict   `json:"conflicts"`
	Resolutions []models.Resolution `json:"resolutions"`
	// RejectedDependencies lists "dependent -> dependency" edges that were refused.
	RejectedDependencies []string      `json:"rejected_dependencies,omitempty"`
	Agents               []AgentReport `json:"agents"`
	StartedAt            time.Time     `json:"started_at"`
	Duration             time.Duration `json:"duration"`
}

// Count returns how many agents ended with o.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, a := range r.Agents {
		if a.Outcome == o {
			n++
		}
	}
	return n
}

// Agent returns the report for id.
func (r *Report) Agent(id string) (AgentReport, bool) {
	for _, a := range r.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return AgentReport{}, false
}
