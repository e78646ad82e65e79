package sim

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ShayCichocki/agentcoord/internal/coordinator"
	"github.com/ShayCichocki/agentcoord/pkg/models"
)

// Runner plays a Scenario against a Coordinator.
type Runner struct {
	coord    *coordinator.Coordinator
	scenario *Scenario
	runID    string

	mu      sync.Mutex
	results map[string]*AgentReport
}

// NewRunner creates a runner with a fresh run ID.
func NewRunner(c *coordinator.Coordinator, s *Scenario) *Runner {
	return &Runner{
		coord:    c,
		scenario: s,
		runID:    uuid.NewString(),
		results:  make(map[string]*AgentReport, len(s.Agents)),
	}
}

// RunID identifies this run in the journal.
func (r *Runner) RunID() string {
	return r.runID
}

// Run registers the scenario's agents, wires dependencies, resolves conflicts
// and then executes every admitted agent concurrently. The report is always
// returned; the error is non-nil only when ctx ended the run early.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     r.runID,
		Scenario:  r.scenario.Name,
		StartedAt: time.Now(),
	}
	specs := make(map[string]AgentSpec, len(r.scenario.Agents))
	for _, a := range r.scenario.Agents {
		specs[a.ID] = a
		r.results[a.ID] = &AgentReport{ID: a.ID}
	}

	for _, a := range r.scenario.Agents {
		if !r.coord.RegisterAgent(a.ID, a.TaskInfo()) {
			r.finish(a.ID, OutcomeRejected, "admission denied")
		}
	}

	for _, a := range r.scenario.Agents {
		for _, dep := range a.DependsOn {
			if r.outcome(a.ID) != "" || r.outcome(dep) != "" {
				continue
			}
			if !r.coord.AddDependency(a.ID, dep) {
				report.RejectedDependencies = append(report.RejectedDependencies, a.ID+" -> "+dep)
			}
		}
	}
	r.blockUnreachable()

	report.Conflicts = r.coord.DetectConflicts()
	for _, conflict := range report.Conflicts {
		res := r.coord.ResolveConflict(conflict)
		report.Resolutions = append(report.Resolutions, res)
		if res.Strategy != models.ResolutionCancelDuplicate {
			continue
		}
		for _, id := range res.Cancel {
			if r.coord.UnregisterAgent(id) {
				r.finish(id, OutcomeCancelled, "duplicate of "+res.Keep)
			}
		}
	}

	report.Order = r.coord.OptimizeExecutionOrder()

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range report.Order {
		if r.outcome(id) != "" {
			continue
		}
		spec := specs[id]
		g.Go(func() error {
			return r.runAgent(gctx, spec)
		})
	}
	err := g.Wait()

	for _, a := range r.scenario.Agents {
		res := r.results[a.ID]
		if res.Outcome == "" {
			res.Outcome = OutcomeInterrupted
		}
		report.Agents = append(report.Agents, *res)
	}
	report.Duration = time.Since(report.StartedAt)

	if err == nil {
		err = ctx.Err()
	}
	return report, err
}

// blockUnreachable marks agents whose declared dependencies were never admitted,
// transitively, and unregisters them.
func (r *Runner) blockUnreachable() {
	for changed := true; changed; {
		changed = false
		for _, a := range r.scenario.Agents {
			if r.outcome(a.ID) != "" {
				continue
			}
			for _, dep := range a.DependsOn {
				if r.outcome(dep).terminalFailure() {
					r.coord.UnregisterAgent(a.ID)
					r.finish(a.ID, OutcomeBlocked, "dependency "+dep+" "+string(r.outcome(dep)))
					changed = true
					break
				}
			}
		}
	}
}

func (r *Runner) runAgent(ctx context.Context, spec AgentSpec) error {
	start := time.Now()
	defer func() {
		r.mu.Lock()
		r.results[spec.ID].Duration = time.Since(start)
		r.mu.Unlock()
	}()

	if outcome, reason := r.awaitDependencies(ctx, spec.ID); outcome != "" {
		r.finish(spec.ID, outcome, reason)
		return r.ctxErr(ctx, outcome)
	}

	// Locks are not re-entrant, so "a.go" and "./a.go" must collapse to a
	// single acquire.
	files := coordinator.NormalizePaths(spec.Files)
	sort.Strings(files)

	for attempt := 1; ; attempt++ {
		r.mu.Lock()
		r.results[spec.ID].Attempts = attempt
		r.mu.Unlock()

		if !r.coord.Heartbeat(spec.ID) {
			r.finish(spec.ID, OutcomeEvicted, "evicted before attempt")
			return nil
		}

		// Files are locked in sorted order so that agents sharing several
		// files cannot deadlock.
		for _, f := range files {
			if !r.coord.WaitForFileLock(ctx, spec.ID, f, spec.Operation) {
				r.coord.ReleaseAllLocks(spec.ID)
				r.finish(spec.ID, OutcomeInterrupted, "waiting for "+f)
				return ctx.Err()
			}
		}

		if outcome := r.work(ctx, spec); outcome != "" {
			r.coord.ReleaseAllLocks(spec.ID)
			r.finish(spec.ID, outcome, "stopped while working")
			return r.ctxErr(ctx, outcome)
		}

		if attempt <= spec.FailTimes {
			r.coord.MarkAgentFailed(spec.ID, fmt.Sprintf("injected failure %d/%d", attempt, spec.FailTimes))
			result, ok := r.coord.RecoverFailedAgent(spec.ID)
			if !ok {
				r.finish(spec.ID, OutcomeEvicted, "evicted during recovery")
				return nil
			}
			r.setRetries(spec.ID, result.RetryCount)
			if result.Strategy == models.RecoveryAbandon {
				r.finish(spec.ID, OutcomeAbandoned, result.Error)
				return nil
			}
			continue
		}

		r.coord.ReleaseAllLocks(spec.ID)
		if !r.coord.MarkAgentCompleted(spec.ID) {
			r.finish(spec.ID, OutcomeEvicted, "evicted before completion")
			return nil
		}
		r.finish(spec.ID, OutcomeCompleted, "")
		return nil
	}
}

// awaitDependencies blocks until every dependency has completed. It returns a
// non-empty outcome when the agent can no longer run.
func (r *Runner) awaitDependencies(ctx context.Context, id string) (Outcome, string) {
	slice := 20 * r.coord.Policy().PollInterval
	for {
		if r.coord.WaitForDependencies(ctx, id, slice) {
			return "", ""
		}
		if ctx.Err() != nil {
			return OutcomeInterrupted, "waiting for dependencies"
		}
		if _, ok := r.coord.AgentStatus(id); !ok {
			return OutcomeEvicted, "evicted while waiting"
		}
		for _, dep := range r.coord.CheckDependencies(id) {
			if o := r.outcome(dep); o.terminalFailure() {
				return OutcomeBlocked, "dependency " + dep + " " + string(o)
			}
		}
	}
}

// work holds the agent's locks for spec.Work, heartbeating as configured.
func (r *Runner) work(ctx context.Context, spec AgentSpec) Outcome {
	deadline := time.NewTimer(spec.Work)
	defer deadline.Stop()

	var beat <-chan time.Time
	if spec.Heartbeat > 0 {
		t := time.NewTicker(spec.Heartbeat)
		defer t.Stop()
		beat = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return OutcomeInterrupted
		case <-deadline.C:
			return ""
		case <-beat:
			if !r.coord.Heartbeat(spec.ID) {
				return OutcomeEvicted
			}
		}
	}
}

func (r *Runner) ctxErr(ctx context.Context, o Outcome) error {
	if o == OutcomeInterrupted {
		return ctx.Err()
	}
	return nil
}

func (r *Runner) finish(id string, o Outcome, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := r.results[id]
	if res.Outcome != "" {
		return
	}
	res.Outcome = o
	res.Error = reason
}

func (r *Runner) setRetries(id string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[id].RetryCount = n
}

func (r *Runner) outcome(id string) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.results[id]; ok {
		return res.Outcome
	}
	return ""
}
