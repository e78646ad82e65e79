package sim

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ShayCichocki/agentcoord/internal/coordinator"
	"github.com/ShayCichocki/agentcoord/pkg/models"
)

func runScenario(t *testing.T, s *Scenario) (*Report, *coordinator.Coordinator) {
	t.Helper()
	c := coordinator.New(coordinator.WithPolicy(s.Policy.Apply(coordinator.DefaultPolicy())))
	t.Cleanup(c.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	report, err := NewRunner(c, s).Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return report, c
}

func mustParse(t *testing.T, doc string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(doc))
	if err != nil {
		t.Fatalf("ParseScenario failed: %v", err)
	}
	return s
}

func wantOutcome(t *testing.T, r *Report, id string, want Outcome) AgentReport {
	t.Helper()
	a, ok := r.Agent(id)
	if !ok {
		t.Fatalf("no report for %q", id)
	}
	if a.Outcome != want {
		t.Errorf("%s outcome = %q (%s), want %q", id, a.Outcome, a.Error, want)
	}
	return a
}

func TestRunnerPipeline(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "pipeline.yaml"))
	if err != nil {
		t.Fatalf("LoadScenario failed: %v", err)
	}

	report, c := runScenario(t, s)

	if report.RunID == "" {
		t.Error("report has no run ID")
	}
	if report.Count(OutcomeCompleted) != 4 {
		t.Errorf("completed = %d, want 4: %+v", report.Count(OutcomeCompleted), report.Agents)
	}

	order := report.Order
	if len(order) != 4 {
		t.Fatalf("Order = %v, want 4 agents", order)
	}
	pos := func(id string) int {
		for i, v := range order {
			if v == id {
				return i
			}
		}
		return -1
	}
	if !(pos("schema") < pos("models") && pos("models") < pos("api")) {
		t.Errorf("Order = %v violates schema -> models -> api", order)
	}

	gen := wantOutcome(t, report, "models", OutcomeCompleted)
	if gen.Attempts != 2 || gen.RetryCount != 1 {
		t.Errorf("models attempts=%d retries=%d, want 2 and 1", gen.Attempts, gen.RetryCount)
	}

	if len(report.Conflicts) != 1 || report.Conflicts[0].File != "db/schema.sql" {
		t.Errorf("Conflicts = %+v, want one overlap on db/schema.sql", report.Conflicts)
	}
	if len(report.Resolutions) != 1 || report.Resolutions[0].Strategy != "serialize" {
		t.Errorf("Resolutions = %+v, want one serialize", report.Resolutions)
	}

	if files := c.LockedFiles(); len(files) != 0 {
		t.Errorf("locks left after run: %v", files)
	}
}

func TestRunnerCancelsDuplicates(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "duplicates.yaml"))
	if err != nil {
		t.Fatalf("LoadScenario failed: %v", err)
	}

	report, _ := runScenario(t, s)

	wantOutcome(t, report, "first", OutcomeCompleted)
	wantOutcome(t, report, "second", OutcomeCancelled)
	wantOutcome(t, report, "third", OutcomeCompleted)

	var dup int
	for _, res := range report.Resolutions {
		if res.Strategy == "cancel_duplicate" {
			dup++
			if res.Keep != "first" || len(res.Cancel) != 1 || res.Cancel[0] != "second" {
				t.Errorf("duplicate resolution = %+v", res)
			}
		}
	}
	if dup != 1 {
		t.Errorf("cancel_duplicate resolutions = %d, want 1", dup)
	}
	for _, id := range report.Order {
		if id == "second" {
			t.Errorf("cancelled agent still in order %v", report.Order)
		}
	}
}

func TestRunnerAbandonBlocksDependents(t *testing.T) {
	s := mustParse(t, `
policy:
  max_retries: 1
  poll_interval: 5ms
agents:
  - id: flaky
    files: [a.go]
    fail_times: 5
    work: 5ms
  - id: after
    files: [b.go]
    depends_on: [flaky]
  - id: last
    depends_on: [after]
`)

	report, c := runScenario(t, s)

	flaky := wantOutcome(t, report, "flaky", OutcomeAbandoned)
	if flaky.Attempts != 2 || flaky.RetryCount != 1 {
		t.Errorf("flaky attempts=%d retries=%d, want 2 and 1", flaky.Attempts, flaky.RetryCount)
	}
	wantOutcome(t, report, "after", OutcomeBlocked)
	wantOutcome(t, report, "last", OutcomeBlocked)

	if locks := c.LocksByAgent("flaky"); len(locks) != 0 {
		t.Errorf("abandoned agent still holds %v", locks)
	}
	snap, ok := c.AgentStatus("flaky")
	if !ok || snap.Status != models.AgentStatusFailed {
		t.Errorf("flaky status = %+v, want failed", snap)
	}
}

func TestRunnerAdmissionAndCycles(t *testing.T) {
	s := mustParse(t, `
policy:
  max_concurrent_agents: 3
  poll_interval: 5ms
agents:
  - id: a
    work: 5ms
  - id: b
    depends_on: [a]
    work: 5ms
  - id: c
    depends_on: [b]
    work: 5ms
  - id: overflow
  - id: needs-overflow
    depends_on: [overflow]
`)
	// Close the cycle a -> c after parsing so validation still passes.
	s.Agents[0].DependsOn = []string{"c"}

	report, _ := runScenario(t, s)

	wantOutcome(t, report, "overflow", OutcomeRejected)
	wantOutcome(t, report, "needs-overflow", OutcomeRejected)
	if len(report.RejectedDependencies) != 1 || report.RejectedDependencies[0] != "c -> b" {
		t.Errorf("RejectedDependencies = %v, want [c -> b]", report.RejectedDependencies)
	}
	for _, id := range []string{"a", "b", "c"} {
		wantOutcome(t, report, id, OutcomeCompleted)
	}
	if len(report.Order) != 3 || report.Order[0] != "c" {
		t.Errorf("Order = %v, want c first", report.Order)
	}
}

func TestRunnerSerializesSharedFiles(t *testing.T) {
	s := mustParse(t, `
policy:
  poll_interval: 2ms
agents:
  - id: w1
    files: [shared.go, x.go]
    work: 30ms
  - id: w2
    files: [x.go, shared.go]
    work: 30ms
  - id: w3
    files: [shared.go]
    work: 30ms
`)

	start := time.Now()
	report, _ := runScenario(t, s)
	elapsed := time.Since(start)

	if report.Count(OutcomeCompleted) != 3 {
		t.Fatalf("completed = %d, want 3: %+v", report.Count(OutcomeCompleted), report.Agents)
	}
	if elapsed < 90*time.Millisecond {
		t.Errorf("run took %v; agents sharing a file must not overlap", elapsed)
	}
}

func TestRunnerEquivalentFilePaths(t *testing.T) {
	tests := []struct {
		name  string
		files string
		want  []string
	}{
		{name: "duplicate", files: "[a.go, a.go]", want: []string{"a.go"}},
		{name: "dot prefix", files: "[a.go, ./a.go]", want: []string{"a.go"}},
		{name: "mixed", files: "[src/b.go, ./src/./b.go, a.go, '']", want: []string{"a.go", "src/b.go"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustParse(t, `
policy:
  poll_interval: 2ms
agents:
  - id: solo
    files: `+tt.files+`
    work: 5ms
`)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			c := coordinator.New(coordinator.WithPolicy(s.Policy.Apply(coordinator.DefaultPolicy())))
			t.Cleanup(c.Close)
			events := c.Subscribe(64)

			report, err := NewRunner(c, s).Run(ctx)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			wantOutcome(t, report, "solo", OutcomeCompleted)

			var acquired []string
			for len(events) > 0 {
				if ev := <-events; ev.Type == models.EventLockAcquired {
					acquired = append(acquired, ev.Path)
				}
			}
			if len(acquired) != len(tt.want) {
				t.Fatalf("acquired %v, want %v", acquired, tt.want)
			}
			for i := range tt.want {
				if acquired[i] != tt.want[i] {
					t.Errorf("acquired %v, want %v", acquired, tt.want)
					break
				}
			}
		})
	}
}

func TestRunnerInterrupted(t *testing.T) {
	s := mustParse(t, `
policy:
  poll_interval: 5ms
agents:
  - id: slow
    files: [a.go]
    work: 10s
  - id: waiter
    files: [a.go]
    depends_on: [slow]
    work: 5ms
`)
	c := coordinator.New(coordinator.WithPolicy(s.Policy.Apply(coordinator.DefaultPolicy())))
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	report, err := NewRunner(c, s).Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run error = %v, want deadline exceeded", err)
	}
	if report == nil {
		t.Fatal("Run should return a report even when interrupted")
	}
	wantOutcome(t, report, "slow", OutcomeInterrupted)
	wantOutcome(t, report, "waiter", OutcomeInterrupted)
	if files := c.LockedFiles(); len(files) != 0 {
		t.Errorf("locks left after interruption: %v", files)
	}
}

func TestRunnerEvictedBySweep(t *testing.T) {
	s := mustParse(t, `
policy:
  poll_interval: 5ms
  stale_after: 30ms
agents:
  - id: quiet
    files: [a.go]
    work: 150ms
`)
	c := coordinator.New(coordinator.WithPolicy(s.Policy.Apply(coordinator.DefaultPolicy())))
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stopped := c.StartSweeper(ctx, 10*time.Millisecond)

	report, err := NewRunner(c, s).Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	cancel()
	<-stopped

	wantOutcome(t, report, "quiet", OutcomeEvicted)
}
