package coordinator

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/ShayCichocki/agentcoord/pkg/models"
)

func TestNewAppliesPolicyDefaults(t *testing.T) {
	c := New(WithPolicy(Policy{MaxConcurrentAgents: 4}))
	p := c.Policy()

	if p.MaxConcurrentAgents != 4 {
		t.Errorf("MaxConcurrentAgents = %d, want 4", p.MaxConcurrentAgents)
	}
	if p.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want explicit 0 kept", p.MaxRetries)
	}
	if p.LockTimeout != LockTimeoutSeconds*time.Second {
		t.Errorf("LockTimeout = %v, want default", p.LockTimeout)
	}
	if p.PollInterval <= 0 || p.SweepInterval <= 0 || p.StaleAfter <= 0 {
		t.Errorf("zero durations not defaulted: %+v", p)
	}
}

func TestScenarioFileOverlap(t *testing.T) {
	c, _ := newTestCoordinator(t)
	mustRegister(t, c, "agent-1", models.TaskInfo{TaskID: "ta", Files: []string{"src/shared.py"}})
	mustRegister(t, c, "agent-2", models.TaskInfo{TaskID: "tb", Files: []string{"src/shared.py"}})

	conflicts := c.DetectConflicts()
	if len(conflicts) != 1 {
		t.Fatalf("expected exactly 1 conflict, got %+v", conflicts)
	}
	if conflicts[0].Type != models.ConflictFileOverlap {
		t.Errorf("Type = %s, want file_overlap", conflicts[0].Type)
	}
	if !equalStrings(conflicts[0].Agents, []string{"agent-1", "agent-2"}) {
		t.Errorf("Agents = %v", conflicts[0].Agents)
	}
}

func TestScenarioLockHandoff(t *testing.T) {
	c, _ := newTestCoordinator(t)

	steps := []struct {
		op    string
		agent string
		want  bool
	}{
		{"acquire", "agent-1", true},
		{"acquire", "agent-1", false},
		{"acquire", "agent-2", false},
		{"release", "agent-1", true},
		{"acquire", "agent-2", true},
	}
	for i, s := range steps {
		var got bool
		if s.op == "acquire" {
			got = c.AcquireFileLock(s.agent, "f.py", "write")
		} else {
			got = c.ReleaseFileLock(s.agent, "f.py")
		}
		if got != s.want {
			t.Errorf("step %d: %s(%s) = %v, want %v", i, s.op, s.agent, got, s.want)
		}
	}
}

func TestScenarioChainOrder(t *testing.T) {
	c, _ := newTestCoordinator(t)
	for _, id := range []string{"c", "a", "b"} {
		mustRegister(t, c, id, models.TaskInfo{})
	}
	c.AddDependency("b", "a")
	c.AddDependency("c", "b")

	order := c.OptimizeExecutionOrder()
	if !(indexOf(order, "a") < indexOf(order, "b") && indexOf(order, "b") < indexOf(order, "c")) {
		t.Errorf("OptimizeExecutionOrder() = %v, want a before b before c", order)
	}
}

func TestScenarioTwoCycleRejected(t *testing.T) {
	c, _ := newTestCoordinator(t)
	mustRegister(t, c, "a", models.TaskInfo{})
	mustRegister(t, c, "b", models.TaskInfo{})

	if !c.AddDependency("b", "a") {
		t.Fatal("first edge should be accepted")
	}
	if c.AddDependency("a", "b") {
		t.Error("edge closing a 2-cycle should be rejected")
	}
	if got := c.Dependencies("a"); len(got) != 0 {
		t.Errorf("graph changed: Dependencies(a) = %v", got)
	}
}

func TestScenarioAbandonAtBudget(t *testing.T) {
	c, _ := newTestCoordinator(t)
	mustRegister(t, c, "agent-1", models.TaskInfo{RetryCount: MaxRetries})
	c.MarkAgentFailed("agent-1", "timeout")

	result, _ := c.RecoverFailedAgent("agent-1")
	if result.Strategy != models.RecoveryAbandon {
		t.Errorf("strategy = %s, want abandon", result.Strategy)
	}
}

func TestScenarioStaleCleanup(t *testing.T) {
	c, clock := newTestCoordinator(t)
	mustRegister(t, c, "agent-1", models.TaskInfo{})
	clock.Advance(400 * time.Second)

	if n := c.CleanupStaleAgents(300 * time.Second); n != 1 {
		t.Errorf("CleanupStaleAgents() = %d, want 1", n)
	}
	if indexOf(c.ActiveAgents(), "agent-1") != -1 {
		t.Error("agent-1 still active after cleanup")
	}
}

// TestConcurrentOperations hammers every entry point from many goroutines and
// then checks the structural invariants still hold.
func TestConcurrentOperations(t *testing.T) {
	p := DefaultPolicy()
	p.MaxConcurrentAgents = 64
	c := New(WithPolicy(p))

	const workers = 32
	const rounds = 200
	files := []string{"a.go", "b.go", "c.go", "d.go"}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(w)))
			id := fmt.Sprintf("agent-%02d", w)
			c.RegisterAgent(id, models.TaskInfo{TaskID: id, Files: []string{files[w%len(files)]}})

			for i := 0; i < rounds; i++ {
				other := fmt.Sprintf("agent-%02d", rng.Intn(workers))
				f := files[rng.Intn(len(files))]
				switch rng.Intn(8) {
				case 0:
					c.AcquireFileLock(id, f, "write")
				case 1:
					c.ReleaseFileLock(id, f)
				case 2:
					c.AddDependency(id, other)
				case 3:
					c.Heartbeat(id)
				case 4:
					c.DetectConflicts()
				case 5:
					c.OptimizeExecutionOrder()
				case 6:
					c.MarkAgentFailed(id, "boom")
					c.RecoverFailedAgent(id)
				case 7:
					c.Status()
				}
			}
		}(w)
	}
	wg.Wait()

	order := c.OptimizeExecutionOrder()
	if len(order) != len(c.ActiveAgents()) {
		t.Fatalf("order covers %d agents, registry has %d", len(order), len(c.ActiveAgents()))
	}
	for _, id := range order {
		for _, dep := range c.Dependencies(id) {
			if indexOf(order, dep) > indexOf(order, id) {
				t.Errorf("cycle or misorder: %s before dependency %s", id, dep)
			}
		}
	}

	holders := make(map[string]string)
	for _, id := range c.ActiveAgents() {
		for _, f := range c.LocksByAgent(id) {
			if prev, ok := holders[f]; ok {
				t.Errorf("%s held by both %s and %s", f, prev, id)
			}
			holders[f] = id
		}
		snap, _ := c.AgentStatus(id)
		if snap.RetryCount > p.MaxRetries {
			t.Errorf("%s retry count %d exceeds budget %d", id, snap.RetryCount, p.MaxRetries)
		}
	}
}
