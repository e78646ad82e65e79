package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ShayCichocki/agentcoord/pkg/models"
)

func TestWaitForDependenciesCompletes(t *testing.T) {
	c, _ := newTestCoordinator(t)
	mustRegister(t, c, "agent-1", models.TaskInfo{})
	mustRegister(t, c, "agent-2", models.TaskInfo{})
	c.AddDependency("agent-2", "agent-1")

	go func() {
		time.Sleep(100 * time.Millisecond)
		c.MarkAgentCompleted("agent-1")
	}()

	if !c.WaitForDependencies(context.Background(), "agent-2", time.Second) {
		t.Error("expected dependencies to be satisfied before the timeout")
	}
}

func TestWaitForDependenciesImmediate(t *testing.T) {
	c, _ := newTestCoordinator(t)
	mustRegister(t, c, "agent-1", models.TaskInfo{})

	start := time.Now()
	if !c.WaitForDependencies(context.Background(), "agent-1", time.Second) {
		t.Fatal("agent without dependencies should not wait")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("wait took %v for an agent without dependencies", elapsed)
	}
}

func TestWaitForDependenciesFailures(t *testing.T) {
	tests := []struct {
		name    string
		agentID string
		timeout time.Duration
		cancel  bool
	}{
		{"timeout", "agent-2", 50 * time.Millisecond, false},
		{"cancelled context", "agent-2", 0, true},
		{"unregistered agent", "ghost", time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCoordinator(t)
			mustRegister(t, c, "agent-1", models.TaskInfo{})
			mustRegister(t, c, "agent-2", models.TaskInfo{})
			c.AddDependency("agent-2", "agent-1")

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancel {
				go func() {
					time.Sleep(30 * time.Millisecond)
					cancel()
				}()
			}

			if c.WaitForDependencies(ctx, tt.agentID, tt.timeout) {
				t.Errorf("WaitForDependencies(%q) = true, want false", tt.agentID)
			}
		})
	}
}

func TestWaitForDependenciesEvictedWhileWaiting(t *testing.T) {
	c, _ := newTestCoordinator(t)
	mustRegister(t, c, "agent-1", models.TaskInfo{})
	mustRegister(t, c, "agent-2", models.TaskInfo{})
	c.AddDependency("agent-2", "agent-1")

	go func() {
		time.Sleep(30 * time.Millisecond)
		c.UnregisterAgent("agent-2")
	}()

	if c.WaitForDependencies(context.Background(), "agent-2", time.Second) {
		t.Error("waiter removed from the registry should not report success")
	}
}

func TestRegisterAgentContext(t *testing.T) {
	c, _ := newTestCoordinator(t)

	ok, err := c.RegisterAgentContext(context.Background(), "agent-1", models.TaskInfo{})
	if err != nil || !ok {
		t.Fatalf("RegisterAgentContext() = %v, %v", ok, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok, err = c.RegisterAgentContext(ctx, "agent-2", models.TaskInfo{})
	if ok || !errors.Is(err, context.Canceled) {
		t.Errorf("RegisterAgentContext(cancelled) = %v, %v, want false, context.Canceled", ok, err)
	}
	if got := c.ActiveAgents(); len(got) != 1 {
		t.Errorf("cancelled registration changed state: %v", got)
	}
}

func TestAcquireFileLockContext(t *testing.T) {
	c, _ := newTestCoordinator(t)

	ok, err := c.AcquireFileLockContext(context.Background(), "agent-1", "a.go", "write")
	if err != nil || !ok {
		t.Fatalf("AcquireFileLockContext() = %v, %v", ok, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if ok, err := c.AcquireFileLockContext(ctx, "agent-1", "b.go", "write"); ok || err == nil {
		t.Errorf("AcquireFileLockContext(cancelled) = %v, %v", ok, err)
	}
	if got := c.LockedFiles(); !equalStrings(got, []string{"a.go"}) {
		t.Errorf("LockedFiles() = %v, want [a.go]", got)
	}
}

func TestWaitForFileLock(t *testing.T) {
	c, _ := newTestCoordinator(t)
	c.AcquireFileLock("agent-1", "a.go", "write")

	go func() {
		time.Sleep(50 * time.Millisecond)
		c.ReleaseFileLock("agent-1", "a.go")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if !c.WaitForFileLock(ctx, "agent-2", "a.go", "write") {
		t.Fatal("WaitForFileLock() = false, want true after release")
	}
	if got := c.LocksByAgent("agent-2"); !equalStrings(got, []string{"a.go"}) {
		t.Errorf("LocksByAgent(agent-2) = %v", got)
	}
}

func TestWaitForFileLockTimeout(t *testing.T) {
	c, _ := newTestCoordinator(t)
	c.AcquireFileLock("agent-1", "a.go", "write")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if c.WaitForFileLock(ctx, "agent-2", "a.go", "write") {
		t.Error("WaitForFileLock() = true while the lock is held")
	}
}
