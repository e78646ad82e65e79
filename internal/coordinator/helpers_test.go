package coordinator

import (
	"sync"
	"testing"
	"time"

	"github.com/ShayCichocki/agentcoord/pkg/models"
)

// fakeClock is a manually advanced clock for heartbeat and lock ageing tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// newTestCoordinator returns a coordinator on a fake clock with a short poll interval.
func newTestCoordinator(t *testing.T, opts ...Option) (*Coordinator, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	p := DefaultPolicy()
	p.PollInterval = 5 * time.Millisecond
	all := append([]Option{WithPolicy(p), WithClock(clock.Now)}, opts...)
	return New(all...), clock
}

// mustRegister registers agentID or fails the test.
func mustRegister(t *testing.T, c *Coordinator, agentID string, info models.TaskInfo) {
	t.Helper()
	if !c.RegisterAgent(agentID, info) {
		t.Fatalf("RegisterAgent(%q) = false, want true", agentID)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
