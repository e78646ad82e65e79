package coordinator

import (
	"testing"
	"time"

	"github.com/ShayCichocki/agentcoord/pkg/models"
)

func receive(t *testing.T, ch <-chan models.Event) models.Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("event channel closed unexpectedly")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return models.Event{}
}

func TestCoordinatorEmitsEvents(t *testing.T) {
	c, _ := newTestCoordinator(t)
	events := c.Subscribe(16)

	mustRegister(t, c, "agent-1", models.TaskInfo{TaskID: "t1"})
	c.AcquireFileLock("agent-1", "a.go", "write")
	c.ReleaseFileLock("agent-1", "a.go")

	want := []models.EventType{
		models.EventAgentRegistered,
		models.EventLockAcquired,
		models.EventLockReleased,
	}
	for _, wt := range want {
		ev := receive(t, events)
		if ev.Type != wt {
			t.Errorf("event type = %s, want %s", ev.Type, wt)
		}
		if ev.AgentID != "agent-1" {
			t.Errorf("event agent = %q, want agent-1", ev.AgentID)
		}
		if ev.ID == "" {
			t.Error("event has no ID")
		}
	}
}

func TestEventEmitterFanOut(t *testing.T) {
	e := NewEventEmitter()
	a := e.Subscribe(1)
	b := e.Subscribe(1)

	e.Emit(models.Event{Type: models.EventAgentFailed})

	if ev := receive(t, a); ev.Type != models.EventAgentFailed {
		t.Errorf("subscriber a got %s", ev.Type)
	}
	if ev := receive(t, b); ev.Type != models.EventAgentFailed {
		t.Errorf("subscriber b got %s", ev.Type)
	}
}

func TestEventEmitterDropsWhenFull(t *testing.T) {
	e := NewEventEmitter()
	_ = e.Subscribe(1)

	e.Emit(models.Event{Type: models.EventLockAcquired})
	e.Emit(models.Event{Type: models.EventLockAcquired})
	e.Emit(models.Event{Type: models.EventLockAcquired})

	if got := e.DroppedCount(); got != 2 {
		t.Errorf("DroppedCount() = %d, want 2", got)
	}
}

func TestEventEmitterClose(t *testing.T) {
	e := NewEventEmitter()
	ch := e.Subscribe(1)

	e.Close()
	e.Close()
	e.Emit(models.Event{Type: models.EventLockAcquired})

	if _, ok := <-ch; ok {
		t.Error("subscriber channel should be closed")
	}
	if _, ok := <-e.Subscribe(1); ok {
		t.Error("subscribing after close should yield a closed channel")
	}
}
