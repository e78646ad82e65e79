package coordinator

import (
	"testing"

	"github.com/ShayCichocki/agentcoord/pkg/models"
)

func TestDetectConflictsFileOverlap(t *testing.T) {
	c, _ := newTestCoordinator(t)
	mustRegister(t, c, "agent-1", models.TaskInfo{TaskID: "t1", Files: []string{"shared.py", "a.py", "z.py"}})
	mustRegister(t, c, "agent-2", models.TaskInfo{TaskID: "t2", Files: []string{"z.py", "shared.py", "b.py"}})

	conflicts := c.DetectConflicts()
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d: %+v", len(conflicts), conflicts)
	}
	got := conflicts[0]
	if got.Type != models.ConflictFileOverlap {
		t.Errorf("Type = %s, want file_overlap", got.Type)
	}
	if !equalStrings(got.Agents, []string{"agent-1", "agent-2"}) {
		t.Errorf("Agents = %v", got.Agents)
	}
	if !equalStrings(got.Files, []string{"shared.py", "z.py"}) {
		t.Errorf("Files = %v, want [shared.py z.py]", got.Files)
	}
	if got.File != "shared.py" {
		t.Errorf("File = %q, want shared.py", got.File)
	}
}

func TestDetectConflictsDuplicateTask(t *testing.T) {
	tests := []struct {
		name  string
		a, b  models.TaskInfo
		wantN int
	}{
		{
			name:  "same id and description",
			a:     models.TaskInfo{TaskID: "t1", Description: "build"},
			b:     models.TaskInfo{TaskID: "t1", Description: "build"},
			wantN: 1,
		},
		{
			name: "same id different description",
			a:    models.TaskInfo{TaskID: "t1", Description: "build"},
			b:    models.TaskInfo{TaskID: "t1", Description: "test"},
		},
		{
			name: "different ids",
			a:    models.TaskInfo{TaskID: "ta", Description: "build"},
			b:    models.TaskInfo{TaskID: "tb", Description: "build"},
		},
		{
			name: "empty ids are not duplicates",
			a:    models.TaskInfo{},
			b:    models.TaskInfo{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCoordinator(t)
			mustRegister(t, c, "agent-1", tt.a)
			mustRegister(t, c, "agent-2", tt.b)

			conflicts := c.DetectConflicts()
			if len(conflicts) != tt.wantN {
				t.Fatalf("got %d conflicts, want %d: %+v", len(conflicts), tt.wantN, conflicts)
			}
			if tt.wantN == 1 {
				if conflicts[0].Type != models.ConflictDuplicateTask || conflicts[0].TaskID != "t1" {
					t.Errorf("conflict = %+v", conflicts[0])
				}
			}
		})
	}
}

func TestDetectConflictsNone(t *testing.T) {
	c, _ := newTestCoordinator(t)
	mustRegister(t, c, "agent-1", models.TaskInfo{TaskID: "t1", Files: []string{"a.py"}})
	mustRegister(t, c, "agent-2", models.TaskInfo{TaskID: "t2", Files: []string{"b.py"}})

	if got := c.DetectConflicts(); len(got) != 0 {
		t.Errorf("DetectConflicts() = %+v, want none", got)
	}
	if got := c.Status().Conflicts; got != 0 {
		t.Errorf("Status().Conflicts = %d, want 0", got)
	}
}

func TestResolveConflict(t *testing.T) {
	c, _ := newTestCoordinator(t)
	mustRegister(t, c, "first", models.TaskInfo{})
	mustRegister(t, c, "second", models.TaskInfo{})
	mustRegister(t, c, "third", models.TaskInfo{})

	tests := []struct {
		name     string
		conflict models.Conflict
		want     models.Resolution
	}{
		{
			name:     "file overlap serializes in registration order",
			conflict: models.Conflict{Type: models.ConflictFileOverlap, Agents: []string{"third", "first"}},
			want:     models.Resolution{Strategy: models.ResolutionSerialize, Queue: []string{"first", "third"}},
		},
		{
			name:     "file edit behaves like overlap",
			conflict: models.Conflict{Type: models.ConflictFileEdit, Agents: []string{"second", "first"}},
			want:     models.Resolution{Strategy: models.ResolutionSerialize, Queue: []string{"first", "second"}},
		},
		{
			name:     "duplicate keeps the earliest",
			conflict: models.Conflict{Type: models.ConflictDuplicateTask, Agents: []string{"third", "second", "first"}},
			want: models.Resolution{
				Strategy: models.ResolutionCancelDuplicate,
				Keep:     "first",
				Cancel:   []string{"second", "third"},
			},
		},
		{
			name:     "unknown agents trail known ones",
			conflict: models.Conflict{Type: models.ConflictFileOverlap, Agents: []string{"ghost", "second"}},
			want:     models.Resolution{Strategy: models.ResolutionSerialize, Queue: []string{"second", "ghost"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.ResolveConflict(tt.conflict)
			if got.Strategy != tt.want.Strategy {
				t.Errorf("Strategy = %s, want %s", got.Strategy, tt.want.Strategy)
			}
			if !equalStrings(got.Queue, tt.want.Queue) {
				t.Errorf("Queue = %v, want %v", got.Queue, tt.want.Queue)
			}
			if got.Keep != tt.want.Keep {
				t.Errorf("Keep = %q, want %q", got.Keep, tt.want.Keep)
			}
			if !equalStrings(got.Cancel, tt.want.Cancel) {
				t.Errorf("Cancel = %v, want %v", got.Cancel, tt.want.Cancel)
			}
		})
	}
}

func TestResolveConflictEscalates(t *testing.T) {
	c, _ := newTestCoordinator(t)

	for _, conflict := range []models.Conflict{
		{Type: "priority", Agents: []string{"a", "b"}},
		{Type: models.ConflictDuplicateTask},
	} {
		got := c.ResolveConflict(conflict)
		if got.Strategy != models.ResolutionEscalate {
			t.Errorf("ResolveConflict(%+v).Strategy = %s, want escalate", conflict, got.Strategy)
		}
		if got.Reason == "" {
			t.Errorf("escalation for %+v carries no reason", conflict)
		}
	}
}

func TestResolveConflictDoesNotMutate(t *testing.T) {
	c, _ := newTestCoordinator(t)
	mustRegister(t, c, "a", models.TaskInfo{TaskID: "t", Description: "d"})
	mustRegister(t, c, "b", models.TaskInfo{TaskID: "t", Description: "d"})

	for _, conflict := range c.DetectConflicts() {
		c.ResolveConflict(conflict)
	}

	if got := c.ActiveAgents(); !equalStrings(got, []string{"a", "b"}) {
		t.Errorf("ActiveAgents() = %v after resolve, want [a b]", got)
	}
}
