package state

import (
	"context"
	"io"
	"time"

	"github.com/ShayCichocki/agentcoord/pkg/models"
)

// EventRecorder appends coordination events.
type EventRecorder interface {
	RecordEvent(runID string, ev models.Event) error
	Drain(ctx context.Context, runID string, events <-chan models.Event) (int, error)
}

// EventReader queries recorded events.
type EventReader interface {
	ListEvents(f EventFilter) ([]JournalEntry, error)
	CountByType(runID string) (map[models.EventType]int, error)
	ListRuns(limit int) ([]RunSummary, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// Journal is the full event journal. Callers that only write should depend
// on EventRecorder; read-only tools on EventReader.
type Journal interface {
	io.Closer
	Migrator
	EventRecorder
	EventReader
	PurgeOldEvents(olderThan time.Duration) (int64, error)
}

// Compile-time verification that DB implements all interfaces.
var (
	_ Journal       = (*DB)(nil)
	_ Migrator      = (*DB)(nil)
	_ EventRecorder = (*DB)(nil)
	_ EventReader   = (*DB)(nil)
)
