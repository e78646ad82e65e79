package state

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/agentcoord/pkg/models"
)

// JournalEntry is an event as stored in the journal.
type JournalEntry struct {
	models.Event
	// RunID groups the events of one coordinator run.
	RunID string `json:"run_id"`
}

// EventFilter narrows ListEvents. Zero fields match everything.
type EventFilter struct {
	RunID   string
	AgentID string
	Type    models.EventType
	// Limit caps the result size. Zero means no limit.
	Limit int
}

// RunSummary describes one run recorded in the journal.
type RunSummary struct {
	RunID     string    `json:"run_id"`
	Events    int       `json:"events"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// RecordEvent appends ev to the journal under runID.
// Events without an ID or timestamp get one assigned.
func (db *DB) RecordEvent(runID string, ev models.Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	_, err := db.Exec(`
		INSERT INTO coordination_events (id, run_id, type, agent_id, path, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ev.ID, runID, string(ev.Type), ev.AgentID, ev.Path, ev.Message, formatTime(ev.Timestamp))
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// ListEvents returns matching events, newest first.
func (db *DB) ListEvents(f EventFilter) ([]JournalEntry, error) {
	var where []string
	var args []any
	if f.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, f.RunID)
	}
	if f.AgentID != "" {
		where = append(where, "agent_id = ?")
		args = append(args, f.AgentID)
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}

	query := "SELECT id, run_id, type, agent_id, path, message, created_at FROM coordination_events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.RunID, &e.Type, &e.AgentID, &e.Path, &e.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Timestamp, _ = parseTime(createdAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return entries, nil
}

// CountByType counts events per type, optionally restricted to one run.
func (db *DB) CountByType(runID string) (map[models.EventType]int, error) {
	var rows *sql.Rows
	var err error
	if runID != "" {
		rows, err = db.Query("SELECT type, COUNT(*) FROM coordination_events WHERE run_id = ? GROUP BY type", runID)
	} else {
		rows, err = db.Query("SELECT type, COUNT(*) FROM coordination_events GROUP BY type")
	}
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.EventType]int)
	for rows.Next() {
		var t models.EventType
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[t] = n
	}
	return counts, rows.Err()
}

// ListRuns summarises recorded runs, most recent first.
func (db *DB) ListRuns(limit int) ([]RunSummary, error) {
	query := `
		SELECT run_id, COUNT(*), MIN(created_at), MAX(created_at)
		FROM coordination_events GROUP BY run_id ORDER BY MAX(created_at) DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var started, ended string
		if err := rows.Scan(&r.RunID, &r.Events, &started, &ended); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = parseTime(started)
		r.EndedAt, _ = parseTime(ended)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// PurgeOldEvents deletes events older than olderThan and returns how many.
func (db *DB) PurgeOldEvents(olderThan time.Duration) (int64, error) {
	cutoff := formatTime(time.Now().Add(-olderThan))

	result, err := db.Exec("DELETE FROM coordination_events WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge old events: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return count, nil
}

// Drain records every event received on events under runID until the channel
// is closed or ctx is done. It returns the number of events written and the
// first write error, if any.
func (db *DB) Drain(ctx context.Context, runID string, events <-chan models.Event) (int, error) {
	written := 0
	for {
		select {
		case <-ctx.Done():
			return written, nil
		case ev, ok := <-events:
			if !ok {
				return written, nil
			}
			if err := db.RecordEvent(runID, ev); err != nil {
				return written, err
			}
			written++
		}
	}
}
