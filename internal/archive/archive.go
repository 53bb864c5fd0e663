// Package archive copies run logs into a SQLite database for ad-hoc queries.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/pida/internal/eventlog"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	run_id    TEXT NOT NULL,
	trace_id  TEXT NOT NULL,
	seq       INTEGER NOT NULL,
	ts        REAL NOT NULL,
	type      TEXT NOT NULL,
	content   TEXT NOT NULL,
	meta      TEXT NOT NULL,
	prev_hash TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, trace_id)
);
CREATE INDEX IF NOT EXISTS events_run_type ON events (run_id, type);
`

// Archive is a SQLite-backed store of exported events.
type Archive struct {
	db *sql.DB
}

// Open opens or creates the archive at path and applies the schema.
func Open(path string) (*Archive, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("archive: path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("archive: open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("archive: ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("archive: apply schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the database handle.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Export inserts events for runID in one transaction. Events already
// present for the same (run_id, trace_id) are left untouched, so
// re-exporting a run only adds what was appended since. It returns the
// number of rows inserted.
func (a *Archive) Export(ctx context.Context, runID string, events []eventlog.Event) (int, error) {
	if runID == "" {
		return 0, fmt.Errorf("archive: run id is required")
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("archive: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO events
		(run_id, trace_id, seq, ts, type, content, meta, prev_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("archive: prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for i, ev := range events {
		content, err := json.Marshal(orEmpty(ev.Content))
		if err != nil {
			return 0, fmt.Errorf("archive: marshal content of %s: %w", ev.TraceID, err)
		}
		meta, err := json.Marshal(orEmpty(ev.Meta))
		if err != nil {
			return 0, fmt.Errorf("archive: marshal meta of %s: %w", ev.TraceID, err)
		}

		res, err := stmt.ExecContext(ctx, runID, ev.TraceID, i, ev.TS, ev.Type,
			string(content), string(meta), ev.PrevHash)
		if err != nil {
			return 0, fmt.Errorf("archive: insert %s: %w", ev.TraceID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("archive: rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("archive: commit: %w", err)
	}
	return inserted, nil
}

// CountByType returns the number of archived events per type for runID.
func (a *Archive) CountByType(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT type, COUNT(*) FROM events WHERE run_id = ? GROUP BY type ORDER BY type`, runID)
	if err != nil {
		return nil, fmt.Errorf("archive: count by type: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("archive: scan count: %w", err)
		}
		counts[kind] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive: count by type: %w", err)
	}
	return counts, nil
}

// events returns the archived events of runID in log order.
func (a *Archive) events(ctx context.Context, runID string) ([]eventlog.Event, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT trace_id, ts, type, content, meta, prev_hash FROM events WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("archive: query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []eventlog.Event
	for rows.Next() {
		var (
			ev            eventlog.Event
			content, meta string
		)
		if err := rows.Scan(&ev.TraceID, &ev.TS, &ev.Type, &content, &meta, &ev.PrevHash); err != nil {
			return nil, fmt.Errorf("archive: scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(content), &ev.Content); err != nil {
			return nil, fmt.Errorf("archive: decode content of %s: %w", ev.TraceID, err)
		}
		if err := json.Unmarshal([]byte(meta), &ev.Meta); err != nil {
			return nil, fmt.Errorf("archive: decode meta of %s: %w", ev.TraceID, err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
