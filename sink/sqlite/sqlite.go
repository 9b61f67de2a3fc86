// Package sqlite provides a SQL-backed Event/Log Sink. Events append to a
// single table keyed by GUID so external tooling can join them against agent
// and plan records.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hupe1980/agentbridge/core"
)

const (
	createEventsTableSQL = `
CREATE TABLE IF NOT EXISTS events (
    id VARCHAR(36) PRIMARY KEY,
    subject_guid VARCHAR(36),
    kind VARCHAR(64) NOT NULL,
    message TEXT NOT NULL,
    severity VARCHAR(16) NOT NULL,
    timestamp TIMESTAMP NOT NULL
)`

	createEventsSubjectIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_events_subject_guid ON events(subject_guid)`
)

// Sink is a core.Sink persisting events to a SQL database. *sql.DB serializes
// access internally, so the sink is safe for concurrent appends.
type Sink struct {
	db    *sql.DB
	owned bool
}

// Open creates a sink with its own sqlite connection at dsn (":memory:" for a
// volatile database).
func Open(dsn string) (*Sink, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite sink: %w", err)
	}
	s, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// New wraps an existing connection. Sharing the connection with other
// services using the same database avoids sqlite "database is locked" errors.
func New(db *sql.DB) (*Sink, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	s := &Sink{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sink) initSchema() error {
	for _, stmt := range []string{createEventsTableSQL, createEventsSubjectIndexSQL} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init events schema: %w", err)
		}
	}
	return nil
}

// Record implements core.Sink.
func (s *Sink) Record(ev core.Event) error {
	_, err := s.db.Exec(
		`INSERT INTO events (id, subject_guid, kind, message, severity, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.SubjectGUID, ev.Kind, ev.Message, string(ev.Severity), ev.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// Events returns up to limit events in insertion order; limit <= 0 returns
// everything.
func (s *Sink) Events(limit int) ([]core.Event, error) {
	query := `SELECT id, subject_guid, kind, message, severity, timestamp FROM events ORDER BY rowid`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []core.Event
	for rows.Next() {
		var ev core.Event
		var severity string
		var ts time.Time
		if err := rows.Scan(&ev.ID, &ev.SubjectGUID, &ev.Kind, &ev.Message, &severity, &ts); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Severity = core.Severity(severity)
		ev.Timestamp = ts
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Close releases the database connection if this sink owns it.
func (s *Sink) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
