// Package auditstore persists session audit trails in SQLite.
//
// A Store implements session.Sink: attach it to a session.Log with
// session.WithSink and every recorded execution and file load is mirrored
// to disk, keyed by the log's session ID. The read side backs the
// "rigorexec log" command.
package auditstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jonwraymond/rigorexec/session"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrSessionNotFound is returned when a session has no recorded activity.
var ErrSessionNotFound = errors.New("session not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
	session_id TEXT NOT NULL,
	step INTEGER NOT NULL,
	recorded_at TEXT NOT NULL,
	code TEXT NOT NULL,
	success INTEGER NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (session_id, step)
);
CREATE TABLE IF NOT EXISTS file_loads (
	session_id TEXT NOT NULL,
	path TEXT NOT NULL,
	loaded_at TEXT NOT NULL,
	PRIMARY KEY (session_id, path)
);
CREATE INDEX IF NOT EXISTS idx_entries_recorded ON entries(recorded_at);
`

// Store is a SQLite-backed audit trail.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Entries are insert-only. Re-recording a (session, step) pair is ignored.
type Store struct {
	db *sql.DB
}

var _ session.Sink = (*Store)(nil)

// Open opens or creates the database at path, creating parent directories.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create audit dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init audit schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordEntry implements session.Sink.
func (s *Store) RecordEntry(sessionID string, e session.Entry) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO entries
		(session_id, step, recorded_at, code, success, error, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, e.Step, e.Timestamp.UTC().Format(timeLayout), e.Code,
		boolInt(e.Success), e.Error, e.Description,
	)
	if err != nil {
		return fmt.Errorf("record entry: %w", err)
	}
	return nil
}

// RecordFileLoad implements session.Sink.
func (s *Store) RecordFileLoad(sessionID, path string, at time.Time) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO file_loads (session_id, path, loaded_at) VALUES (?, ?, ?)`,
		sessionID, path, at.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("record file load: %w", err)
	}
	return nil
}

// SessionInfo summarises one stored session.
type SessionInfo struct {
	ID         string    `json:"session_id"`
	FirstStep  time.Time `json:"first_step"`
	LastStep   time.Time `json:"last_step"`
	TotalSteps int       `json:"total_steps"`
	Failed     int       `json:"failed_steps"`
}

// Sessions lists stored sessions, most recently active first.
func (s *Store) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_id, MIN(recorded_at), MAX(recorded_at),
		COUNT(*), SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END)
		FROM entries GROUP BY session_id ORDER BY MAX(recorded_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		var (
			info        SessionInfo
			first, last string
		)
		if err := rows.Scan(&info.ID, &first, &last, &info.TotalSteps, &info.Failed); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		info.FirstStep = parseTime(first)
		info.LastStep = parseTime(last)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Latest returns the most recently active session ID.
func (s *Store) Latest(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id FROM entries ORDER BY recorded_at DESC, step DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query latest session: %w", err)
	}
	return id, nil
}

// Entries returns a session's entries in step order.
func (s *Store) Entries(ctx context.Context, sessionID string) ([]session.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT step, recorded_at, code, success, error, description
		FROM entries WHERE session_id = ? ORDER BY step`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []session.Entry
	for rows.Next() {
		var (
			e       session.Entry
			at      string
			success int
		)
		if err := rows.Scan(&e.Step, &at, &e.Code, &success, &e.Error, &e.Description); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Timestamp = parseTime(at)
		e.Success = success != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// LoadedFiles returns a session's loaded files in load order.
func (s *Store) LoadedFiles(ctx context.Context, sessionID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path FROM file_loads WHERE session_id = ? ORDER BY loaded_at, rowid`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query file loads: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan file load: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Retrieve rebuilds a session's log view from the store.
func (s *Store) Retrieve(ctx context.Context, sessionID string) (session.Retrieval, error) {
	entries, err := s.Entries(ctx, sessionID)
	if err != nil {
		return session.Retrieval{}, err
	}
	files, err := s.LoadedFiles(ctx, sessionID)
	if err != nil {
		return session.Retrieval{}, err
	}
	if len(entries) == 0 && len(files) == 0 {
		return session.Retrieval{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	sum := session.Summary{SessionID: sessionID, TotalSteps: len(entries), LoadedFiles: files}
	for _, e := range entries {
		if e.Success {
			sum.SuccessfulSteps++
		} else {
			sum.FailedSteps++
		}
	}
	if entries == nil {
		entries = []session.Entry{}
	}
	return session.Retrieval{Summary: sum, Entries: entries}, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
