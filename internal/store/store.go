// Package store persists diary sessions in SQLite. Incremental saves are
// idempotent for accomplishments and objectives; finalization is a plain,
// authoritative write that must happen once per session.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    start_time        TEXT NOT NULL,
    end_time          TEXT,
    total_duration_ms INTEGER DEFAULT 0,
    created_at        TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS accomplishments (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id  INTEGER NOT NULL,
    category    TEXT NOT NULL,
    description TEXT NOT NULL,
    duration_ms INTEGER,
    created_at  TEXT DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (session_id) REFERENCES sessions (id)
);
CREATE TABLE IF NOT EXISTS accomplishment_files (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    accomplishment_id INTEGER NOT NULL,
    file_path         TEXT NOT NULL,
    FOREIGN KEY (accomplishment_id) REFERENCES accomplishments (id)
);
CREATE TABLE IF NOT EXISTS objectives (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id INTEGER NOT NULL,
    objective  TEXT NOT NULL,
    created_at TEXT DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (session_id) REFERENCES sessions (id)
);
CREATE TABLE IF NOT EXISTS issues (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id INTEGER NOT NULL,
    issue      TEXT NOT NULL,
    created_at TEXT DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (session_id) REFERENCES sessions (id)
);
CREATE TABLE IF NOT EXISTS tool_usage (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id  INTEGER NOT NULL,
    tool_name   TEXT NOT NULL,
    usage_count INTEGER DEFAULT 1,
    FOREIGN KEY (session_id) REFERENCES sessions (id)
);
CREATE TABLE IF NOT EXISTS files_modified (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id INTEGER NOT NULL,
    file_path  TEXT NOT NULL,
    created_at TEXT DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (session_id) REFERENCES sessions (id)
);
CREATE INDEX IF NOT EXISTS idx_sessions_start_time ON sessions(start_time);
CREATE INDEX IF NOT EXISTS idx_accomplishments_session ON accomplishments(session_id);
CREATE INDEX IF NOT EXISTS idx_objectives_session ON objectives(session_id);
CREATE INDEX IF NOT EXISTS idx_tool_usage_session ON tool_usage(session_id, tool_name);
`

// busyTimeout is how long a write waits on another hook process holding
// the database lock.
const busyTimeout = 5 * time.Second

// Store is a diary database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_txlock=immediate",
		path, busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema in %s: %w", path, err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession inserts a sessions row and returns its id.
func (s *Store) CreateSession(start time.Time) (int64, error) {
	var id int64
	err := s.db.QueryRow(
		"INSERT INTO sessions (start_time) VALUES (?) RETURNING id",
		start.Format(time.RFC3339),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// withTx runs fn inside a transaction, committing on success.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// SessionCount returns the number of sessions rows.
func (s *Store) SessionCount() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

func nullableMS(ms *uint64) any {
	if ms == nil {
		return nil
	}
	return int64(*ms)
}
