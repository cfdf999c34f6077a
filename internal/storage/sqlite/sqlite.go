// Package sqlite implements the snippet store on an embedded SQLite file.
//
// The driver is modernc.org/sqlite — a pure Go translation of SQLite, so the
// daemon cross-compiles without CGo. Three tables are persisted: snippets
// (one row per snippet, no tags column), tags (deduplicated vocabulary), and
// the snippet_tags association table with cascade deletes in both directions.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // registers the "sqlite" driver with database/sql
)

// Store wraps a sql.DB handle and implements the storage contract.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database file, creating the parent directory
// if needed, and runs the schema migration. Use ":memory:" for tests.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("sqlite: creating storage directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One logical connection. Concurrent callers queue on it instead of
	// running in parallel, and a transactional Save is never interleaved
	// with another write.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL keeps readers unblocked during writes; foreign keys are off by
	// default in SQLite and the cascade deletes on snippet_tags need them.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	s := &Store{conn: conn, logger: logger}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return s, nil
}

// Close closes the connection, flushing the WAL and releasing the file lock.
func (s *Store) Close() error {
	return s.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to
// run on every open.
func (s *Store) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS snippets (
			id              TEXT PRIMARY KEY,
			title           TEXT NOT NULL,
			code            TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			language        TEXT NOT NULL,
			project_context TEXT NOT NULL,
			created_at      INTEGER NOT NULL,
			updated_at      INTEGER NOT NULL,
			gist_id         TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS tags (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL
		);

		CREATE TABLE IF NOT EXISTS snippet_tags (
			snippet_id TEXT NOT NULL,
			tag_id     INTEGER NOT NULL,
			PRIMARY KEY (snippet_id, tag_id),
			FOREIGN KEY (snippet_id) REFERENCES snippets(id) ON DELETE CASCADE,
			FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_snippets_language ON snippets(language);
		CREATE INDEX IF NOT EXISTS idx_snippets_project ON snippets(project_context);
	`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
