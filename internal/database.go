package internal

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const revisionSchema = `
CREATE TABLE IF NOT EXISTS revisions (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	revision_id  TEXT NOT NULL UNIQUE,
	path         TEXT NOT NULL,
	committed_at INTEGER NOT NULL,
	content_hash TEXT NOT NULL,
	content      BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_revisions_path ON revisions (path, committed_at, seq);
`

// OpenDatabase opens a SQLite database. Read-only handles skip schema
// creation.
func OpenDatabase(path string, readOnly bool) (*sql.DB, error) {
	dsn := path
	if readOnly {
		dsn = "file:" + path + "?mode=ro"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases and pragmas consistent
	db.SetMaxOpenConns(1)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if !readOnly {
		if _, err := db.Exec(revisionSchema); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return db, nil
}
