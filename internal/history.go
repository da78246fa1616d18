package internal

import (
	"context"
	"fmt"
	"strings"
)

// History source names accepted by OpenHistory
const (
	HistorySourceGit    = "git"
	HistorySourceSQLite = "sqlite"
)

// RevisionHistory exposes the revisions of snapshot files. Paths are
// relative to the history root and use forward slashes.
type RevisionHistory interface {
	// Revisions lists the revisions that touched path, oldest first
	Revisions(ctx context.Context, path string) ([]Revision, error)
	// ContentAt returns the content of path as of revision id
	ContentAt(ctx context.Context, id, path string) ([]byte, error)
}

// HistoryCloser is a RevisionHistory holding resources
type HistoryCloser interface {
	RevisionHistory
	Close() error
}

type nopCloser struct {
	RevisionHistory
}

func (nopCloser) Close() error { return nil }

// OpenHistory opens the named history backend. dir is the snapshot
// directory (git) and dbPath the revision database (sqlite).
func OpenHistory(ctx context.Context, source, dir, dbPath string, logger *Logger) (HistoryCloser, error) {
	switch strings.ToLower(source) {
	case "", HistorySourceGit:
		h, err := NewGitHistory(ctx, dir, logger)
		if err != nil {
			return nil, err
		}
		return nopCloser{h}, nil
	case HistorySourceSQLite:
		if dbPath == "" {
			return nil, &ConfigError{Key: "ARMORY_HISTORY_DB", Err: fmt.Errorf("sqlite history requires a database path")}
		}
		return OpenSQLiteHistory(dbPath, logger)
	default:
		return nil, &ConfigError{Key: "source", Err: fmt.Errorf("unsupported history source: %s (supported: %s, %s)", source, HistorySourceGit, HistorySourceSQLite)}
	}
}
