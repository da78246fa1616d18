package internal

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLiteHistory records snapshot writes as revisions in a SQLite database
// and serves them back to the reconstructor. Writes whose content matches
// the latest revision of the same path are not recorded, so the table only
// holds real changes.
type SQLiteHistory struct {
	db     *sql.DB
	logger *Logger
	now    func() time.Time
}

// OpenSQLiteHistory opens (creating if needed) the revision database at path
func OpenSQLiteHistory(path string, logger *Logger) (*SQLiteHistory, error) {
	db, err := OpenDatabase(path, false)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	return NewSQLiteHistory(db, logger), nil
}

// NewSQLiteHistory wraps an open database that already has the revision
// schema
func NewSQLiteHistory(db *sql.DB, logger *Logger) *SQLiteHistory {
	return &SQLiteHistory{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Close closes the database
func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}

// Record stores content as a new revision of path unless it is identical to
// the latest one
func (h *SQLiteHistory) Record(ctx context.Context, path string, content []byte) error {
	hash := contentHash(content)

	var latest string
	err := h.db.QueryRowContext(ctx,
		"SELECT content_hash FROM revisions WHERE path = ? ORDER BY committed_at DESC, seq DESC LIMIT 1",
		path,
	).Scan(&latest)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("query failed: %w", err)
	}
	if latest == hash {
		h.logger.Debugf("sqlite: %s unchanged, no revision recorded", path)
		return nil
	}

	id := uuid.NewString()
	_, err = h.db.ExecContext(ctx,
		"INSERT INTO revisions (revision_id, path, committed_at, content_hash, content) VALUES (?, ?, ?, ?, ?)",
		id, path, h.now().UnixNano(), hash, content,
	)
	if err != nil {
		return fmt.Errorf("insert failed: %w", err)
	}
	h.logger.Debugf("sqlite: recorded revision %s for %s", id, path)
	return nil
}

// Revisions lists the recorded revisions of path, oldest first
func (h *SQLiteHistory) Revisions(ctx context.Context, path string) ([]Revision, error) {
	rows, err := h.db.QueryContext(ctx,
		"SELECT revision_id, committed_at FROM revisions WHERE path = ? ORDER BY committed_at, seq",
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var revisions []Revision
	for rows.Next() {
		var id string
		var nanos int64
		if err := rows.Scan(&id, &nanos); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		revisions = append(revisions, Revision{ID: id, Time: time.Unix(0, nanos).UTC()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return revisions, nil
}

// ContentAt returns the content recorded for path in revision id
func (h *SQLiteHistory) ContentAt(ctx context.Context, id, path string) ([]byte, error) {
	var content []byte
	err := h.db.QueryRowContext(ctx,
		"SELECT content FROM revisions WHERE revision_id = ? AND path = ?",
		id, path,
	).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("revision %s not found for %s", id, path)
	}
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return content, nil
}

// contentHash hashes snapshot bytes for change detection
func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
