package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// AccountSummaryFile is the file name of an account summary snapshot
const AccountSummaryFile = "_.json"

// RevisionRecorder receives every snapshot write so a revision history can
// be kept alongside the files
type RevisionRecorder interface {
	Record(ctx context.Context, path string, content []byte) error
}

// SnapshotStore maps accounts and characters to their latest snapshot file
// under a data root: {root}/{account}/_.json and {root}/{account}/{file}.
type SnapshotStore struct {
	root     string
	logger   *Logger
	recorder RevisionRecorder
}

// NewSnapshotStore creates a store rooted at root
func NewSnapshotStore(root string, logger *Logger) *SnapshotStore {
	return &SnapshotStore{
		root:   root,
		logger: logger,
	}
}

// SetRecorder attaches a revision recorder; nil detaches it
func (s *SnapshotStore) SetRecorder(recorder RevisionRecorder) {
	s.recorder = recorder
}

// Root returns the data root
func (s *SnapshotStore) Root() string {
	return s.root
}

// AccountDir returns the directory holding an account's snapshots
func (s *SnapshotStore) AccountDir(accountID string) string {
	return filepath.Join(s.root, sanitizeFileName(accountID))
}

// SummaryPath returns the account summary file path
func (s *SnapshotStore) SummaryPath(accountID string) string {
	return filepath.Join(s.AccountDir(accountID), AccountSummaryFile)
}

// CharacterPath returns a character's snapshot file path
func (s *SnapshotStore) CharacterPath(accountID, fileName string) string {
	return filepath.Join(s.AccountDir(accountID), fileName)
}

// EnsureAccountDir creates the account directory if it does not exist
func (s *SnapshotStore) EnsureAccountDir(accountID string) (string, error) {
	dir := s.AccountDir(accountID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &StorageError{Path: dir, Op: "mkdir", Err: err}
	}
	return dir, nil
}

// ReadLatest returns the stored snapshot at path, or nil when the file does
// not exist or cannot be parsed. Parse failures are logged, never returned.
func (s *SnapshotStore) ReadLatest(path string) *Snapshot {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warnf("%v", &StorageError{Path: path, Op: "read", Err: err})
		}
		return nil
	}

	snap, err := DecodeSnapshot(data)
	if err != nil {
		s.logger.Warnf("ignoring existing snapshot: %v", &StorageError{Path: path, Op: "parse", Err: err})
		return nil
	}
	return snap
}

// WriteLatest replaces the snapshot at path with compact ASCII-only JSON.
// The content goes to a temporary file in the same directory first and is
// renamed into place, so readers never see a partial file.
func (s *SnapshotStore) WriteLatest(ctx context.Context, path string, snap *Snapshot) error {
	if snap == nil {
		return &StorageError{Path: path, Op: "write", Err: errors.New("nil snapshot")}
	}

	data, err := EncodeASCII(snap)
	if err != nil {
		return &StorageError{Path: path, Op: "write", Err: fmt.Errorf("failed to marshal snapshot: %w", err)}
	}

	if err := writeFileAtomic(path, data); err != nil {
		return &StorageError{Path: path, Op: "write", Err: err}
	}
	s.logger.Debugf("wrote %d bytes to %s", len(data), path)

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, s.relative(path), data); err != nil {
			s.logger.Warnf("failed to record revision for %s: %v", path, err)
		}
	}
	return nil
}

// relative returns path relative to the data root using forward slashes
func (s *SnapshotStore) relative(path string) string {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op once the rename succeeded
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
