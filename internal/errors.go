package internal

import "fmt"

// ConfigError represents invalid or missing configuration
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error [%s]: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// FetchError represents a transport failure talking to the profile service
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch error %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StorageError represents errors accessing snapshot files
type StorageError struct {
	Path string
	Op   string // "read", "write", "mkdir", "parse"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors decoding JSON payloads
type ParseError struct {
	Source string // "remote", "store", "history"
	Key    string // URL or file path
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// CharacterError represents a failure confined to a single character
type CharacterError struct {
	AccountID string
	Character string
	Err       error
}

func (e *CharacterError) Error() string {
	return fmt.Sprintf("character error [%s/%s]: %v", e.AccountID, e.Character, e.Err)
}

func (e *CharacterError) Unwrap() error {
	return e.Err
}

// AccountError represents a failure that aborted an account
type AccountError struct {
	AccountID string
	Err       error
}

func (e *AccountError) Error() string {
	return fmt.Sprintf("account error [%s]: %v", e.AccountID, e.Err)
}

func (e *AccountError) Unwrap() error {
	return e.Err
}

// ReconstructionError represents errors replaying a file's revision history
type ReconstructionError struct {
	Path     string
	Revision string
	Err      error
}

func (e *ReconstructionError) Error() string {
	if e.Revision == "" {
		return fmt.Sprintf("reconstruction error [%s]: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("reconstruction error [%s@%s]: %v", e.Path, e.Revision, e.Err)
}

func (e *ReconstructionError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
