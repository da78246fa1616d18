package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SampleSummary is an account summary in the full schema with one character
const SampleSummary = `{"characters":[{"id":"c1","name":"Hero"}]}`

// SampleCharacter returns a full-schema character detail with the given
// login marker
func SampleCharacter(lastLogin string) string {
	return `{"id":"c1","name":"Hero","class":"Barbarian","level":50,"lastLogin":` + lastLogin + `}`
}

// WriteFile writes content to dir/rel, creating parent directories
func WriteFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", rel, err)
	}
	return path
}

// ReadFile reads dir/rel as a string
func ReadFile(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("Failed to read %s: %v", rel, err)
	}
	return string(data)
}
