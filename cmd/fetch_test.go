package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/armory-history/internal"
	"github.com/iksnae/armory-history/testutil"
)

func newProfileServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/A1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testutil.SampleSummary))
	})
	mux.HandleFunc("/A1/c1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testutil.SampleCharacter("1700000000")))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchCommand(t *testing.T) {
	srv := newProfileServer(t)
	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	db := filepath.Join(dir, "history.db")

	out, err := executeCommand(t, "fetch", "A1",
		"--base-url", srv.URL,
		"--data", data,
		"--history-db", db,
		"--log-file", filepath.Join(dir, "fetch.log"),
		"--sleep", "0")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if !strings.Contains(out, "A1") || !strings.Contains(out, "written") {
		t.Errorf("Unexpected output:\n%s", out)
	}

	for _, rel := range []string{"A1/_.json", "A1/Hero.json", "_manifest.yaml"} {
		if _, err := os.Stat(filepath.Join(data, filepath.FromSlash(rel))); err != nil {
			t.Errorf("Expected %s to exist: %v", rel, err)
		}
	}

	var hero map[string]interface{}
	testutil.JSONUnmarshal(t, []byte(testutil.ReadFile(t, data, "A1/Hero.json")), &hero)
	if hero["name"] != "Hero" {
		t.Errorf("Hero.json name = %v, want Hero", hero["name"])
	}

	logData, err := os.ReadFile(filepath.Join(dir, "fetch.log"))
	if err != nil {
		t.Fatalf("Expected log file: %v", err)
	}
	if !strings.Contains(string(logData), "[DEBUG]") {
		t.Errorf("Log file should carry debug lines, got:\n%s", logData)
	}

	history, err := internal.OpenSQLiteHistory(db, internal.NewNopLogger())
	if err != nil {
		t.Fatalf("OpenSQLiteHistory() error = %v", err)
	}
	defer history.Close()
	revs, err := history.Revisions(context.Background(), "A1/Hero.json")
	if err != nil {
		t.Fatalf("Revisions() error = %v", err)
	}
	if len(revs) != 1 {
		t.Errorf("Expected 1 recorded revision, got %d", len(revs))
	}
}

func TestFetchCommand_AccountsFromEnv(t *testing.T) {
	srv := newProfileServer(t)
	data := t.TempDir()
	t.Setenv("ACCOUNT_ID", "A1")

	_, err := executeCommand(t, "fetch", "--base-url", srv.URL, "--data", data, "--log-file", "")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(data, "A1", "Hero.json")); err != nil {
		t.Errorf("Expected Hero.json: %v", err)
	}
}

func TestFetchCommand_NoAccounts(t *testing.T) {
	t.Setenv("ACCOUNT_ID", "")
	_, err := executeCommand(t, "fetch", "--data", t.TempDir(), "--log-file", "")
	if err == nil {
		t.Fatal("Expected error without account ids")
	}
	if !strings.Contains(err.Error(), "ACCOUNT_ID") {
		t.Errorf("Error should name ACCOUNT_ID, got %v", err)
	}
}

func TestFetchCommand_InvalidSleep(t *testing.T) {
	_, err := executeCommand(t, "fetch", "A1", "--sleep", "soon", "--log-file", "")
	if err == nil {
		t.Error("Expected error for invalid --sleep")
	}
}

func TestFetchCommand_UnknownAccountFails(t *testing.T) {
	srv := newProfileServer(t)
	data := t.TempDir()

	out, err := executeCommand(t, "fetch", "A1,MISSING", "--base-url", srv.URL, "--data", data, "--log-file", "")
	if err != nil {
		t.Fatalf("a 404 summary skips the account without failing the run: %v", err)
	}
	if !strings.Contains(out, "no summary returned") {
		t.Errorf("Unexpected output:\n%s", out)
	}
}

func TestApplyFetchFlags_SplitsAccountIDs(t *testing.T) {
	resetFlags(rootCmd)
	cfg = internal.DefaultConfig()
	if err := applyFetchFlags(fetchCmd, []string{"A1, A2", "A3"}); err != nil {
		t.Fatal(err)
	}
	want := []string{"A1", "A2", "A3"}
	if strings.Join(cfg.AccountIDs, "|") != strings.Join(want, "|") {
		t.Errorf("AccountIDs = %v, want %v", cfg.AccountIDs, want)
	}
}
