package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// InitGitRepo initializes an empty repository in dir
func InitGitRepo(t *testing.T, dir string) {
	t.Helper()
	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatalf("Failed to init repository: %v", err)
	}
}

// CommitAll stages every addition, change and removal in dir and commits it
// at the given time
func CommitAll(t *testing.T, dir string, at time.Time, message string) {
	t.Helper()
	repo, err := git.PlainOpen(dir)
	if err != nil {
		t.Fatalf("Failed to open repository: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to open work tree: %v", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		t.Fatalf("Failed to stage changes: %v", err)
	}
	sig := &object.Signature{Name: "fetcher", Email: "fetcher@example.test", When: at}
	if _, err := wt.Commit(message, &git.CommitOptions{All: true, Author: sig, Committer: sig}); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
}

// RequireGit skips the test when the git command is not installed
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// Git runs the installed git command in dir. A non-zero at pins author and
// committer dates.
func Git(t *testing.T, dir string, at time.Time, args ...string) string {
	t.Helper()
	RequireGit(t)
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_NOSYSTEM=1", "HOME="+dir,
		"GIT_AUTHOR_NAME=fetcher", "GIT_AUTHOR_EMAIL=fetcher@example.test",
		"GIT_COMMITTER_NAME=fetcher", "GIT_COMMITTER_EMAIL=fetcher@example.test")
	if !at.IsZero() {
		stamp := fmt.Sprintf("%d +0000", at.Unix())
		cmd.Env = append(cmd.Env, "GIT_AUTHOR_DATE="+stamp, "GIT_COMMITTER_DATE="+stamp)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
	return string(out)
}
