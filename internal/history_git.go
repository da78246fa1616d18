package internal

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitHistory reads revisions from the git repository containing dir. Paths
// passed to its methods are relative to dir.
type GitHistory struct {
	repo   *git.Repository
	prefix string
	logger *Logger
}

// NewGitHistory opens the repository whose work tree contains dir
func NewGitHistory(ctx context.Context, dir string, logger *Logger) (*GitHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %s: %w", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("not a git work tree: %s: %w", dir, err)
	}

	prefix, err := repoPrefix(wt.Filesystem.Root(), abs)
	if err != nil {
		return nil, err
	}
	return &GitHistory{repo: repo, prefix: prefix, logger: logger}, nil
}

// repoPrefix returns dir relative to the work tree root, slash separated,
// with a trailing slash ("" when dir is the root)
func repoPrefix(root, dir string) (string, error) {
	if r, err := filepath.EvalSymlinks(root); err == nil {
		root = r
	}
	if d, err := filepath.EvalSymlinks(dir); err == nil {
		dir = d
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the work tree %s", dir, root)
	}
	return filepath.ToSlash(rel) + "/", nil
}

// Revisions lists commits that added or modified path, oldest first.
// Commits that delete path are not revisions.
func (h *GitHistory) Revisions(ctx context.Context, path string) ([]Revision, error) {
	if _, err := h.repo.Head(); errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}

	name := h.prefix + path
	iter, err := h.repo.Log(&git.LogOptions{FileName: &name})
	if err != nil {
		return nil, fmt.Errorf("git log %s: %w", name, err)
	}
	defer iter.Close()

	var revisions []Revision
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := c.File(name); err != nil {
			if errors.Is(err, object.ErrFileNotFound) {
				return nil
			}
			return err
		}
		revisions = append(revisions, Revision{ID: c.Hash.String(), Time: c.Committer.When.UTC()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("git log %s: %w", name, err)
	}

	// log walks newest first
	for i, j := 0, len(revisions)-1; i < j; i, j = i+1, j-1 {
		revisions[i], revisions[j] = revisions[j], revisions[i]
	}
	sort.SliceStable(revisions, func(i, j int) bool {
		return revisions[i].Time.Before(revisions[j].Time)
	})

	h.logger.Debugf("git: %d revision(s) for %s", len(revisions), name)
	return revisions, nil
}

// ContentAt returns path as committed in revision id
func (h *GitHistory) ContentAt(ctx context.Context, id, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	commit, err := h.repo.CommitObject(plumbing.NewHash(id))
	if err != nil {
		return nil, fmt.Errorf("git commit %s: %w", id, err)
	}
	file, err := commit.File(h.prefix + path)
	if err != nil {
		return nil, fmt.Errorf("git show %s:%s: %w", id, path, err)
	}
	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("git show %s:%s: %w", id, path, err)
	}
	return []byte(contents), nil
}
