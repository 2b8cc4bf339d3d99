// Package testutils provides disposable git-worktree fixtures for tests
// that exercise the pipeline against a real repository and real `git diff`
// output, the way spec.md §8's end-to-end scenarios are framed. Adapted
// from the teacher's shared test-repo helper: stripped of everything about
// the git index (staging, patch-id tracking) since this engine edits
// working-tree content and never touches the index.
package testutils

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// TestRepo is a temporary git worktree a test can commit files into and
// generate real unified diffs from.
type TestRepo struct {
	t    *testing.T
	Path string
	repo *git.Repository
}

// NewTestRepo initializes a fresh repository under a temp directory that
// is removed automatically when the test completes.
func NewTestRepo(t *testing.T, prefix string) *TestRepo {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init test repository: %v", err)
	}

	cfg, err := repo.Config()
	if err != nil {
		t.Fatalf("failed to read repo config: %v", err)
	}
	cfg.User.Name = "Test User"
	cfg.User.Email = "test@example.com"
	if err := repo.SetConfig(cfg); err != nil {
		t.Fatalf("failed to set repo config: %v", err)
	}

	return &TestRepo{t: t, Path: dir, repo: repo}
}

// WriteFile writes content to filename relative to the repository root,
// without committing it.
func (tr *TestRepo) WriteFile(filename, content string) {
	tr.t.Helper()
	full := filepath.Join(tr.Path, filename)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		tr.t.Fatalf("failed to create parent dir for %s: %v", filename, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		tr.t.Fatalf("failed to write %s: %v", filename, err)
	}
}

// ReadFile returns the current on-disk content of filename.
func (tr *TestRepo) ReadFile(filename string) string {
	tr.t.Helper()
	data, err := os.ReadFile(filepath.Join(tr.Path, filename))
	if err != nil {
		tr.t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

// CommitFile writes content to filename and commits it as message.
func (tr *TestRepo) CommitFile(filename, content, message string) {
	tr.t.Helper()
	tr.WriteFile(filename, content)

	w, err := tr.repo.Worktree()
	if err != nil {
		tr.t.Fatalf("failed to get worktree: %v", err)
	}
	if _, err := w.Add(filename); err != nil {
		tr.t.Fatalf("failed to stage %s: %v", filename, err)
	}
	_, err = w.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		tr.t.Fatalf("failed to commit %s: %v", filename, err)
	}
}

// DiffAgainstHEAD shells out to `git diff HEAD -- filename` and returns the
// unified diff text, the real patch bytes this engine is meant to consume
// (rather than a hand-built fixture string).
func (tr *TestRepo) DiffAgainstHEAD(filename string) string {
	tr.t.Helper()
	cmd := exec.Command("git", "diff", "--no-color", "HEAD", "--", filename)
	cmd.Dir = tr.Path
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			tr.t.Fatalf("git diff failed: %v\nstderr: %s", err, exitErr.Stderr)
		}
		tr.t.Fatalf("git diff failed: %v", err)
	}
	return string(out)
}

// Lines splits s on "\n", matching how the engine represents file content.
func Lines(s string) []string {
	return strings.Split(s, "\n")
}
