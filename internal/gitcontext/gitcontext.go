// Package gitcontext opens the target repository with go-git and reports
// the worktree state the pipeline needs before applying a patch: whether a
// file is tracked, untracked, or already carries unstaged modifications
// that would make an "already applied" determination ambiguous. Adapted
// from the teacher's GitStatusReader, repointed at plain worktree-state
// questions instead of staging-area bookkeeping.
package gitcontext

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

// Reader answers worktree-state questions about one repository.
type Reader interface {
	FileState(path string) (FileState, error)
	IsRepository() bool
}

// FileState is a single file's worktree status.
type FileState struct {
	Tracked   bool
	Modified  bool
	Untracked bool
	Deleted   bool
}

// DefaultReader implements Reader using go-git against a plain repository
// open at repoPath.
type DefaultReader struct {
	repoPath string
}

// NewReader constructs a DefaultReader rooted at repoPath ("." when empty).
func NewReader(repoPath string) *DefaultReader {
	if repoPath == "" {
		repoPath = "."
	}
	return &DefaultReader{repoPath: repoPath}
}

// IsRepository reports whether repoPath is (or is inside) a git worktree.
func (r *DefaultReader) IsRepository() bool {
	_, err := git.PlainOpenWithOptions(r.repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	return err == nil
}

// FileState reports the worktree status of one path, relative to the
// repository root.
func (r *DefaultReader) FileState(path string) (FileState, error) {
	repo, err := git.PlainOpenWithOptions(r.repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return FileState{}, fmt.Errorf("failed to open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return FileState{}, fmt.Errorf("failed to get worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return FileState{}, fmt.Errorf("failed to get status: %w", err)
	}

	fileStatus, inStatus := status[path]
	if !inStatus {
		// A clean tracked file has no status entry; consult the index.
		idx, err := repo.Storer.Index()
		if err != nil {
			return FileState{}, fmt.Errorf("failed to read index: %w", err)
		}
		_, entryErr := idx.Entry(path)
		return FileState{Tracked: entryErr == nil}, nil
	}

	state := FileState{Tracked: fileStatus.Staging != git.Untracked}
	switch fileStatus.Worktree {
	case git.Modified:
		state.Modified = true
	case git.Deleted:
		state.Deleted = true
	case git.Untracked:
		state.Untracked = true
		state.Tracked = false
	}
	return state, nil
}
