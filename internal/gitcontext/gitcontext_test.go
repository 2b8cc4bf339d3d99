package gitcontext

import (
	"os"
	"testing"

	"github.com/go-git/go-git/v5"
)

func TestIsRepository(t *testing.T) {
	dir := t.TempDir()
	r := NewReader(dir)
	if r.IsRepository() {
		t.Fatalf("a plain temp directory should not be detected as a repository")
	}

	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatalf("failed to init test repository: %v", err)
	}
	if !r.IsRepository() {
		t.Fatalf("expected an initialized repository to be detected")
	}
}

func TestFileState_UntrackedFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatalf("failed to init test repository: %v", err)
	}
	if err := os.WriteFile(dir+"/new.txt", []byte("hello\n"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	r := NewReader(dir)
	state, err := r.FileState("new.txt")
	if err != nil {
		t.Fatalf("FileState failed: %v", err)
	}
	if state.Tracked {
		t.Fatalf("a brand-new file should not be reported as tracked")
	}
}
