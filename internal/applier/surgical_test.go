package applier

import (
	"testing"

	"github.com/syou6162/patchpipeline/internal/diffparse"
)

func TestTrySurgical_ReplacesInPlacePreservingSurroundingText(t *testing.T) {
	fileLines := []string{
		"line0",
		"    x := 1 //ok",
		"line2",
	}
	h := &diffparse.Hunk{
		RemovedLines: []string{"x := 1"},
		AddedLines:   []string{"x := 2"},
	}

	out, ok := trySurgical(fileLines, h, 1)
	if !ok {
		t.Fatalf("expected a unique surgical match")
	}
	if out[1] != "    x := 2 //ok" {
		t.Fatalf("out[1] = %q, want %q", out[1], "    x := 2 //ok")
	}
	if out[0] != fileLines[0] || out[2] != fileLines[2] {
		t.Fatalf("surrounding lines must be untouched, got %v", out)
	}
}

func TestTrySurgical_NoUniqueMatchFallsBack(t *testing.T) {
	fileLines := []string{"x := 1", "x := 1"}
	h := &diffparse.Hunk{
		RemovedLines: []string{"x := 1"},
		AddedLines:   []string{"x := 2"},
	}

	if _, ok := trySurgical(fileLines, h, 0); ok {
		t.Fatalf("expected no unique match when the removed content appears twice in the window")
	}
}

func TestTrySurgical_NoOpReplacementFallsBack(t *testing.T) {
	fileLines := []string{"x := 1"}
	h := &diffparse.Hunk{
		RemovedLines: []string{"x := 1"},
		AddedLines:   []string{"x := 1"},
	}

	if _, ok := trySurgical(fileLines, h, 0); ok {
		t.Fatalf("expected no surgical match when added content equals removed content")
	}
}

func TestIsSurgicalCandidate(t *testing.T) {
	replacement := &diffparse.Hunk{
		OldBlock:     []string{"x := 1"},
		RemovedLines: []string{"x := 1"},
		AddedLines:   []string{"x := 2"},
	}
	pureAdd := &diffparse.Hunk{
		OldBlock:   []string{},
		AddedLines: []string{"x := 2"},
	}

	if isSurgicalCandidate(replacement, "strict") {
		t.Fatalf("strict matches must never go surgical")
	}
	if isSurgicalCandidate(replacement, "short-content-exact") {
		t.Fatalf("short-content-exact matches must never go surgical")
	}
	if !isSurgicalCandidate(replacement, "fuzzy") {
		t.Fatalf("a fuzzily-positioned single-line replacement should be a surgical candidate")
	}
	if isSurgicalCandidate(pureAdd, "fuzzy") {
		t.Fatalf("a pure addition must never go surgical")
	}
}
