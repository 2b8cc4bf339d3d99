package reverse

import (
	"context"
	"testing"

	"github.com/syou6162/patchpipeline/internal/diffparse"
)

func TestReverse_DirectReplacement(t *testing.T) {
	fd := &diffparse.FileDiff{
		NewPath: "f.go",
		Hunks: []*diffparse.Hunk{
			{
				Number:   1,
				OldStart: 1,
				NewStart: 1,
				OldBlock: []string{"func old() {}"},
				NewLines: []string{"func new() {}"},
			},
		},
	}
	fileLines := []string{"func new() {}", ""}

	r := NewRunner(nil)
	outcome := r.Reverse(context.Background(), t.TempDir(), fd, fileLines, "", nil)
	if !outcome.Applied {
		t.Fatalf("expected reverse to succeed")
	}
	if outcome.Content[0] != "func old() {}" {
		t.Fatalf("content[0] = %q, want %q", outcome.Content[0], "func old() {}")
	}
}

func TestReverse_RejectsWhenExpectedMismatches(t *testing.T) {
	fd := &diffparse.FileDiff{
		NewPath: "f.go",
		Hunks: []*diffparse.Hunk{
			{
				Number:   1,
				OldStart: 1,
				NewStart: 1,
				OldBlock: []string{"func old() {}"},
				NewLines: []string{"func new() {}"},
			},
		},
	}
	fileLines := []string{"func new() {}", ""}
	wrongExpected := []string{"func totally_different() {}", ""}

	r := NewRunner(nil)
	outcome := r.Reverse(context.Background(), t.TempDir(), fd, fileLines, "", wrongExpected)
	if outcome.Applied && outcome.Strategy == "direct-reverse-replacement" {
		t.Fatalf("expected direct-reverse-replacement to be rejected on expected-content mismatch")
	}
}

func TestReverseHunks_SwapsOldAndNew(t *testing.T) {
	hunks := []*diffparse.Hunk{
		{
			OldStart:     1,
			OldCount:     2,
			NewStart:     1,
			NewCount:     1,
			OldBlock:     []string{"a", "b"},
			NewLines:     []string{"a"},
			RemovedLines: []string{"b"},
			AddedLines:   []string{},
		},
	}
	reversed := reverseHunks(hunks)
	if reversed[0].OldStart != 1 || reversed[0].OldCount != 1 {
		t.Fatalf("reversed OldStart/OldCount = %d/%d, want 1/1", reversed[0].OldStart, reversed[0].OldCount)
	}
	if len(reversed[0].OldBlock) != 1 || reversed[0].OldBlock[0] != "a" {
		t.Fatalf("reversed OldBlock = %v, want [a]", reversed[0].OldBlock)
	}
}
