package ordering

import (
	"testing"

	"github.com/syou6162/patchpipeline/internal/diffparse"
)

func TestResolve_SortsByOldStart(t *testing.T) {
	hunks := []*diffparse.Hunk{
		{Number: 2, OldStart: 50, OldCount: 2},
		{Number: 1, OldStart: 10, OldCount: 2},
	}
	got := Resolve(hunks)
	if got[0].OldStart != 10 || got[1].OldStart != 50 {
		t.Fatalf("expected ascending old-start order, got %+v", got)
	}
}

func TestResolve_MergesOverlappingRanges(t *testing.T) {
	hunks := []*diffparse.Hunk{
		{Number: 1, OldStart: 10, OldCount: 5, OldBlock: []string{"a", "b"}, NewLines: []string{"a2"}},
		{Number: 2, OldStart: 12, OldCount: 5, OldBlock: []string{"c"}, NewLines: []string{"c2"}},
	}
	got := Resolve(hunks)
	if len(got) != 1 {
		t.Fatalf("expected overlapping hunks to merge into one, got %d", len(got))
	}
	if got[0].OldStart != 10 || got[0].OldCount != 7 {
		t.Fatalf("merged range = [%d,%d), want [10,17)", got[0].OldStart, got[0].OldStart+got[0].OldCount)
	}
}

func TestResolve_NonOverlappingUntouched(t *testing.T) {
	hunks := []*diffparse.Hunk{
		{Number: 1, OldStart: 10, OldCount: 2},
		{Number: 2, OldStart: 50, OldCount: 2},
	}
	got := Resolve(hunks)
	if len(got) != 2 {
		t.Fatalf("expected non-overlapping hunks to remain separate, got %d", len(got))
	}
}
