package applier

import (
	"testing"

	"github.com/syou6162/patchpipeline/internal/config"
	"github.com/syou6162/patchpipeline/internal/diffparse"
	"github.com/syou6162/patchpipeline/internal/errtrack"
)

func TestInitialPosition_NoPriorHunks(t *testing.T) {
	h := &diffparse.Hunk{OldStart: 10}
	pos := InitialPosition(h, nil)
	if pos != 9 {
		t.Fatalf("position = %d, want 9", pos)
	}
}

func TestInitialPosition_AccountsForPriorOffset(t *testing.T) {
	h := &diffparse.Hunk{OldStart: 20}
	applied := []Applied{
		{OldStart: 1, OldEnd: 5, Added: 3, Removed: 1},
	}
	pos := InitialPosition(h, applied)
	if pos != 21 {
		t.Fatalf("position = %d, want 21 (19 + offset 2)", pos)
	}
}

func TestApply_StrictMatchSplices(t *testing.T) {
	file := []string{"package main", "", "func old() {}", ""}
	h := &diffparse.Hunk{
		OldStart:   3,
		OldBlock:   []string{"func old() {}"},
		NewLines:   []string{"func new() {}"},
		AddedLines: []string{"func new() {}"},
	}
	cfg := config.FromEnv()

	outcome := Apply(file, h, 2, cfg)
	if !outcome.Applied {
		t.Fatalf("expected strict match to apply, got error %v: %s", outcome.ErrorKind, outcome.ErrorMessage)
	}
	if outcome.NewLines[2] != "func new() {}" {
		t.Fatalf("spliced content = %q, want %q", outcome.NewLines[2], "func new() {}")
	}
}

func TestApply_FuzzyMatchFindsShiftedPosition(t *testing.T) {
	file := []string{
		"header",
		"",
		"",
		"func target(x int) int {",
		"    return x + 1",
		"}",
	}
	h := &diffparse.Hunk{
		OldStart: 1,
		OldBlock: []string{
			"func target(x int) int {",
			"    return x + 1",
			"}",
		},
		NewLines: []string{
			"func target(x int) int {",
			"    return x + 2",
			"}",
		},
		AddedLines: []string{"    return x + 2"},
	}
	cfg := config.FromEnv()

	outcome := Apply(file, h, 0, cfg)
	if !outcome.Applied {
		t.Fatalf("expected fuzzy match to apply, got error %v: %s", outcome.ErrorKind, outcome.ErrorMessage)
	}
	if outcome.Position != 3 {
		t.Fatalf("position = %d, want 3", outcome.Position)
	}
}

func TestSpliceAndVerify_SurgicalPreservesSurroundingText(t *testing.T) {
	file := []string{
		"package main",
		"",
		"func helper() int {",
		"    x := 1 //ok",
		"    return x",
		"}",
	}
	h := &diffparse.Hunk{
		OldStart:     4,
		OldBlock:     []string{"    x := 1"},
		NewLines:     []string{"    x := 2"},
		RemovedLines: []string{"    x := 1"},
		AddedLines:   []string{"    x := 2"},
	}

	outcome := spliceAndVerify(file, h, 3, 0.8, "fuzzy")
	if !outcome.Applied {
		t.Fatalf("expected surgical application to succeed, got error %v: %s", outcome.ErrorKind, outcome.ErrorMessage)
	}
	if outcome.Strategy != "surgical" {
		t.Fatalf("strategy = %q, want surgical", outcome.Strategy)
	}
	if outcome.NewLines[3] != "    x := 2 //ok" {
		t.Fatalf("spliced line = %q, want trailing comment preserved", outcome.NewLines[3])
	}
}

func TestSpliceAndVerify_StrictStrategyNeverGoesSurgical(t *testing.T) {
	file := []string{"func old() {}", ""}
	h := &diffparse.Hunk{
		OldStart:     1,
		OldBlock:     []string{"func old() {}"},
		NewLines:     []string{"func new() {}"},
		RemovedLines: []string{"func old() {}"},
		AddedLines:   []string{"func new() {}"},
	}

	outcome := spliceAndVerify(file, h, 0, 1.0, "strict")
	if !outcome.Applied {
		t.Fatalf("expected strict application to succeed, got error %v: %s", outcome.ErrorKind, outcome.ErrorMessage)
	}
	if outcome.Strategy != "strict" {
		t.Fatalf("strategy = %q, want strict (surgical must not run for exact matches)", outcome.Strategy)
	}
}

func TestApply_NoMatchReportsPositionUndetermined(t *testing.T) {
	file := []string{"totally unrelated content"}
	h := &diffparse.Hunk{
		OldStart:   1,
		OldBlock:   []string{"func nowhere() {}"},
		NewLines:   []string{"func nowhere2() {}"},
		AddedLines: []string{"func nowhere2() {}"},
	}
	cfg := config.FromEnv()

	outcome := Apply(file, h, 0, cfg)
	if outcome.Applied {
		t.Fatalf("expected no match, got applied at %d", outcome.Position)
	}
	if outcome.ErrorKind != errtrack.KindPositionUndetermined {
		t.Fatalf("ErrorKind = %v, want PositionUndetermined", outcome.ErrorKind)
	}
}
