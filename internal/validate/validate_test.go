package validate

import (
	"testing"

	"github.com/syou6162/patchpipeline/internal/diffparse"
)

func TestIsNewFileCreation(t *testing.T) {
	fd := &diffparse.FileDiff{
		IsNew: true,
		Hunks: []*diffparse.Hunk{
			{OldStart: 0, OldCount: 0, NewStart: 1, NewCount: 2, AddedLines: []string{"a", "b"}},
		},
	}
	if !IsNewFileCreation(fd) {
		t.Fatalf("expected new-file creation to be detected")
	}

	fd.Hunks[0].RemovedLines = []string{"x"}
	if IsNewFileCreation(fd) {
		t.Fatalf("a hunk with removals is not a new-file creation")
	}
}

func TestIsHunkAlreadyApplied_PureAddition(t *testing.T) {
	file := []string{"package main", "", "import \"fmt\"", ""}
	h := &diffparse.Hunk{
		OldBlock:   []string{"package main", ""},
		AddedLines: []string{"import \"fmt\""},
	}
	if !IsHunkAlreadyApplied(file, h, 0, AlreadyAppliedOptions{}) {
		t.Fatalf("expected pure-addition hunk to be detected as already applied")
	}
}

func TestIsHunkAlreadyApplied_RemovalNoop(t *testing.T) {
	file := []string{"old line", "context"}
	h := &diffparse.Hunk{
		RemovedLines: []string{"old line"},
		NewLines:     []string{"new line"},
	}
	if IsHunkAlreadyApplied(file, h, 0, AlreadyAppliedOptions{}) {
		t.Fatalf("removal content still present means not yet applied")
	}
}

func TestIsHunkAlreadyApplied_NewContentPresent(t *testing.T) {
	file := []string{"new line", "context"}
	h := &diffparse.Hunk{
		RemovedLines: []string{"old line"},
		NewLines:     []string{"new line"},
	}
	if !IsHunkAlreadyApplied(file, h, 0, AlreadyAppliedOptions{}) {
		t.Fatalf("expected already-applied when new content is present and old is gone")
	}
}

func TestParseImport(t *testing.T) {
	tests := []struct {
		line       string
		wantModule string
		wantOK     bool
	}{
		{"import fmt", "fmt", true},
		{`import { useState } from 'react'`, "react", true},
		{"from os import path", "os", true},
		{`const { readFile } = require('fs')`, "fs", true},
		{"x := 1", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseImport(tt.line)
		if ok != tt.wantOK {
			t.Fatalf("ParseImport(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
		}
		if ok && got.Module != tt.wantModule {
			t.Fatalf("ParseImport(%q) module = %q, want %q", tt.line, got.Module, tt.wantModule)
		}
	}
}

func TestIsImportAlreadyPresent(t *testing.T) {
	file := []string{`import { useState, useEffect } from 'react'`}
	if !IsImportAlreadyPresent(file, `import { useState } from 'react'`) {
		t.Fatalf("expected overlapping symbol import to be detected as already present")
	}
	if IsImportAlreadyPresent(file, `import { useMemo } from 'react'`) {
		t.Fatalf("non-overlapping symbol should not be flagged as already present")
	}
}

func TestIsMalformedState_ReplacementContradiction(t *testing.T) {
	file := []string{
		"func old() {}",
		"filler",
		"filler",
		"func newVersion() {}",
	}
	h := &diffparse.Hunk{
		RemovedLines: []string{"func old() {}"},
		AddedLines:   []string{"func newVersion() {}"},
		OldStart:     1,
	}
	if !IsMalformedState(file, h) {
		t.Fatalf("expected malformed-state to fire when both sides exist verbatim nearby")
	}
}

func TestIsMalformedState_SubsetIsNotContradiction(t *testing.T) {
	file := []string{"func f(a, b) {}"}
	h := &diffparse.Hunk{
		RemovedLines: []string{"func f(a, b) {}"},
		AddedLines:   []string{"func f(a, b) {}"},
		OldStart:     1,
	}
	if IsMalformedState(file, h) {
		t.Fatalf("identical content should not be treated as a contradiction")
	}
}
