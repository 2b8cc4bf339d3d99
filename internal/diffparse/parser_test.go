package diffparse

import (
	"strings"
	"testing"
)

const wellFormedPatch = `diff --git a/main.go b/main.go
index 1111111..2222222 100644
--- a/main.go
+++ b/main.go
@@ -1,3 +1,3 @@
 package main
-func old() {}
+func new() {}
 var x = 1
`

func TestParsePatch_WellFormedGoesThroughGitDiff(t *testing.T) {
	p, err := ParsePatch(wellFormedPatch)
	if err != nil {
		t.Fatalf("ParsePatch failed: %v", err)
	}
	if len(p.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(p.Files))
	}
	fd := p.Files[0]
	if fd.NewPath != "main.go" || fd.OldPath != "main.go" {
		t.Fatalf("unexpected paths: old=%q new=%q", fd.OldPath, fd.NewPath)
	}
	if len(fd.Hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(fd.Hunks))
	}
	h := fd.Hunks[0]
	if h.OldStart != 1 || h.OldCount != 3 || h.NewStart != 1 || h.NewCount != 3 {
		t.Fatalf("unexpected hunk range: %+v", h)
	}
	if len(h.RemovedLines) != 1 || h.RemovedLines[0] != "func old() {}" {
		t.Fatalf("unexpected removed lines: %v", h.RemovedLines)
	}
	if len(h.AddedLines) != 1 || h.AddedLines[0] != "func new() {}" {
		t.Fatalf("unexpected added lines: %v", h.AddedLines)
	}
	if len(h.OldBlock) != 3 || len(h.NewLines) != 3 {
		t.Fatalf("unexpected block lengths: old=%d new=%d", len(h.OldBlock), len(h.NewLines))
	}
}

func TestParsePatch_AllHunksFlattensAcrossFiles(t *testing.T) {
	p, err := ParsePatch(wellFormedPatch)
	if err != nil {
		t.Fatalf("ParsePatch failed: %v", err)
	}
	all := p.AllHunks()
	if len(all) != 1 {
		t.Fatalf("expected 1 hunk from AllHunks, got %d", len(all))
	}
}

// mangledPatch drops the "diff --git"/"index" preamble entirely - the
// tolerant scanner has no file-boundary marker to read a path from, so the
// hunk's FilePath comes back empty, but the hunk body itself still parses.
const mangledPatch = `--- a/util.py
+++ b/util.py
@@ -1,2 +1,2 @@
 def f():
-    return 1
+    return 2
`

func TestParsePatch_MangledFallsBackToTolerant(t *testing.T) {
	p, err := parseTolerant(mangledPatch)
	if err != nil {
		t.Fatalf("parseTolerant failed: %v", err)
	}
	if len(p.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(p.Files))
	}
	fd := p.Files[0]
	if len(fd.Hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(fd.Hunks))
	}
	h := fd.Hunks[0]
	if len(h.RemovedLines) != 1 || h.RemovedLines[0] != "    return 1" {
		t.Fatalf("unexpected removed lines: %v", h.RemovedLines)
	}
	if len(h.AddedLines) != 1 || h.AddedLines[0] != "    return 2" {
		t.Fatalf("unexpected added lines: %v", h.AddedLines)
	}
}

func TestParsePatch_TolerantStopsHunkOnStrayLine(t *testing.T) {
	patch := `--- a/f.go
+++ b/f.go
@@ -1,1 +1,1 @@
-old
+new
some stray trailer that is not diff content
@@ -5,1 +5,1 @@
-five
+five!
`
	p, err := parseTolerant(patch)
	if err != nil {
		t.Fatalf("parseTolerant failed: %v", err)
	}
	if len(p.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(p.Files))
	}
	if len(p.Files[0].Hunks) != 2 {
		t.Fatalf("expected 2 hunks (stray line should end the first), got %d", len(p.Files[0].Hunks))
	}
}

func TestParsePatch_NoNewlineMarkerSetsMissingNewline(t *testing.T) {
	patch := `--- a/f.go
+++ b/f.go
@@ -1,1 +1,1 @@
-old
+new
\ No newline at end of file
`
	p, err := parseTolerant(patch)
	if err != nil {
		t.Fatalf("parseTolerant failed: %v", err)
	}
	h := p.Files[0].Hunks[0]
	if !h.MissingNewline {
		t.Fatalf("expected MissingNewline to be set")
	}
}

func TestParsePatch_EmptyInputIsMalformed(t *testing.T) {
	_, err := ParsePatch("")
	if err == nil {
		t.Fatalf("expected error for empty patch text")
	}
	if _, ok := err.(*MalformedHunkError); !ok {
		t.Fatalf("expected *MalformedHunkError, got %T", err)
	}
}

func TestUnescapeTemplateBackticks_OnlyWhenFenceMarkerPresent(t *testing.T) {
	withFence := "some ```${code} \\`escaped\\` here"
	got := UnescapeTemplateBackticks(withFence)
	want := "some ```${code} `escaped` here"
	if got != want {
		t.Fatalf("UnescapeTemplateBackticks(%q) = %q, want %q", withFence, got, want)
	}

	noFence := "plain markdown \\`not a template\\` fence"
	if got := UnescapeTemplateBackticks(noFence); got != noFence {
		t.Fatalf("expected no-op without fence marker, got %q", got)
	}
}

func TestParseHunkHeader_DefaultsCountToOne(t *testing.T) {
	h, err := parseHunkHeader("@@ -5 +7 @@", 1, "f.go")
	if err != nil {
		t.Fatalf("parseHunkHeader failed: %v", err)
	}
	if h.OldStart != 5 || h.OldCount != 1 || h.NewStart != 7 || h.NewCount != 1 {
		t.Fatalf("unexpected header parse: %+v", h)
	}
}

func TestParseHunkHeader_HonorsExplicitHunkNumberTail(t *testing.T) {
	h, err := parseHunkHeader("@@ -1,2 +1,2 @@ Hunk #9", 1, "f.go")
	if err != nil {
		t.Fatalf("parseHunkHeader failed: %v", err)
	}
	if h.Number != 9 {
		t.Fatalf("Number = %d, want 9 (from trailing Hunk # marker)", h.Number)
	}
}

func TestParseHunkHeader_RejectsUnterminatedHeader(t *testing.T) {
	if _, err := parseHunkHeader("@@ -1,2 +1,2", 1, "f.go"); err == nil {
		t.Fatalf("expected error for unterminated header")
	}
}

func TestParseHunkHeader_RejectsMissingRange(t *testing.T) {
	if _, err := parseHunkHeader("@@ -1,2 @@", 1, "f.go"); err == nil {
		t.Fatalf("expected error for missing new-range field")
	}
}

func TestParseRange(t *testing.T) {
	start, count, err := parseRange("-10,4", '-')
	if err != nil {
		t.Fatalf("parseRange failed: %v", err)
	}
	if start != 10 || count != 4 {
		t.Fatalf("start=%d count=%d, want 10,4", start, count)
	}

	start, count, err = parseRange("+3", '+')
	if err != nil {
		t.Fatalf("parseRange failed: %v", err)
	}
	if start != 3 || count != 1 {
		t.Fatalf("start=%d count=%d, want 3,1 (default count)", start, count)
	}

	if _, _, err := parseRange("+3", '-'); err == nil {
		t.Fatalf("expected error for wrong leading sigil")
	}
	if _, _, err := parseRange("-abc", '-'); err == nil {
		t.Fatalf("expected error for non-numeric start")
	}
	if _, _, err := parseRange("-1,xyz", '-'); err == nil {
		t.Fatalf("expected error for non-numeric count")
	}
}

func TestHunk_Ext(t *testing.T) {
	cases := map[string]string{
		"internal/foo/bar.go": ".go",
		"a/b/c.tar.gz":        ".gz",
		"noext":               "",
		"Dockerfile":          "",
		"SCRIPT.SH":           ".sh",
	}
	for path, want := range cases {
		h := &Hunk{FilePath: path}
		if got := h.Ext(); got != want {
			t.Errorf("Ext(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestTrimTrailingEmptyArtifact(t *testing.T) {
	h := &Hunk{
		OldBlock: []string{"a", "b", ""},
		NewLines: []string{"a", "c", ""},
		OldCount: 3,
		NewCount: 3,
	}
	trimTrailingEmptyArtifact(h)
	if len(h.OldBlock) != 2 || len(h.NewLines) != 2 {
		t.Fatalf("expected trailing empty line trimmed, got old=%v new=%v", h.OldBlock, h.NewLines)
	}
	if h.OldCount != 2 || h.NewCount != 2 {
		t.Fatalf("expected counts decremented, got old=%d new=%d", h.OldCount, h.NewCount)
	}
}

func TestTrimTrailingEmptyArtifact_NoOpWhenCountsDisagree(t *testing.T) {
	h := &Hunk{
		OldBlock: []string{"a", ""},
		NewLines: []string{"a", ""},
		OldCount: 5,
		NewCount: 2,
	}
	trimTrailingEmptyArtifact(h)
	if len(h.OldBlock) != 2 {
		t.Fatalf("expected no trim when declared counts don't match actual lengths")
	}
}

func TestMalformedHunkError_MessageIncludesHeaderWhenPresent(t *testing.T) {
	err := &MalformedHunkError{Reason: "bad thing", Header: "@@ -1 +1 @@"}
	if !strings.Contains(err.Error(), "bad thing") || !strings.Contains(err.Error(), "@@ -1 +1 @@") {
		t.Fatalf("unexpected error message: %q", err.Error())
	}

	bare := &MalformedHunkError{Reason: "bad thing"}
	if strings.Contains(bare.Error(), "@@") {
		t.Fatalf("expected no header fragment in message: %q", bare.Error())
	}
}

func TestExtractRemainingHunks_DropsSucceededHunks(t *testing.T) {
	succeeded := map[int]bool{1: true}
	out, err := ExtractRemainingHunks(wellFormedPatch, succeeded)
	if err != nil {
		t.Fatalf("ExtractRemainingHunks failed: %v", err)
	}
	if out != "" {
		t.Fatalf("expected empty output when the only hunk already succeeded, got %q", out)
	}
}

func TestExtractRemainingHunks_KeepsUnsuccessfulHunks(t *testing.T) {
	out, err := ExtractRemainingHunks(wellFormedPatch, map[int]bool{})
	if err != nil {
		t.Fatalf("ExtractRemainingHunks failed: %v", err)
	}
	if !strings.Contains(out, "@@ -1,3 +1,3 @@") {
		t.Fatalf("expected remaining patch to retain the hunk header, got %q", out)
	}
	if !strings.Contains(out, "diff --git a/main.go b/main.go") {
		t.Fatalf("expected remaining patch to retain file headers, got %q", out)
	}
}

func TestExtractRemainingHunks_MultiFileOnlyEmitsFilesWithUnsuccessfulHunks(t *testing.T) {
	patch := `diff --git a/a.go b/a.go
--- a/a.go
+++ b/a.go
@@ -1,1 +1,1 @@
-a
+a2
diff --git a/b.go b/b.go
--- a/b.go
+++ b/b.go
@@ -1,1 +1,1 @@
-b
+b2
`
	out, err := ExtractRemainingHunks(patch, map[int]bool{1: true, 2: false})
	if err != nil {
		t.Fatalf("ExtractRemainingHunks failed: %v", err)
	}
	if strings.Contains(out, "a.go") {
		t.Fatalf("expected a.go (fully succeeded) to be dropped, got %q", out)
	}
	if !strings.Contains(out, "b.go") {
		t.Fatalf("expected b.go (unsuccessful) to be retained, got %q", out)
	}
}

func TestExplain_RendersHeaderAndRange(t *testing.T) {
	h := &Hunk{
		Number:   3,
		FilePath: "f.go",
		Header:   "@@ -1,2 +1,3 @@",
		OldStart: 1, OldCount: 2,
		NewStart: 1, NewCount: 3,
	}
	out := Explain(h)
	for _, want := range []string{"Hunk #3", "f.go", "@@ -1,2 +1,3 @@", "1,2", "1,3"} {
		if !strings.Contains(out, want) {
			t.Errorf("Explain output missing %q: %q", want, out)
		}
	}
}

func TestExplain_NotesMissingNewline(t *testing.T) {
	h := &Hunk{Number: 1, FilePath: "f.go", Header: "@@ -1 +1 @@", MissingNewline: true}
	if !strings.Contains(Explain(h), "no trailing newline") {
		t.Fatalf("expected missing-newline note in Explain output")
	}
}
