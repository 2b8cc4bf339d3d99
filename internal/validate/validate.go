// Package validate implements spec.md §4.2's gates: new-file detection,
// already-applied detection, the import-duplicate heuristic, and
// malformed-state detection.
package validate

import (
	"regexp"
	"strings"

	"github.com/syou6162/patchpipeline/internal/diffparse"
	"github.com/syou6162/patchpipeline/internal/normalize"
)

// IsNewFileCreation implements spec.md §4.2.1.
func IsNewFileCreation(fd *diffparse.FileDiff) bool {
	if len(fd.Hunks) != 1 {
		return false
	}
	h := fd.Hunks[0]
	if len(h.RemovedLines) != 0 {
		return false
	}
	if fd.IsNew && h.OldStart == 0 && h.OldCount == 0 {
		return true
	}
	return h.OldStart == 0 && h.OldCount == 0 && h.NewCount > 0
}

// AlreadyAppliedOptions carries the tunables spec.md §4.2.3 names.
type AlreadyAppliedOptions struct {
	IgnoreWhitespace bool
}

// IsHunkAlreadyApplied implements spec.md §4.2.3. fileLines is the current
// file content; pos is the 0-based candidate position.
func IsHunkAlreadyApplied(fileLines []string, h *diffparse.Hunk, pos int, opts AlreadyAppliedOptions) bool {
	if pos < 0 || pos > len(fileLines) {
		return false
	}
	if IsMalformedState(fileLines, h) {
		return false
	}

	if h.IsPureAddition() {
		return pureAdditionAlreadyApplied(fileLines, h, pos)
	}

	if len(h.RemovedLines) == 0 {
		return false
	}

	if windowMatches(fileLines, h.RemovedLines, pos, opts.IgnoreWhitespace) {
		// The removed content is still at pos, so the hunk has not been
		// applied.
		return false
	}
	if !windowMatches(fileLines, h.NewLines, pos, opts.IgnoreWhitespace) {
		return false
	}

	if len(h.RemovedLines) >= 3 {
		mid := middleHalf(h.RemovedLines)
		if blockAppearsAnywhere(fileLines, mid, opts.IgnoreWhitespace) {
			return false
		}
	}

	return true
}

func pureAdditionAlreadyApplied(fileLines []string, h *diffparse.Hunk, pos int) bool {
	if len(h.OldBlock) > 0 {
		if !windowMatches(fileLines, h.OldBlock, pos, false) {
			return false
		}
		addedStart := pos + len(h.OldBlock)
		return windowMatches(fileLines, h.AddedLines, addedStart, false)
	}
	_, ok := blockIndex(fileLines, h.AddedLines, false)
	return ok
}

func windowMatches(fileLines []string, want []string, pos int, ignoreWhitespace bool) bool {
	if len(want) == 0 {
		return true
	}
	if pos < 0 || pos+len(want) > len(fileLines) {
		return false
	}
	for i, w := range want {
		if !linesEqual(fileLines[pos+i], w, ignoreWhitespace) {
			return false
		}
	}
	return true
}

func linesEqual(a, b string, ignoreWhitespace bool) bool {
	if ignoreWhitespace {
		return normalize.StripWhitespace(a) == normalize.StripWhitespace(b)
	}
	return normalize.LinesEqual(a, b)
}

func blockIndex(fileLines []string, block []string, ignoreWhitespace bool) (int, bool) {
	if len(block) == 0 {
		return -1, false
	}
	for i := 0; i+len(block) <= len(fileLines); i++ {
		if windowMatches(fileLines, block, i, ignoreWhitespace) {
			return i, true
		}
	}
	return -1, false
}

func blockAppearsAnywhere(fileLines []string, block []string, ignoreWhitespace bool) bool {
	_, ok := blockIndex(fileLines, block, ignoreWhitespace)
	return ok
}

// middleHalf returns the middle 50% of lines, per spec.md §4.2.3's
// distinctive-content check.
func middleHalf(lines []string) []string {
	n := len(lines)
	quarter := n / 4
	start := quarter
	end := n - quarter
	if start >= end {
		return lines
	}
	return lines[start:end]
}

var importPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*import\s+([\w.]+)`),
	regexp.MustCompile(`^\s*import\s*\{([^}]*)\}\s*from\s*['"]([^'"]+)['"]`),
	regexp.MustCompile(`^\s*from\s+([\w.]+)\s+import\s+(.+)`),
	regexp.MustCompile(`^\s*const\s+(\{[^}]*\}|\w+)\s*=\s*require\(['"]([^'"]+)['"]\)`),
}

// ImportStatement is a parsed import line per spec.md §4.2.4.
type ImportStatement struct {
	Module  string
	Symbols map[string]struct{}
}

// ParseImport recognizes the import forms spec.md §4.2.4 names. ok is false
// when line is not an import statement.
func ParseImport(line string) (ImportStatement, bool) {
	trimmed := strings.TrimSpace(line)

	if m := importPatterns[1].FindStringSubmatch(trimmed); m != nil {
		return ImportStatement{Module: m[2], Symbols: symbolSet(m[1])}, true
	}
	if m := importPatterns[2].FindStringSubmatch(trimmed); m != nil {
		return ImportStatement{Module: m[1], Symbols: symbolSet(m[2])}, true
	}
	if m := importPatterns[3].FindStringSubmatch(trimmed); m != nil {
		return ImportStatement{Module: m[2], Symbols: symbolSet(m[1])}, true
	}
	if m := importPatterns[0].FindStringSubmatch(trimmed); m != nil {
		return ImportStatement{Module: m[1], Symbols: map[string]struct{}{}}, true
	}
	return ImportStatement{}, false
}

func symbolSet(raw string) map[string]struct{} {
	raw = strings.Trim(raw, "{} ")
	set := map[string]struct{}{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if idx := strings.Index(part, " as "); idx >= 0 {
			part = strings.TrimSpace(part[:idx])
		}
		set[part] = struct{}{}
	}
	return set
}

// IsImportAlreadyPresent implements spec.md §4.2.4: the added line is an
// import whose module already has an import in fileLines with an
// overlapping symbol set.
func IsImportAlreadyPresent(fileLines []string, addedLine string) bool {
	added, ok := ParseImport(addedLine)
	if !ok {
		return false
	}
	for _, line := range fileLines {
		existing, ok := ParseImport(line)
		if !ok || existing.Module != added.Module {
			continue
		}
		if len(added.Symbols) == 0 {
			return true
		}
		for sym := range added.Symbols {
			if _, present := existing.Symbols[sym]; present {
				return true
			}
		}
	}
	return false
}

// IsMalformedState implements spec.md §4.2.5.
func IsMalformedState(fileLines []string, h *diffparse.Hunk) bool {
	return isReplacementContradiction(fileLines, h) || isPhantomAdd(fileLines, h)
}

func isReplacementContradiction(fileLines []string, h *diffparse.Hunk) bool {
	if len(h.RemovedLines) == 0 || len(h.AddedLines) == 0 {
		return false
	}
	removedText := strings.Join(h.RemovedLines, "\n")
	addedText := strings.Join(h.AddedLines, "\n")

	removedPos, removedFound := textIndex(fileLines, h.RemovedLines)
	addedPos, addedFound := textIndex(fileLines, h.AddedLines)
	if !removedFound || !addedFound {
		return false
	}

	removedOffset := charOffset(fileLines, removedPos)
	addedOffset := charOffset(fileLines, addedPos)
	dist := abs(removedOffset - addedOffset)
	maxLen := len(removedText)
	if len(addedText) > maxLen {
		maxLen = len(addedText)
	}
	if dist > 3*maxLen {
		return false
	}

	if strings.Contains(removedText, addedText) || strings.Contains(addedText, removedText) {
		return false
	}

	if isPureWhitespaceChange(h.RemovedLines, h.AddedLines) {
		return false
	}

	if isSubset(h.AddedLines, h.RemovedLines) {
		return false
	}

	return true
}

func isPhantomAdd(fileLines []string, h *diffparse.Hunk) bool {
	if len(h.AddedLines) <= 2 || len(h.RemovedLines) <= 2 {
		return false
	}
	addedPos, addedFound := textIndex(fileLines, h.AddedLines)
	if !addedFound {
		return false
	}
	_, removedFound := textIndex(fileLines, h.RemovedLines)
	if removedFound {
		return false
	}

	addedOffset := charOffset(fileLines, addedPos)
	expectedOffset := charOffset(fileLines, h.OldStart-1)
	maxLen := len(strings.Join(h.AddedLines, "\n"))
	return abs(addedOffset-expectedOffset) <= 10*maxLen
}

func textIndex(fileLines []string, block []string) (int, bool) {
	return blockIndex(fileLines, block, false)
}

func charOffset(fileLines []string, lineIdx int) int {
	if lineIdx < 0 {
		lineIdx = 0
	}
	offset := 0
	for i := 0; i < lineIdx && i < len(fileLines); i++ {
		offset += len(fileLines[i]) + 1
	}
	return offset
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func isSubset(a, b []string) bool {
	set := make(map[string]struct{}, len(b))
	for _, l := range b {
		set[strings.TrimSpace(l)] = struct{}{}
	}
	for _, l := range a {
		if _, ok := set[strings.TrimSpace(l)]; !ok {
			return false
		}
	}
	return true
}

func isPureWhitespaceChange(removed, added []string) bool {
	if len(removed) != len(added) {
		return false
	}
	for i := range removed {
		if normalize.StripWhitespace(removed[i]) != normalize.StripWhitespace(added[i]) {
			return false
		}
	}
	return true
}
