package applier

import (
	"strings"

	"github.com/syou6162/patchpipeline/internal/diffparse"
)

// isSurgicalCandidate gates spec.md §4.7 step 8: surgical application only
// applies when the position was chosen fuzzily (not a byte-faithful strict
// or short-content-exact match) and the hunk is a single-line replacement,
// not a pure add or pure delete.
func isSurgicalCandidate(h *diffparse.Hunk, strategy string) bool {
	if strategy == "strict" || strategy == "short-content-exact" {
		return false
	}
	return len(h.RemovedLines) == 1 && len(h.AddedLines) == 1 && len(h.OldBlock) > 0
}

// trySurgical implements spec.md §4.7 step 8: within pos-10..pos+20, find
// the one line containing the removed line's stripped content and replace
// it in place, preserving the rest of that line (comments, surrounding
// text) instead of splicing the whole block. It reports false when no
// unique match exists or the replacement would be a no-op, so the caller
// falls back to the standard splice.
func trySurgical(fileLines []string, h *diffparse.Hunk, pos int) ([]string, bool) {
	removedContent := strings.TrimSpace(h.RemovedLines[0])
	addedContent := strings.TrimSpace(h.AddedLines[0])
	if removedContent == "" || removedContent == addedContent {
		return nil, false
	}

	start := pos - 10
	if start < 0 {
		start = 0
	}
	end := pos + 20
	if end > len(fileLines) {
		end = len(fileLines)
	}

	match := -1
	for i := start; i < end; i++ {
		if strings.Contains(fileLines[i], removedContent) {
			if match != -1 {
				return nil, false
			}
			match = i
		}
	}
	if match == -1 {
		return nil, false
	}

	replacedLine := strings.Replace(fileLines[match], removedContent, addedContent, 1)
	if replacedLine == fileLines[match] {
		return nil, false
	}

	out := append([]string(nil), fileLines...)
	out[match] = replacedLine
	return out, true
}
