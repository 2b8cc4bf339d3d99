// Package matcher implements spec.md §4.4-§4.6: the byte-faithful strict
// matcher, the eight-strategy fuzzy matcher, and the specialized
// comment/whitespace-aware fallbacks that run after it.
package matcher

import "github.com/syou6162/patchpipeline/internal/normalize"

// Strict implements spec.md §4.4: succeed iff fileLines[pos:pos+len(block)]
// equals block under NormalizeLineForComparison.
func Strict(fileLines []string, block []string, pos int) (ok bool, confidence float32) {
	if pos < 0 || pos+len(block) > len(fileLines) {
		return false, 0
	}
	for i, want := range block {
		if !normalize.LinesEqual(fileLines[pos+i], want) {
			return false, 0
		}
	}
	return true, 1.0
}
