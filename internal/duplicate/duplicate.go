// Package duplicate implements the preview duplicate-line detector of
// spec.md §4.3: a window scan that rejects a hunk's proposed splice when it
// introduces line duplication that was not already present in the original.
package duplicate

import "strings"

// Report describes the duplicate-line findings for one preview, per
// spec.md §4.3.
type Report struct {
	AdjacentPairs []AdjacentPair
	RepeatedBlock []RepeatedBlock
}

// HasDuplicates reports whether any finding was recorded.
func (r Report) HasDuplicates() bool {
	return len(r.AdjacentPairs) > 0 || len(r.RepeatedBlock) > 0
}

// AdjacentPair is a pair of identical adjacent lines newly introduced by the
// preview, at the given preview-window line index.
type AdjacentPair struct {
	Line  string
	Index int
}

// RepeatedBlock is a 3-5 line block that occurs at least two more times in
// the preview window than it did in the original window; a single extra
// occurrence is not reported.
type RepeatedBlock struct {
	Block         []string
	OriginalCount int
	PreviewCount  int
}

const windowRadius = 5

// Check implements spec.md §4.3. original is the file before the hunk was
// applied; preview is the file after splicing newLines at pos; contextLines
// bounds how far back an identical adjacent pair may already have existed in
// original to not count as newly introduced.
func Check(original, preview []string, pos, contextLines int) Report {
	var report Report

	oLo, oHi := window(original, pos, windowRadius)
	pLo, pHi := window(preview, pos, windowRadius)

	oAdjacent := adjacentPairs(original, oLo, oHi)
	pAdjacent := adjacentPairs(preview, pLo, pHi)

	ctxLo, ctxHi := window(original, pos, contextLines)
	ctxAdjacent := adjacentPairs(original, ctxLo, ctxHi)

	for line, idxs := range pAdjacent {
		if _, existedInWindow := oAdjacent[line]; existedInWindow {
			continue
		}
		if _, existedInContext := ctxAdjacent[line]; existedInContext {
			continue
		}
		for _, idx := range idxs {
			report.AdjacentPairs = append(report.AdjacentPairs, AdjacentPair{Line: line, Index: idx})
		}
	}

	for blockLen := 3; blockLen <= 5; blockLen++ {
		oCounts := blockCounts(original, oLo, oHi, blockLen)
		pCounts := blockCounts(preview, pLo, pHi, blockLen)
		for key, pCount := range pCounts {
			oCount := oCounts[key]
			if pCount > oCount+1 {
				report.RepeatedBlock = append(report.RepeatedBlock, RepeatedBlock{
					Block:         splitKey(key, blockLen),
					OriginalCount: oCount,
					PreviewCount:  pCount,
				})
			}
		}
	}

	return report
}

func window(lines []string, pos, radius int) (lo, hi int) {
	lo = pos - radius
	if lo < 0 {
		lo = 0
	}
	hi = pos + radius
	if hi > len(lines) {
		hi = len(lines)
	}
	return lo, hi
}

// adjacentPairs maps a line's text to every index (within [lo,hi)) where it
// is immediately followed by an identical line.
func adjacentPairs(lines []string, lo, hi int) map[string][]int {
	out := map[string][]int{}
	for i := lo; i+1 < hi && i+1 < len(lines); i++ {
		if lines[i] == "" {
			continue
		}
		if lines[i] == lines[i+1] {
			out[lines[i]] = append(out[lines[i]], i)
		}
	}
	return out
}

const blockSep = "\x00"

func blockCounts(lines []string, lo, hi, blockLen int) map[string]int {
	out := map[string]int{}
	for i := lo; i+blockLen <= hi && i+blockLen <= len(lines); i++ {
		key := strings.Join(lines[i:i+blockLen], blockSep)
		out[key]++
	}
	return out
}

func splitKey(key string, blockLen int) []string {
	return strings.Split(key, blockSep)
}
