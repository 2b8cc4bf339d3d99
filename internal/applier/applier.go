// Package applier implements spec.md §4.7: the per-hunk position
// calculation, strict/fuzzy/specialized match dispatch, verification,
// indentation adaptation, and splice application.
package applier

import (
	"strings"

	"github.com/syou6162/patchpipeline/internal/config"
	"github.com/syou6162/patchpipeline/internal/diffparse"
	"github.com/syou6162/patchpipeline/internal/duplicate"
	"github.com/syou6162/patchpipeline/internal/errtrack"
	"github.com/syou6162/patchpipeline/internal/matcher"
	"github.com/syou6162/patchpipeline/internal/normalize"
)

// Applied records the bookkeeping the position calculator of spec.md §4.7
// needs about a hunk already applied earlier in the same file.
type Applied struct {
	OldStart int
	OldEnd   int // OldStart + OldCount, the affected original range
	Added    int
	Removed  int
}

// InitialPosition implements spec.md §4.7's position calculation.
func InitialPosition(h *diffparse.Hunk, applied []Applied) int {
	cumulative := 0
	preceding := 0
	usedPreceding := false
	for _, a := range applied {
		cumulative += a.Added - a.Removed
		if a.OldEnd <= h.OldStart {
			preceding += a.Added - a.Removed
			usedPreceding = true
		}
	}
	offset := cumulative
	if usedPreceding {
		offset = preceding
	}
	return h.OldStart - 1 + offset
}

// Outcome is the result of applying one hunk.
type Outcome struct {
	Applied      bool
	Position     int
	Confidence   float32
	Strategy     string
	ErrorKind    errtrack.Kind
	ErrorMessage string
	NewLines     []string // the file content after splicing, only when Applied
}

// Apply runs spec.md §4.7's per-hunk procedure against fileLines, returning
// the resulting file content (only meaningful when Outcome.Applied).
func Apply(fileLines []string, h *diffparse.Hunk, initialPos int, cfg config.Config) Outcome {
	if shortContent(h) {
		if pos, ok := exactAnywhere(fileLines, h.OldBlock); ok {
			return spliceAndVerify(fileLines, h, pos, 1.0, "short-content-exact")
		}
	}

	if ok, conf := matcher.Strict(fileLines, h.OldBlock, initialPos); ok {
		return spliceAndVerify(fileLines, h, initialPos, conf, "strict")
	}

	radius := cfg.SearchRadius
	if radius <= 0 {
		radius = 50
	}
	maxOffset := cfg.MaxOffset
	if maxOffset <= 0 {
		maxOffset = 500
	}
	threshold := cfg.ConfidenceThreshold
	if threshold <= 0 {
		threshold = cfg.Confidence.Medium
	}

	if result, ok := matcher.Fuzzy(fileLines, h.OldBlock, initialPos, radius, maxOffset, threshold); ok {
		return spliceAndVerify(fileLines, h, result.Position, result.Confidence, "fuzzy")
	} else if result.Position >= 0 && abs(result.Position-initialPos) > maxOffset {
		return Outcome{ErrorKind: errtrack.KindLargeOffset, ErrorMessage: "fuzzy match too far from expected position"}
	}

	if ok, conf := matcher.Normalized(fileLines, h.OldBlock, initialPos); ok {
		return spliceAndVerify(fileLines, h, initialPos, conf, "normalized")
	}
	if ok, conf := matcher.Relaxed(fileLines, h.OldBlock, initialPos, radius); ok {
		return spliceAndVerify(fileLines, h, initialPos, conf, "relaxed")
	}
	if pos, ok, conf := matcher.WideSearch(fileLines, h.OldBlock); ok {
		if abs(pos-initialPos) > 3*radius {
			return Outcome{ErrorKind: errtrack.KindLargeOffset, ErrorMessage: "wide search match too far from expected position"}
		}
		return spliceAndVerify(fileLines, h, pos, conf, "wide-search")
	}
	if ok, conf := matcher.CommentAware(fileLines, h.OldBlock, initialPos, h.Ext()); ok {
		return spliceAndVerify(fileLines, h, initialPos, conf, "comment-aware")
	}
	if ok, conf := matcher.WhitespaceAware(fileLines, h.OldBlock, initialPos); ok {
		return spliceAndVerify(fileLines, h, initialPos, conf, "whitespace-aware")
	}

	return Outcome{ErrorKind: errtrack.KindPositionUndetermined, ErrorMessage: "no matching strategy found a position"}
}

func shortContent(h *diffparse.Hunk) bool {
	if len(h.AddedLines) == 0 {
		return false
	}
	total := 0
	for _, l := range h.AddedLines {
		total += len(strings.TrimSpace(l))
	}
	avg := float64(total) / float64(len(h.AddedLines))
	return avg <= 5
}

func exactAnywhere(fileLines []string, block []string) (int, bool) {
	if len(block) == 0 {
		return -1, false
	}
	for i := 0; i+len(block) <= len(fileLines); i++ {
		match := true
		for j, want := range block {
			if !normalize.LinesEqual(fileLines[i+j], want) {
				match = false
				break
			}
		}
		if match {
			return i, true
		}
	}
	return -1, false
}

// spliceAndVerify implements steps 4-9 of spec.md §4.7: verify match
// quality, attempt a surgical in-line replacement for fuzzily-positioned
// single-line replacements, and otherwise adapt indentation, run the
// duplicate preview check, and splice. The zero-width boundary branch
// searches for the hunk's empty old block, which never matches, so the
// position is never widened.
func spliceAndVerify(fileLines []string, h *diffparse.Hunk, pos int, confidence float32, strategy string) Outcome {
	quality := matchQuality(fileLines, h.OldBlock, pos)
	if quality < 0.7 {
		return Outcome{ErrorKind: errtrack.KindVerificationFailed, ErrorMessage: "match quality below threshold", Position: pos, Confidence: confidence}
	}

	blockLen := len(h.OldBlock)
	if blockLen == 0 && len(h.AddedLines) > 0 {
		if widenedPos, ok := exactAnywhere(fileLines, h.OldBlock); ok {
			pos = widenedPos
		}
	}

	if isSurgicalCandidate(h, strategy) {
		if surgical, ok := trySurgical(fileLines, h, pos); ok {
			report := duplicate.Check(fileLines, surgical, pos, 3)
			if !report.HasDuplicates() {
				return Outcome{
					Applied:    true,
					Position:   pos,
					Confidence: confidence,
					Strategy:   "surgical",
					NewLines:   surgical,
				}
			}
		}
	}

	newLines := adaptedInsertion(fileLines, h, pos, confidence)

	preview := splice(fileLines, pos, blockLen, newLines)
	report := duplicate.Check(fileLines, preview, pos, 3)
	if report.HasDuplicates() {
		return Outcome{ErrorKind: errtrack.KindUnexpectedDuplicates, ErrorMessage: "preview introduced unexpected duplicate lines", Position: pos, Confidence: confidence}
	}

	return Outcome{
		Applied:    true,
		Position:   pos,
		Confidence: confidence,
		Strategy:   strategy,
		NewLines:   preview,
	}
}

// matchQuality implements step 4: the fraction of lines equal under
// normalization, counting Jaccard-token matches over 0.7 at partial weight.
func matchQuality(fileLines []string, block []string, pos int) float64 {
	if len(block) == 0 {
		return 1.0
	}
	if pos < 0 || pos+len(block) > len(fileLines) {
		return 0
	}
	matched := 0.0
	for i, want := range block {
		got := fileLines[pos+i]
		if normalize.LinesEqual(got, want) {
			matched++
			continue
		}
		if j := jaccard(got, want); j > 0.7 {
			matched += 0.7
		}
	}
	return matched / float64(len(block))
}

func jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, f := range strings.Fields(s) {
		out[f] = struct{}{}
	}
	return out
}

func splice(fileLines []string, pos, removeCount int, newLines []string) []string {
	out := make([]string, 0, len(fileLines)-removeCount+len(newLines))
	out = append(out, fileLines[:pos]...)
	out = append(out, newLines...)
	out = append(out, fileLines[pos+removeCount:]...)
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
