package applier

import (
	"strings"

	"github.com/syou6162/patchpipeline/internal/diffparse"
	"github.com/syou6162/patchpipeline/internal/normalize"
)

// highConfidenceFuzzyMismatch is spec.md §3.5's "high" confidence default,
// the bar a fuzzy match must clear before §4.7 step 7's fuzzy-mismatch mode
// will treat an indentation mismatch as a disguised removal rather than a
// plain reindent.
const highConfidenceFuzzyMismatch = 0.75

// adaptedInsertion implements spec.md §4.7 step 7: decide whether the
// hunk's NewLines need re-indenting against the block being replaced at
// pos, and return the lines to actually splice in.
func adaptedInsertion(fileLines []string, h *diffparse.Hunk, pos int, confidence float32) []string {
	blockLen := len(h.OldBlock)
	if pos < 0 || pos+blockLen > len(fileLines) || blockLen == 0 {
		return h.NewLines
	}
	replaced := fileLines[pos : pos+blockLen]

	matches := matchNonEmptyPairs(replaced, h.NewLines)
	if len(matches) == 0 {
		return h.NewLines
	}

	nonEmptyNew := 0
	for _, l := range h.NewLines {
		if strings.TrimSpace(l) != "" {
			nonEmptyNew++
		}
	}
	if nonEmptyNew == 0 || float64(len(matches))/float64(nonEmptyNew) < 0.6 {
		return h.NewLines
	}

	if uniformOneSpaceLoss(matches) {
		return applySystematicLoss(h.NewLines, matches)
	}

	if avgIndentDelta(matches) > 8 {
		if confidence >= highConfidenceFuzzyMismatch && isFuzzyRemoval(h) {
			return semanticRemoval(replaced, h.RemovedLines)
		}
		return reindentToMatches(h.NewLines, matches, replaced)
	}

	return h.NewLines
}

// isFuzzyRemoval reports whether a hunk with a large indentation mismatch
// is actually a disguised removal: fewer lines added than removed, and
// every added line's stripped content already appears among the removed
// lines.
func isFuzzyRemoval(h *diffparse.Hunk) bool {
	if len(h.RemovedLines) == 0 || len(h.AddedLines) >= len(h.RemovedLines) {
		return false
	}
	removedContent := make(map[string]bool, len(h.RemovedLines))
	for _, l := range h.RemovedLines {
		removedContent[strings.TrimSpace(l)] = true
	}
	for _, l := range h.AddedLines {
		if !removedContent[strings.TrimSpace(l)] {
			return false
		}
	}
	return true
}

// semanticRemoval implements §4.7 step 7's fuzzy-mismatch removal: delete
// replaced lines whose content matches any removed line with Jaccard ≥
// 0.8, skipping past an HTML-like block opener until its matching closer.
func semanticRemoval(replaced, removedLines []string) []string {
	var out []string
	closer := ""
	for _, line := range replaced {
		if closer != "" {
			if strings.Contains(line, closer) {
				closer = ""
			}
			continue
		}
		if !matchesAnyRemoved(line, removedLines) {
			out = append(out, line)
			continue
		}
		if tag, ok := htmlOpenerTag(line); ok {
			closer = "</" + tag + ">"
		}
	}
	return out
}

func matchesAnyRemoved(line string, removedLines []string) bool {
	for _, r := range removedLines {
		if jaccard(line, r) >= 0.8 {
			return true
		}
	}
	return false
}

// htmlOpenerTag reports the tag name when line is an HTML-like block
// opener (not a self-closing or closing tag), e.g. "<div class=\"x\">".
func htmlOpenerTag(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "<") || strings.HasPrefix(trimmed, "</") {
		return "", false
	}
	if strings.HasSuffix(trimmed, "/>") {
		return "", false
	}
	end := strings.IndexAny(trimmed, " \t>")
	if end <= 1 {
		return "", false
	}
	return trimmed[1:end], true
}

type pair struct {
	replacedLine string
	newLine      string
	newIndex     int
}

// matchNonEmptyPairs pairs each non-empty NewLines entry with a replaced
// line sharing the same stripped content, when one exists.
func matchNonEmptyPairs(replaced, newLines []string) []pair {
	var out []pair
	for i, nl := range newLines {
		content := strings.TrimSpace(nl)
		if content == "" {
			continue
		}
		for _, rl := range replaced {
			if strings.TrimSpace(rl) == content {
				out = append(out, pair{replacedLine: rl, newLine: nl, newIndex: i})
				break
			}
		}
	}
	return out
}

// uniformOneSpaceLoss reports whether at least half of the matched pairs
// show the inserted line one space shallower than its matched original.
func uniformOneSpaceLoss(matches []pair) bool {
	if len(matches) == 0 {
		return false
	}
	oneSpace := 0
	for _, m := range matches {
		oldIndent, _ := normalize.Dedent(m.replacedLine)
		newIndent, _ := normalize.Dedent(m.newLine)
		if len(oldIndent)-len(newIndent) == 1 {
			oneSpace++
		}
	}
	return float64(oneSpace)/float64(len(matches)) >= 0.5
}

func avgIndentDelta(matches []pair) float64 {
	if len(matches) == 0 {
		return 0
	}
	total := 0
	for _, m := range matches {
		oldIndent, _ := normalize.Dedent(m.replacedLine)
		newIndent, _ := normalize.Dedent(m.newLine)
		d := len(oldIndent) - len(newIndent)
		if d < 0 {
			d = -d
		}
		total += d
	}
	return float64(total) / float64(len(matches))
}

func applySystematicLoss(newLines []string, matches []pair) []string {
	byIndex := make(map[int]string, len(matches))
	for _, m := range matches {
		indent, _ := normalize.Dedent(m.replacedLine)
		byIndex[m.newIndex] = indent
	}
	out := make([]string, len(newLines))
	copy(out, newLines)
	for i, indent := range byIndex {
		_, content := normalize.Dedent(out[i])
		out[i] = indent + content
	}
	return out
}

func reindentToMatches(newLines []string, matches []pair, replaced []string) []string {
	byIndex := make(map[int]string, len(matches))
	for _, m := range matches {
		indent, _ := normalize.Dedent(m.replacedLine)
		byIndex[m.newIndex] = indent
	}
	modal := modalIndent(replaced)

	out := make([]string, len(newLines))
	for i, l := range newLines {
		if strings.TrimSpace(l) == "" {
			out[i] = l
			continue
		}
		indent, content := normalize.Dedent(l)
		if want, ok := byIndex[i]; ok {
			out[i] = want + content
		} else if modal != "" {
			out[i] = modal + content
		} else {
			out[i] = indent + content
		}
	}
	return out
}

func modalIndent(lines []string) string {
	counts := map[string]int{}
	best, bestCount := "", 0
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		indent, _ := normalize.Dedent(l)
		counts[indent]++
		if counts[indent] > bestCount {
			best, bestCount = indent, counts[indent]
		}
	}
	return best
}
