package matcher

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/syou6162/patchpipeline/internal/normalize"
)

// Result is the outcome of a fuzzy or specialized match attempt.
type Result struct {
	Position   int
	Confidence float32
	Strategy   string
}

var dmp = diffmatchpatch.New()

// sequenceRatio approximates Python's difflib.SequenceMatcher.ratio() using
// go-diff's Myers-diff Levenshtein distance: 1 - editDistance/maxLen.
func sequenceRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	diffs := dmp.DiffMain(a, b, false)
	lev := dmp.DiffLevenshtein(diffs)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(lev)/float64(maxLen)
}

// Fuzzy implements spec.md §4.5: search fileLines[max(0,expected-R) ..
// min(N,expected+R)] for the best of eight similarity strategies against
// oldBlock, apply adaptive thresholding, and reject large offsets.
func Fuzzy(fileLines []string, oldBlock []string, expected, radius, maxOffset int, threshold float32) (Result, bool) {
	n := len(fileLines)
	blockLen := len(oldBlock)
	if blockLen == 0 || n == 0 {
		return Result{}, false
	}

	lo := expected - radius
	if lo < 0 {
		lo = 0
	}
	hi := expected + radius
	if hi > n-blockLen {
		hi = n - blockLen
	}

	best := Result{Position: -1}
	var bestContentOnly float64
	var bestWhitespaceOnly bool

	for pos := lo; pos <= hi; pos++ {
		candidate := fileLines[pos : pos+blockLen]
		ratio, contentOnly := bestOfEight(candidate, oldBlock)
		if ratio > float64(best.Confidence) {
			best = Result{Position: pos, Confidence: float32(ratio)}
			bestContentOnly = contentOnly
			bestWhitespaceOnly = isWhitespaceOnlyDiff(candidate, oldBlock)
		}
	}

	if best.Position < 0 {
		return Result{}, false
	}

	effective := adaptiveThreshold(threshold, blockLen, float64(best.Confidence), bestContentOnly, bestWhitespaceOnly)
	if float64(best.Confidence) < effective {
		return best, false
	}

	if abs(best.Position-expected) > maxOffset {
		return best, false
	}

	return best, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// adaptiveThreshold implements spec.md §4.5's threshold reductions.
func adaptiveThreshold(base float32, blockLen int, bestRatio, contentOnlyRatio float64, whitespaceOnly bool) float64 {
	t := float64(base)

	if blockLen <= 3 {
		t *= 0.7
	}
	if contentOnlyRatio > 0.8 && bestRatio < contentOnlyRatio {
		t *= 0.6
	}
	if contentOnlyRatio > 0.9 {
		t *= 0.7
	}
	if whitespaceOnly {
		t *= 0.7
	}
	if bestRatio >= t*0.8 {
		t *= 0.8
	}
	return t
}

func isWhitespaceOnlyDiff(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sawDiff := false
	for i := range a {
		if a[i] == b[i] {
			continue
		}
		if normalize.StripWhitespace(a[i]) != normalize.StripWhitespace(b[i]) {
			return false
		}
		sawDiff = true
	}
	return sawDiff
}

// bestOfEight runs spec.md §4.5's eight similarity strategies over one
// candidate slice and returns the best ratio, plus the content-only ratio
// (strategy 3) used by adaptive thresholding's indentation-change signal.
func bestOfEight(candidate, want []string) (best float64, contentOnly float64) {
	candText := strings.Join(candidate, "\n")
	wantText := strings.Join(want, "\n")

	strategies := make([]float64, 0, 8)

	// 1. Direct sequence ratio on joined text.
	strategies = append(strategies, sequenceRatio(candText, wantText))

	// 2. Whitespace-normalized sequence ratio.
	strategies = append(strategies, sequenceRatio(
		normalize.NormalizeWhitespace(candText),
		normalize.NormalizeWhitespace(wantText)))

	// 3. Content-only ratio (all whitespace stripped).
	contentOnly = sequenceRatio(normalize.StripWhitespace(candText), normalize.StripWhitespace(wantText))
	strategies = append(strategies, contentOnly)

	// 4. Token ratio (whitespace-split, re-joined).
	strategies = append(strategies, sequenceRatio(tokenJoin(candText), tokenJoin(wantText)))

	// 5. Line-by-line whitespace-stripped equality fraction.
	strategies = append(strategies, lineEqualityFraction(candidate, want))

	// 6. Structural ratio over non-empty lines only.
	strategies = append(strategies, sequenceRatio(
		strings.Join(nonEmpty(candidate), "\n"),
		strings.Join(nonEmpty(want), "\n")))

	// 7. Indentation-aware ratio: normalize indent step to a common width.
	strategies = append(strategies, sequenceRatio(
		strings.Join(normalizeIndentStep(candidate), "\n"),
		strings.Join(normalizeIndentStep(want), "\n")))

	// 8. Semantic ratio: collapse braces/semicolons/commas, then sequence ratio.
	strategies = append(strategies, sequenceRatio(semanticForm(candText), semanticForm(wantText)))

	for _, s := range strategies {
		if s > best {
			best = s
		}
	}
	return best, contentOnly
}

func tokenJoin(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func nonEmpty(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

func lineEqualityFraction(a, b []string) float64 {
	if len(a) == 0 {
		return 1.0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	matches := 0
	for i := 0; i < n; i++ {
		if strings.TrimSpace(a[i]) == strings.TrimSpace(b[i]) {
			matches++
		}
	}
	return float64(matches) / float64(len(a))
}

func normalizeIndentStep(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		indent, content := normalize.Dedent(l)
		level := len(strings.ReplaceAll(indent, "\t", "    ")) / 4
		out[i] = strings.Repeat("  ", level) + content
	}
	return out
}

// semanticForm canonicalizes punctuation spacing so that "a, b" and "a,b",
// or "x;" and "x ;", compare equal under the structural strategies.
func semanticForm(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		case '{', '}', ';', ',':
			b.WriteRune(r)
			b.WriteByte('\n')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
