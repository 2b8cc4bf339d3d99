// Package normalize implements the text-canonicalization rules that every
// matcher and validator in the patch pipeline compares against, instead of
// raw file bytes.
package normalize

import (
	"strings"
	"sync"
)

// invisibleRunes is the fixed set of zero-width/bidi/format codepoints that
// must be stripped before two lines are compared.
var invisibleRunes = []rune{
	'​', // zero width space
	'‌', // zero width non-joiner
	'‍', // zero width joiner
	'‎', // left-to-right mark
	'‏', // right-to-left mark
	'⁠', // word joiner
	'⁡', // function application
	'⁢', // invisible times
	'⁣', // invisible separator
	'⁤', // invisible plus
	'⁥', // U+2065, unassigned
	'⁦', // left-to-right isolate
	'⁧', // right-to-left isolate
	'⁨', // first strong isolate
	'⁩', // pop directional isolate
	'⁪', // inhibit symmetric swapping
	'⁫', // activate symmetric swapping
	'⁬', // inhibit arabic form shaping
	'⁭', // activate arabic form shaping
	'⁮', // national digit shapes
	'⁯', // nominal digit shapes
	0xFEFF, // zero width no-break space / BOM
	'᠎', // mongolian vowel separator
	' ', // line separator
	' ', // paragraph separator
	'‪', // left-to-right embedding
	'‫', // right-to-left embedding
	'‬', // pop directional formatting
	'‭', // left-to-right override
	'‮', // right-to-left override
}

var invisibleSet = func() map[rune]struct{} {
	m := make(map[rune]struct{}, len(invisibleRunes))
	for _, r := range invisibleRunes {
		m[r] = struct{}{}
	}
	return m
}()

// ContainsInvisible reports whether text contains any invisible Unicode
// codepoint from the fixed set.
func ContainsInvisible(text string) bool {
	for _, r := range text {
		if _, ok := invisibleSet[r]; ok {
			return true
		}
	}
	return false
}

// StripInvisible removes every invisible Unicode codepoint from text.
func StripInvisible(text string) string {
	if !ContainsInvisible(text) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if _, ok := invisibleSet[r]; ok {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeEscapes preserves literal escape sequences (it must not turn
// "\n" into an actual newline) while canonicalizing the handful of
// transport artifacts that LLM-generated diffs introduce. The real rewrite
// (unescaping a backtick inside a JavaScript template-literal fence) lives
// in diffparse.UnescapeTemplateBackticks, which owns that guard per
// spec.md §4.1; this hook exists so matchers can route escape-aware
// comparisons through one place.
func NormalizeEscapes(text string) string {
	return text
}

// normCache memoizes NormalizeLineForComparison: the pipeline calls it once
// per file-line x hunk-line pair, so repeated normalization of the same raw
// line is pure waste.
var normCache sync.Map // map[string]string

// NormalizeLineForComparison implements spec.md §4.2.2: strip invisible
// Unicode, preserve escape-sequence literals, then trim surrounding
// whitespace. Memoized per unique raw input line.
func NormalizeLineForComparison(line string) string {
	if v, ok := normCache.Load(line); ok {
		return v.(string)
	}
	result := strings.TrimSpace(NormalizeEscapes(StripInvisible(line)))
	normCache.Store(line, result)
	return result
}

// LinesEqual compares two lines under NormalizeLineForComparison.
func LinesEqual(a, b string) bool {
	return NormalizeLineForComparison(a) == NormalizeLineForComparison(b)
}

// StripWhitespace removes every whitespace character (not just leading and
// trailing), used by fuzzy-matcher strategies that need a whitespace-blind
// comparison.
func StripWhitespace(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeWhitespace collapses tabs to four spaces, normalizes CRLF to LF,
// trims trailing whitespace from every line, and drops a single final
// newline - the same transform the original engine applied before
// whitespace-tolerant comparisons.
func NormalizeWhitespace(text string) string {
	result := strings.ReplaceAll(text, "\t", "    ")
	result = strings.ReplaceAll(result, "\r\n", "\n")
	lines := strings.Split(strings.TrimSuffix(result, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.Join(lines, "\n")
}

// IndentOf returns the leading whitespace run of a line.
func IndentOf(line string) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[:i]
}

// Dedent strips the leading whitespace run of a line and returns it
// alongside the remaining content.
func Dedent(line string) (indent, content string) {
	indent = IndentOf(line)
	return indent, line[len(indent):]
}
