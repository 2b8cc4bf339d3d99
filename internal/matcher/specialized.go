package matcher

import (
	"strings"

	"github.com/syou6162/patchpipeline/internal/normalize"
)

// commentSyntax names the single-line comment prefix(es) for a language,
// keyed by file extension, per spec.md §4.6's comment-aware fallback.
var commentSyntax = map[string][]string{
	".py":   {"#"},
	".sh":   {"#"},
	".sql":  {"--"},
	".js":   {"//"},
	".ts":   {"//"},
	".tsx":  {"//"},
	".jsx":  {"//"},
	".c":    {"//"},
	".cpp":  {"//"},
	".h":    {"//"},
	".java": {"//"},
	".html": {"<!--"},
	".css":  {"/*"},
	".md":   {"<!--"},
}

// CommentPrefixesFor returns the line-comment marker(s) recognized for a
// file extension (including the leading dot, e.g. ".py"). Empty when the
// language is unknown to the table, in which case callers should not strip
// anything.
func CommentPrefixesFor(ext string) []string {
	return commentSyntax[ext]
}

func stripLineComment(line string, prefixes []string) string {
	trimmed := strings.TrimRight(line, " \t")
	for _, p := range prefixes {
		if idx := strings.Index(trimmed, p); idx >= 0 {
			return strings.TrimRight(trimmed[:idx], " \t")
		}
	}
	return trimmed
}

// Normalized is spec.md §4.6's first fallback: re-run Strict after applying
// NormalizeLineForComparison plus a leading/trailing blank-line trim on
// both sides, so a block that only differs by surrounding blank lines still
// lines up.
func Normalized(fileLines, block []string, pos int) (ok bool, confidence float32) {
	trimmedBlock := trimBlankEdges(block)
	if pos < 0 || pos+len(trimmedBlock) > len(fileLines) {
		return false, 0
	}
	for i, want := range trimmedBlock {
		if !normalize.LinesEqual(fileLines[pos+i], want) {
			return false, 0
		}
	}
	return true, 0.9
}

func trimBlankEdges(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}

// Relaxed is spec.md §4.6's second fallback: require only the non-blank
// lines of block to appear, in order, within fileLines[pos:pos+len(block)+slack],
// tolerating extra or missing blank lines inside the window.
func Relaxed(fileLines, block []string, pos, slack int) (ok bool, confidence float32) {
	want := nonEmpty(block)
	if len(want) == 0 {
		return false, 0
	}
	end := pos + len(block) + slack
	if end > len(fileLines) {
		end = len(fileLines)
	}
	if pos < 0 || pos >= end {
		return false, 0
	}

	wi := 0
	for i := pos; i < end && wi < len(want); i++ {
		if normalize.LinesEqual(fileLines[i], want[wi]) {
			wi++
		}
	}
	if wi == len(want) {
		return true, 0.65
	}
	return false, 0
}

// WideSearch is spec.md §4.6's third fallback: scan the entire file (not
// just the radius window) for an exact NormalizeLineForComparison match of
// the full block, used only once the narrower strategies have failed.
func WideSearch(fileLines, block []string) (pos int, ok bool, confidence float32) {
	if len(block) == 0 {
		return -1, false, 0
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
			return i, true, 0.55
		}
	}
	return -1, false, 0
}

// CommentAware is spec.md §4.6's fourth fallback: strip each side's
// trailing line comment (per the file extension's comment syntax) before
// comparing, so a hunk that only adds/removes a comment still matches.
func CommentAware(fileLines, block []string, pos int, ext string) (ok bool, confidence float32) {
	prefixes := CommentPrefixesFor(ext)
	if len(prefixes) == 0 {
		return false, 0
	}
	if pos < 0 || pos+len(block) > len(fileLines) {
		return false, 0
	}
	for i, want := range block {
		a := stripLineComment(normalize.NormalizeLineForComparison(fileLines[pos+i]), prefixes)
		b := stripLineComment(normalize.NormalizeLineForComparison(want), prefixes)
		if a != b {
			return false, 0
		}
	}
	return true, 0.6
}

// WhitespaceAware is spec.md §4.6's fifth and final fallback: if the hunk is
// a whitespace-only change (every line matches once all whitespace is
// removed), force acceptance at pos with confidence 0.9, per §4.6 step 5.
func WhitespaceAware(fileLines, block []string, pos int) (ok bool, confidence float32) {
	if pos < 0 || pos+len(block) > len(fileLines) {
		return false, 0
	}
	for i, want := range block {
		if normalize.StripWhitespace(fileLines[pos+i]) != normalize.StripWhitespace(want) {
			return false, 0
		}
	}
	return true, 0.9
}
