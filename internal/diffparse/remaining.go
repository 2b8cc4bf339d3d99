package diffparse

import (
	"strconv"
	"strings"
)

// ExtractRemainingHunks implements spec.md §4.9's "remaining-hunks
// extraction": given a set of hunk numbers that have already succeeded, it
// walks the original patch text and emits a new patch containing, for
// every file block that still has at least one unsuccessful hunk, the
// file's headers (deduplicated) followed only by that file's unsuccessful
// hunks in their original textual form.
func ExtractRemainingHunks(patchText string, succeeded map[int]bool) (string, error) {
	lines := strings.Split(patchText, "\n")

	type block struct {
		headers []string
		hunks   []string
	}
	var blocks []*block
	var cur *block
	var curHunk *block
	number := 0
	hasUnsuccessful := false

	flushHunk := func() {
		if cur == nil || curHunk == nil {
			return
		}
		cur.hunks = append(cur.hunks, strings.Join(curHunk.hunks, "\n"))
		curHunk = nil
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch {
		case strings.HasPrefix(line, "diff --git"):
			flushHunk()
			cur = &block{headers: []string{line}}
			blocks = append(blocks, cur)
		case cur != nil && curHunk == nil && (strings.HasPrefix(line, "index ") ||
			strings.HasPrefix(line, "new file mode") ||
			strings.HasPrefix(line, "deleted file mode") ||
			strings.HasPrefix(line, "--- ") ||
			strings.HasPrefix(line, "+++ ")):
			seen := false
			for _, h := range cur.headers {
				if h == line {
					seen = true
					break
				}
			}
			if !seen {
				cur.headers = append(cur.headers, line)
			}
		case strings.HasPrefix(line, "@@"):
			flushHunk()
			number++
			if cur == nil {
				cur = &block{}
				blocks = append(blocks, cur)
			}
			if !succeeded[number] {
				hasUnsuccessful = true
				curHunk = &block{hunks: []string{line}}
			}
		default:
			if curHunk != nil {
				curHunk.hunks = append(curHunk.hunks, line)
			}
		}
	}
	flushHunk()

	if !hasUnsuccessful {
		return "", nil
	}

	var out strings.Builder
	for _, b := range blocks {
		if len(b.hunks) == 0 {
			continue
		}
		for _, h := range b.headers {
			out.WriteString(h)
			out.WriteString("\n")
		}
		for _, h := range b.hunks {
			out.WriteString(h)
			out.WriteString("\n")
		}
	}
	return out.String(), nil
}

// Explain renders a hunk's parsed fields for diagnostics, used by the CLI's
// -show-hunks flag.
func Explain(h *Hunk) string {
	var b strings.Builder
	b.WriteString("Hunk #")
	b.WriteString(strconv.Itoa(h.Number))
	b.WriteString(" ")
	b.WriteString(h.FilePath)
	b.WriteString("\n")
	b.WriteString(h.Header)
	b.WriteString("\n")
	b.WriteString("  old: ")
	b.WriteString(strconv.Itoa(h.OldStart))
	b.WriteString(",")
	b.WriteString(strconv.Itoa(h.OldCount))
	b.WriteString("  new: ")
	b.WriteString(strconv.Itoa(h.NewStart))
	b.WriteString(",")
	b.WriteString(strconv.Itoa(h.NewCount))
	if h.MissingNewline {
		b.WriteString("  (no trailing newline)")
	}
	return b.String()
}
