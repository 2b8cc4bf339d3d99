// Package diffparse reassembles unified-diff hunks from raw patch text,
// tolerating the header drift and mangled markers that LLM-generated
// patches routinely contain. It wraps go-gitdiff for header-level parsing
// and handles the remaining spec.md §4.1 contract on top of it: embedded
// diff-like body content, the trailing-empty-line trim, and the
// template-literal backtick unescape.
package diffparse

import (
	"fmt"
	"strings"
)

// Hunk is the fundamental parsed unit of a patch, per spec.md §3.1.
type Hunk struct {
	Number   int    // stable 1-based identifier within the patch
	FilePath string // new-side path (or old-side path for a pure deletion)
	Header   string // raw "@@ -a,b +c,d @@ ..." header line

	OldStart int
	OldCount int
	NewStart int
	NewCount int

	OldBlock []string // context + removed, in file order
	NewLines []string // context + added, in file order

	RemovedLines []string
	AddedLines   []string

	MissingNewline bool // body contained "\ No newline at end of file"
}

// IsPureAddition reports whether the hunk removes nothing.
func (h *Hunk) IsPureAddition() bool {
	return len(h.RemovedLines) == 0 && len(h.AddedLines) > 0
}

// IsPureDeletion reports whether the hunk adds nothing.
func (h *Hunk) IsPureDeletion() bool {
	return len(h.AddedLines) == 0 && len(h.RemovedLines) > 0
}

// Ext returns the file extension (including the leading dot, lowercased) of
// the hunk's file path, used by the comment-aware matcher to pick a
// language's comment syntax.
func (h *Hunk) Ext() string {
	idx := strings.LastIndexByte(h.FilePath, '.')
	if idx < 0 {
		return ""
	}
	return strings.ToLower(h.FilePath[idx:])
}

// MalformedHunkError is returned when a hunk cannot be formed from the
// patch text per spec.md §4.1's failure contract.
type MalformedHunkError struct {
	Reason string
	Header string
}

func (e *MalformedHunkError) Error() string {
	if e.Header != "" {
		return fmt.Sprintf("malformed hunk (%s): %q", e.Reason, e.Header)
	}
	return fmt.Sprintf("malformed hunk: %s", e.Reason)
}

// trimTrailingEmptyArtifact implements the §3.1 invariant: remove one
// trailing empty-string parser artifact when both oldBlock and newLines end
// with an empty line and their declared counts agree on that extra line.
func trimTrailingEmptyArtifact(h *Hunk) {
	if len(h.OldBlock) == 0 || len(h.NewLines) == 0 {
		return
	}
	oldLast := h.OldBlock[len(h.OldBlock)-1]
	newLast := h.NewLines[len(h.NewLines)-1]
	if oldLast != "" || newLast != "" {
		return
	}
	if len(h.OldBlock) != h.OldCount || len(h.NewLines) != h.NewCount {
		return
	}
	h.OldBlock = h.OldBlock[:len(h.OldBlock)-1]
	h.NewLines = h.NewLines[:len(h.NewLines)-1]
	h.OldCount--
	h.NewCount--
}
