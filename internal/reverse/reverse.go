// Package reverse implements spec.md §4.10: undoing a previously applied
// patch via four escalating strategies, reusing the forward engine's
// matchers wherever possible instead of a separate codepath.
package reverse

import (
	"context"
	"strings"

	"github.com/syou6162/patchpipeline/internal/config"
	"github.com/syou6162/patchpipeline/internal/diffparse"
	"github.com/syou6162/patchpipeline/internal/hostpatch"
	"github.com/syou6162/patchpipeline/internal/matcher"
	"github.com/syou6162/patchpipeline/internal/normalize"
)

// Outcome reports how a reverse attempt fared.
type Outcome struct {
	Applied  bool
	Strategy string
	Content  []string
}

// Runner drives spec.md §4.10's four reverse strategies in order.
type Runner struct {
	Host *hostpatch.Runner
}

// NewRunner constructs a Runner backed by an optional host-patch runner
// (nil disables strategy 1, the host `patch -R` attempt).
func NewRunner(host *hostpatch.Runner) *Runner {
	return &Runner{Host: host}
}

// Reverse attempts to undo forwardPatch against dir/fileLines, trying each
// strategy in order until one succeeds. expected, when non-empty, is the
// pre-forward-apply content the caller knows the reverse must reproduce
// exactly (rstripped) for strategy 2 to accept its result.
func (r *Runner) Reverse(ctx context.Context, dir string, fd *diffparse.FileDiff, fileLines []string, forwardPatch string, expected []string) Outcome {
	if r.Host != nil {
		if outcomes, err := r.Host.PatchReverseApply(ctx, dir, forwardPatch); err == nil && hostpatch.AllSucceeded(outcomes) {
			return Outcome{Applied: true, Strategy: "host-patch-reverse"}
		}
	}

	if outcome, ok := directReverseReplacement(fd, fileLines, expected); ok {
		return outcome
	}

	reversedHunks := reverseHunks(fd.Hunks)
	if outcome, ok := applyReversedNoFuzz(reversedHunks, fileLines); ok {
		outcome.Strategy = "reversed-diff-no-fuzz"
		return outcome
	}

	if outcome, ok := applyReversedFullEngine(reversedHunks, fileLines); ok {
		outcome.Strategy = "reversed-diff-full-engine"
		return outcome
	}

	return Outcome{Applied: false}
}

// directReverseReplacement implements spec.md §4.10 strategy 2: for each
// forward hunk, find the newLines block in the current file using the
// fuzzy matcher's search and replace it with oldLines.
func directReverseReplacement(fd *diffparse.FileDiff, fileLines []string, expected []string) (Outcome, bool) {
	current := append([]string(nil), fileLines...)

	for i := len(fd.Hunks) - 1; i >= 0; i-- {
		h := fd.Hunks[i]
		pos, ok := findExact(current, h.NewLines)
		if !ok {
			result, fuzzyOK := matcher.Fuzzy(current, h.NewLines, h.NewStart-1, 50, 500, 0.52)
			if !fuzzyOK {
				return Outcome{}, false
			}
			pos = result.Position
		}
		current = splice(current, pos, len(h.NewLines), h.OldBlock)
	}

	if len(expected) > 0 && !contentMatches(current, expected) {
		return Outcome{}, false
	}

	return Outcome{Applied: true, Strategy: "direct-reverse-replacement", Content: current}, true
}

func findExact(fileLines, block []string) (int, bool) {
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

func contentMatches(a, b []string) bool {
	return strings.TrimRight(strings.Join(a, "\n"), " \t\n\r") == strings.TrimRight(strings.Join(b, "\n"), " \t\n\r")
}

func splice(fileLines []string, pos, removeCount int, newLines []string) []string {
	out := make([]string, 0, len(fileLines)-removeCount+len(newLines))
	out = append(out, fileLines[:pos]...)
	out = append(out, newLines...)
	out = append(out, fileLines[pos+removeCount:]...)
	return out
}

// reverseHunks implements spec.md §4.10 strategy 3's algebraic reversal:
// swap the added/removed lines, the old/new blocks, and the old/new ranges.
// The raw Header string is not carried over.
func reverseHunks(hunks []*diffparse.Hunk) []*diffparse.Hunk {
	out := make([]*diffparse.Hunk, len(hunks))
	for i, h := range hunks {
		out[i] = &diffparse.Hunk{
			Number:       h.Number,
			FilePath:     h.FilePath,
			OldStart:     h.NewStart,
			OldCount:     h.NewCount,
			NewStart:     h.OldStart,
			NewCount:     h.OldCount,
			OldBlock:     h.NewLines,
			NewLines:     h.OldBlock,
			RemovedLines: h.AddedLines,
			AddedLines:   h.RemovedLines,
		}
	}
	return out
}

// applyReversedNoFuzz implements strategy 3: apply the reversed hunks with
// only the strict matcher, no fuzzy fallback.
func applyReversedNoFuzz(reversed []*diffparse.Hunk, fileLines []string) (Outcome, bool) {
	current := append([]string(nil), fileLines...)
	offset := 0
	for _, h := range reversed {
		pos := h.OldStart - 1 + offset
		ok, _ := matcher.Strict(current, h.OldBlock, pos)
		if !ok {
			return Outcome{}, false
		}
		current = splice(current, pos, len(h.OldBlock), h.NewLines)
		offset += len(h.NewLines) - len(h.OldBlock)
	}
	return Outcome{Applied: true, Content: current}, true
}

// applyReversedFullEngine implements strategy 4: place each reversed hunk
// with the strict matcher, falling back to the fuzzy matcher, and splice its
// new lines in. No already-applied check runs. The applier's match-quality
// verification, indentation adaptation and duplicate check are not used.
func applyReversedFullEngine(reversed []*diffparse.Hunk, fileLines []string) (Outcome, bool) {
	current := append([]string(nil), fileLines...)
	offset := 0
	for _, h := range reversed {
		expectedPos := h.OldStart - 1 + offset
		pos := expectedPos
		if ok, _ := matcher.Strict(current, h.OldBlock, expectedPos); !ok {
			result, fuzzyOK := matcher.Fuzzy(current, h.OldBlock, expectedPos, 50, 500, 0.52)
			if !fuzzyOK {
				return Outcome{}, false
			}
			pos = result.Position
		}
		current = splice(current, pos, len(h.OldBlock), h.NewLines)
		offset += len(h.NewLines) - len(h.OldBlock)
	}
	return Outcome{Applied: true, Content: current}, true
}
