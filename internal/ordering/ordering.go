// Package ordering implements the hunk sequencing and overlap-merge logic
// spec.md §9's design notes call out as a supplemented feature: hunks are
// applied in ascending old-file order, and hunks whose original ranges
// overlap are merged into a single hunk before application so that the
// position calculator in package applier never has to reconcile two
// partially-applied edits to the same lines.
package ordering

import (
	"sort"

	"github.com/syou6162/patchpipeline/internal/diffparse"
)

// Resolve sorts hunks by ascending OldStart and merges any whose original
// ranges overlap, matching the shape of the retrieved engine's
// optimize_hunk_order/merge_overlapping_hunks pair.
func Resolve(hunks []*diffparse.Hunk) []*diffparse.Hunk {
	if len(hunks) < 2 {
		return hunks
	}

	sorted := make([]*diffparse.Hunk, len(hunks))
	copy(sorted, hunks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OldStart < sorted[j].OldStart
	})

	if !hasOverlap(sorted) {
		return sorted
	}
	return mergeOverlapping(sorted)
}

func hasOverlap(sorted []*diffparse.Hunk) bool {
	for i := 0; i+1 < len(sorted); i++ {
		currentEnd := sorted[i].OldStart + sorted[i].OldCount
		nextStart := sorted[i+1].OldStart
		if nextStart < currentEnd {
			return true
		}
	}
	return false
}

// mergeOverlapping groups consecutive overlapping hunks and flattens each
// group into one synthetic hunk spanning the group's full original range.
func mergeOverlapping(sorted []*diffparse.Hunk) []*diffparse.Hunk {
	var merged []*diffparse.Hunk
	group := []*diffparse.Hunk{sorted[0]}
	groupEnd := sorted[0].OldStart + sorted[0].OldCount

	flush := func() {
		if len(group) == 1 {
			merged = append(merged, group[0])
			return
		}
		merged = append(merged, mergeGroup(group))
	}

	for _, h := range sorted[1:] {
		if h.OldStart < groupEnd {
			group = append(group, h)
			if end := h.OldStart + h.OldCount; end > groupEnd {
				groupEnd = end
			}
			continue
		}
		flush()
		group = []*diffparse.Hunk{h}
		groupEnd = h.OldStart + h.OldCount
	}
	flush()

	return merged
}

func mergeGroup(group []*diffparse.Hunk) *diffparse.Hunk {
	minStart := group[0].OldStart
	maxEnd := group[0].OldStart + group[0].OldCount
	var allOld, allNew, allRemoved, allAdded []string

	for _, h := range group {
		if h.OldStart < minStart {
			minStart = h.OldStart
		}
		if end := h.OldStart + h.OldCount; end > maxEnd {
			maxEnd = end
		}
		allOld = append(allOld, h.OldBlock...)
		allNew = append(allNew, h.NewLines...)
		allRemoved = append(allRemoved, h.RemovedLines...)
		allAdded = append(allAdded, h.AddedLines...)
	}

	first := group[0]
	return &diffparse.Hunk{
		Number:       first.Number,
		FilePath:     first.FilePath,
		Header:       first.Header,
		OldStart:     minStart,
		OldCount:     maxEnd - minStart,
		NewStart:     minStart,
		NewCount:     len(allNew),
		OldBlock:     allOld,
		NewLines:     allNew,
		RemovedLines: allRemoved,
		AddedLines:   allAdded,
	}
}
