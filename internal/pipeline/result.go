package pipeline

import "github.com/syou6162/patchpipeline/internal/errtrack"

// Result is the top-level PipelineResult of spec.md §3.3.
type Result struct {
	FilePath        string
	OriginalDiff    string
	Hunks           map[int]*HunkTracker
	StagesCompleted []errtrack.Stage
	CurrentStage    errtrack.Stage
	ChangesWritten  bool
	Error           string
}

// NewResult constructs an empty Result for one file's patch.
func NewResult(filePath, originalDiff string) *Result {
	return &Result{
		FilePath:     filePath,
		OriginalDiff: originalDiff,
		Hunks:        map[int]*HunkTracker{},
		CurrentStage: errtrack.StageInit,
	}
}

// Succeeded returns the hunk numbers whose tracker is Succeeded.
func (r *Result) Succeeded() []int { return r.byStatus(StatusSucceeded) }

// Failed returns the hunk numbers whose tracker is Failed.
func (r *Result) Failed() []int { return r.byStatus(StatusFailed) }

// AlreadyApplied returns the hunk numbers whose tracker is AlreadyApplied.
func (r *Result) AlreadyApplied() []int { return r.byStatus(StatusAlreadyApplied) }

// Pending returns the hunk numbers whose tracker is still Pending.
func (r *Result) Pending() []int { return r.byStatus(StatusPending) }

func (r *Result) byStatus(s Status) []int {
	var out []int
	for id, t := range r.Hunks {
		if t.Status == s {
			out = append(out, id)
		}
	}
	return out
}

// SummaryStatus derives the overall status per spec.md §3.3's rule table.
type SummaryStatus string

const (
	SummaryError   SummaryStatus = "error"
	SummaryPartial SummaryStatus = "partial"
	SummarySuccess SummaryStatus = "success"
)

// Summary implements spec.md §3.3's status-derivation table, evaluated top
// to bottom.
func (r *Result) Summary() SummaryStatus {
	succeeded := len(r.Succeeded())
	failed := len(r.Failed())
	alreadyApplied := len(r.AlreadyApplied())

	if r.Error != "" && !r.ChangesWritten {
		return SummaryError
	}
	if failed > 0 && (succeeded > 0 || alreadyApplied > 0) {
		return SummaryPartial
	}
	if r.ChangesWritten && len(r.Hunks) == 0 {
		return SummarySuccess
	}
	if failed > 0 && succeeded == 0 && alreadyApplied == 0 {
		return SummaryError
	}
	if failed == 0 && (succeeded > 0 || alreadyApplied > 0) {
		return SummarySuccess
	}
	return SummarySuccess
}
