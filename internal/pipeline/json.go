package pipeline

import (
	"strconv"

	"github.com/syou6162/patchpipeline/internal/errtrack"
)

// HunkStatusJSON is one entry of spec.md §6.2's hunk_statuses map.
type HunkStatusJSON struct {
	Status       string  `json:"status"`
	Stage        string  `json:"stage"`
	Confidence   float32 `json:"confidence"`
	Position     int     `json:"position,omitempty"`
	ErrorDetails string  `json:"error_details,omitempty"`
}

// MostSpecificErrorJSON renders one errtrack.Record for the optional
// enhanced_errors.most_specific_errors map.
type MostSpecificErrorJSON struct {
	Stage   string `json:"stage"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// EnhancedErrorsJSON is spec.md §6.2's optional enhanced_errors block,
// populated only when at least one hunk failed.
type EnhancedErrorsJSON struct {
	MostSpecificErrors map[string]MostSpecificErrorJSON `json:"most_specific_errors"`
	PipelineErrors     []string                          `json:"pipeline_errors,omitempty"`
}

// ResultJSON is the wire shape of spec.md §6.2's PipelineResult.
type ResultJSON struct {
	Status         string                    `json:"status"`
	RequestID      string                    `json:"request_id,omitempty"`
	Message        string                    `json:"message"`
	Succeeded      []int                     `json:"succeeded"`
	Failed         []int                     `json:"failed"`
	AlreadyApplied []int                     `json:"already_applied"`
	ChangesWritten bool                      `json:"changes_written"`
	Error          string                    `json:"error,omitempty"`
	HunkStatuses   map[string]HunkStatusJSON `json:"hunk_statuses"`
	EnhancedErrors *EnhancedErrorsJSON       `json:"enhanced_errors,omitempty"`
}

// BuildJSON assembles spec.md §6.2's result surface from a Result and the
// error tracker accumulated alongside it. requestID is the identifier the
// CLI stamps onto each forward result, one per file (empty suppresses the
// field).
func (r *Result) BuildJSON(requestID string, tracker *errtrack.Tracker) *ResultJSON {
	out := &ResultJSON{
		Status:         string(r.Summary()),
		RequestID:      requestID,
		Succeeded:      nonNil(r.Succeeded()),
		Failed:         nonNil(r.Failed()),
		AlreadyApplied: nonNil(r.AlreadyApplied()),
		ChangesWritten: r.ChangesWritten,
		Error:          r.Error,
		HunkStatuses:   map[string]HunkStatusJSON{},
	}
	out.Message = summaryMessage(out.Status)

	for id, t := range r.Hunks {
		out.HunkStatuses[strconv.Itoa(id)] = HunkStatusJSON{
			Status:       t.Status.String(),
			Stage:        t.CurrentStage.String(),
			Confidence:   t.Confidence,
			Position:     t.Position,
			ErrorDetails: t.ErrorDetails,
		}
	}

	if tracker != nil && len(out.Failed) > 0 {
		most := map[string]MostSpecificErrorJSON{}
		for id, rec := range tracker.AllMostSpecific() {
			most[strconv.Itoa(id)] = MostSpecificErrorJSON{
				Stage:   rec.Stage.String(),
				Kind:    rec.Kind.String(),
				Message: rec.Message,
			}
		}
		enhanced := &EnhancedErrorsJSON{MostSpecificErrors: most}
		if r.Error != "" {
			enhanced.PipelineErrors = []string{r.Error}
		}
		out.EnhancedErrors = enhanced
	}

	return out
}

func summaryMessage(status string) string {
	switch SummaryStatus(status) {
	case SummarySuccess:
		return "all hunks applied"
	case SummaryPartial:
		return "some hunks applied, some failed"
	default:
		return "no hunks could be applied"
	}
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}

