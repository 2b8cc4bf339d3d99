// Package pipeline implements spec.md §3.2-§3.3 and §4.9: the per-hunk
// state machine, the result summary, and the stage orchestrator that walks
// a patch through SystemPatch, GitApply, Difflib, and the optional
// LlmResolver stage.
package pipeline

import "github.com/syou6162/patchpipeline/internal/errtrack"

// Status is a HunkTracker's per-hunk disposition, per spec.md §3.2.
type Status int

const (
	StatusPending Status = iota
	StatusSucceeded
	StatusFailed
	StatusAlreadyApplied
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusAlreadyApplied:
		return "already_applied"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// StageResult is one entry in a HunkTracker's ordered stage log.
type StageResult struct {
	Stage        errtrack.Stage
	Status       Status
	Confidence   float32
	Position     int
	HasPosition  bool
	ErrorDetails string
}

// HunkTracker is the per-hunk state machine of spec.md §3.2.
type HunkTracker struct {
	HunkID       int
	Status       Status
	CurrentStage errtrack.Stage
	StageResults []StageResult
	Confidence   float32
	Position     int
	HasPosition  bool
	ErrorDetails string
}

// NewHunkTracker creates a fresh, Pending tracker for one hunk.
func NewHunkTracker(hunkID int) *HunkTracker {
	return &HunkTracker{HunkID: hunkID, Status: StatusPending, CurrentStage: errtrack.StageInit}
}

// Settled reports whether the tracker's status is final for the rest of
// the pipeline: once Succeeded or AlreadyApplied, later stages never
// revisit it.
func (t *HunkTracker) Settled() bool {
	return t.Status == StatusSucceeded || t.Status == StatusAlreadyApplied
}

// Record appends a stage outcome and updates the tracker's current status,
// stage, confidence, and position accordingly.
func (t *HunkTracker) Record(stage errtrack.Stage, status Status, confidence float32, position int, hasPosition bool, errDetails string) {
	t.StageResults = append(t.StageResults, StageResult{
		Stage:        stage,
		Status:       status,
		Confidence:   confidence,
		Position:     position,
		HasPosition:  hasPosition,
		ErrorDetails: errDetails,
	})
	t.CurrentStage = stage
	t.Status = status
	t.Confidence = confidence
	if hasPosition {
		t.Position = position
		t.HasPosition = true
	}
	if errDetails != "" {
		t.ErrorDetails = errDetails
	}
}

// ResetIfFailed implements spec.md §4.9's stage-boundary rule: a Failed
// hunk is reset to Pending for the next stage; Succeeded/AlreadyApplied
// hunks are left untouched.
func (t *HunkTracker) ResetIfFailed() {
	if t.Status == StatusFailed {
		t.Status = StatusPending
	}
}
