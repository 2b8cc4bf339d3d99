package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/syou6162/patchpipeline/internal/applier"
	"github.com/syou6162/patchpipeline/internal/config"
	"github.com/syou6162/patchpipeline/internal/diffparse"
	"github.com/syou6162/patchpipeline/internal/errtrack"
	"github.com/syou6162/patchpipeline/internal/fileops"
	"github.com/syou6162/patchpipeline/internal/hostpatch"
	"github.com/syou6162/patchpipeline/internal/llmresolve"
	"github.com/syou6162/patchpipeline/internal/ordering"
	"github.com/syou6162/patchpipeline/internal/validate"
)

// Manager orchestrates spec.md §4.9's stage flow for one file's patch.
type Manager struct {
	Host     *hostpatch.Runner
	Config   config.Config
	Resolver llmresolve.Resolver
	Tracker  *errtrack.Tracker
}

// NewManager builds a Manager with the given host-binary runner and
// config; it falls back to the no-op LLM resolver stub when resolver is
// nil, matching spec.md §4.9's "(optional stub)" note.
func NewManager(host *hostpatch.Runner, cfg config.Config, resolver llmresolve.Resolver) *Manager {
	if resolver == nil {
		resolver = llmresolve.Stub{}
	}
	return &Manager{Host: host, Config: cfg, Resolver: resolver, Tracker: errtrack.NewTracker()}
}

// RunForward implements spec.md §4.9's forward pipeline for one file. dir
// is the repository root, fileLines is the file's current content (nil for
// a new-file creation), and patchText is the full original patch for this
// file (used for the SystemPatch/GitApply stages' remaining-hunks
// extraction).
func (m *Manager) RunForward(ctx context.Context, dir string, fd *diffparse.FileDiff, fileLines []string, patchText string) (*Result, []string, error) {
	result := NewResult(fd.NewPath, patchText)
	for _, h := range fd.Hunks {
		result.Hunks[h.Number] = NewHunkTracker(h.Number)
	}

	if validate.IsNewFileCreation(fd) {
		path, existed, err := fileops.CreateNewFile(dir, fd, "\n")
		if err != nil {
			result.Error = err.Error()
			return result, nil, err
		}
		if existed {
			result.Hunks[fd.Hunks[0].Number].Record(errtrack.StageInit, StatusFailed, 0, 0, false, "target file already exists")
			result.Error = "file already exists: " + path
			return result, nil, nil
		}
		result.ChangesWritten = true
		result.CurrentStage = errtrack.StageComplete
		result.StagesCompleted = append(result.StagesCompleted, errtrack.StageInit)
		return result, nil, nil
	}

	// spec.md §4.8: malformed-state detection gates the whole patch before
	// any stage runs, let alone writes — a single contradictory hunk must
	// not leave an earlier hunk's splice on disk as a "partial" success.
	for _, h := range fd.Hunks {
		if validate.IsMalformedState(fileLines, h) {
			result.Error = fmt.Sprintf("malformed patch state in hunk #%d", h.Number)
			for _, hh := range fd.Hunks {
				result.Hunks[hh.Number].Record(errtrack.StageInit, StatusFailed, 0, 0, false, "malformed patch state")
			}
			m.Tracker.Record(h.Number, errtrack.Record{Stage: errtrack.StageInit, Kind: errtrack.KindMalformed, Message: "malformed patch state"})
			result.CurrentStage = errtrack.StageComplete
			result.StagesCompleted = append(result.StagesCompleted, errtrack.StageInit)
			return result, fileLines, nil
		}
	}

	hunks := ordering.Resolve(fd.Hunks)

	m.runSystemPatch(ctx, dir, result, hunks, patchText)
	m.resetFailedFor(result, errtrack.StageGitApply)

	m.runGitApply(ctx, dir, result, hunks, patchText)
	m.resetFailedFor(result, errtrack.StageDifflib)

	current := m.runDifflib(result, hunks, fileLines)
	m.resetFailedFor(result, errtrack.StageLlmResolver)

	m.runLlmResolver(ctx, result, fd, current)

	result.CurrentStage = errtrack.StageComplete
	result.StagesCompleted = append(result.StagesCompleted,
		errtrack.StageSystemPatch, errtrack.StageGitApply, errtrack.StageDifflib, errtrack.StageLlmResolver)

	if len(result.Succeeded())+len(result.AlreadyApplied()) > 0 {
		result.ChangesWritten = true
	}

	return result, current, nil
}

func (m *Manager) resetFailedFor(result *Result, nextStage errtrack.Stage) {
	for _, t := range result.Hunks {
		if !t.Settled() {
			t.ResetIfFailed()
			t.CurrentStage = nextStage
		}
	}
}

func (m *Manager) runSystemPatch(ctx context.Context, dir string, result *Result, hunks []*diffparse.Hunk, patchText string) {
	if m.Host == nil {
		return
	}
	outcomes, err := m.Host.PatchDryRun(ctx, dir, patchText)
	if err != nil || !hostpatch.AllSucceeded(outcomes) {
		return
	}
	if _, err := m.Host.PatchApply(ctx, dir, patchText); err != nil {
		return
	}
	for _, o := range outcomes {
		t, ok := result.Hunks[o.Number]
		if !ok {
			continue
		}
		status := StatusSucceeded
		if o.AlreadyApplied {
			status = StatusAlreadyApplied
		}
		t.Record(errtrack.StageSystemPatch, status, 1.0, o.Line, true, "")
	}
}

func (m *Manager) runGitApply(ctx context.Context, dir string, result *Result, hunks []*diffparse.Hunk, patchText string) {
	if m.Host == nil {
		return
	}
	succeeded := succeededSet(result)
	remaining, err := diffparse.ExtractRemainingHunks(patchText, succeeded)
	if err != nil || strings.TrimSpace(remaining) == "" {
		return
	}
	if err := m.Host.GitApplyCheck(ctx, dir, remaining); err != nil {
		return
	}
	if _, err := m.Host.GitApplyReject(ctx, dir, remaining); err != nil {
		return
	}
	for _, h := range hunks {
		t := result.Hunks[h.Number]
		if t.Settled() {
			continue
		}
		t.Record(errtrack.StageGitApply, StatusSucceeded, 1.0, 0, false, "")
	}
}

// runDifflib implements the pure §4.5-4.7 engine over every hunk not
// already settled, returning the resulting file content.
func (m *Manager) runDifflib(result *Result, hunks []*diffparse.Hunk, fileLines []string) []string {
	current := fileLines
	var applied []applier.Applied

	for _, h := range hunks {
		t := result.Hunks[h.Number]
		if t.Settled() {
			continue
		}

		for pos := 0; pos <= len(current); pos++ {
			if validate.IsHunkAlreadyApplied(current, h, pos, validate.AlreadyAppliedOptions{}) {
				t.Record(errtrack.StageDifflib, StatusAlreadyApplied, 1.0, pos, true, "")
				break
			}
		}
		if t.Status == StatusAlreadyApplied {
			continue
		}

		initialPos := applier.InitialPosition(h, applied)
		outcome := applier.Apply(current, h, initialPos, m.Config)
		if !outcome.Applied {
			t.Record(errtrack.StageDifflib, StatusFailed, outcome.Confidence, outcome.Position, outcome.Position >= 0, outcome.ErrorMessage)
			m.Tracker.Record(h.Number, errtrack.Record{
				Stage:      errtrack.StageDifflib,
				Kind:       outcome.ErrorKind,
				Message:    outcome.ErrorMessage,
				Confidence: floatPtr(outcome.Confidence),
			})
			continue
		}

		current = outcome.NewLines
		applied = append(applied, applier.Applied{
			OldStart: h.OldStart,
			OldEnd:   h.OldStart + h.OldCount,
			Added:    len(h.AddedLines),
			Removed:  len(h.RemovedLines),
		})
		t.Record(errtrack.StageDifflib, StatusSucceeded, outcome.Confidence, outcome.Position, true, "")
	}

	return current
}

func (m *Manager) runLlmResolver(ctx context.Context, result *Result, fd *diffparse.FileDiff, current []string) {
	pending := result.Pending()
	if len(pending) == 0 {
		return
	}
	_, _ = m.Resolver.Resolve(ctx, llmresolve.Attempt{
		FilePath:       fd.NewPath,
		CurrentContent: strings.Join(current, "\n"),
	})
	for _, id := range pending {
		result.Hunks[id].Record(errtrack.StageLlmResolver, StatusFailed, 0, 0, false, "unresolved after all stages")
	}
}

func succeededSet(result *Result) map[int]bool {
	out := map[int]bool{}
	for id, t := range result.Hunks {
		out[id] = t.Settled()
	}
	return out
}

func floatPtr(f float32) *float32 { return &f }
