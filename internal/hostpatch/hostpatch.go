// Package hostpatch implements spec.md §6.4's host-binary contract: driving
// the system `patch` and `git apply` binaries and parsing their per-hunk
// dry-run output, the way the teacher package drives `git`/`filterdiff`
// through the same executor.CommandExecutor abstraction.
package hostpatch

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/syou6162/patchpipeline/internal/executor"
)

// HunkOutcome is one line of a `patch` dry-run report, per spec.md §4.9.
type HunkOutcome struct {
	Number         int
	Succeeded      bool
	AlreadyApplied bool
	Line           int
}

// Runner drives the host patch binaries with a bounded wall clock.
type Runner struct {
	exec    executor.CommandExecutor
	timeout time.Duration
}

// NewRunner constructs a Runner with spec.md §4.9's 10-second host-stage
// timeout.
func NewRunner(exec executor.CommandExecutor) *Runner {
	return &Runner{exec: exec, timeout: 10 * time.Second}
}

func (r *Runner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// patchBaseArgs is spec.md §6.4's host-binary contract for `patch`:
// "-p1 --forward --no-backup-if-mismatch --reject-file=- --batch
// --ignore-whitespace --verbose [--dry-run] -i -", with -d inserted to
// target dir instead of changing the process's working directory.
func patchBaseArgs(dir string, extra ...string) []string {
	args := []string{"-p1", "--forward", "--no-backup-if-mismatch", "--reject-file=-",
		"--batch", "--ignore-whitespace", "--verbose", "-d", dir}
	return append(args, extra...)
}

// PatchDryRun runs `patch --dry-run` against dir with patchText on stdin
// and returns the parsed per-hunk outcomes.
func (r *Runner) PatchDryRun(ctx context.Context, dir, patchText string) ([]HunkOutcome, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	args := patchBaseArgs(dir, "--dry-run", "-i", "-")
	out, err := r.exec.ExecuteWithStdin(ctx, "patch", strings.NewReader(patchText), args...)
	outcomes := ParseDryRunOutput(string(out))
	if err != nil && len(outcomes) == 0 {
		return nil, err
	}
	return outcomes, nil
}

// PatchApply runs `patch` for real.
func (r *Runner) PatchApply(ctx context.Context, dir, patchText string) ([]HunkOutcome, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	args := patchBaseArgs(dir, "-i", "-")
	out, err := r.exec.ExecuteWithStdin(ctx, "patch", strings.NewReader(patchText), args...)
	outcomes := ParseDryRunOutput(string(out))
	if err != nil && len(outcomes) == 0 {
		return nil, err
	}
	return outcomes, nil
}

// PatchReverseApply runs `patch -R` to undo forwardPatch, per spec.md
// §4.10 strategy 1.
func (r *Runner) PatchReverseApply(ctx context.Context, dir, forwardPatch string) ([]HunkOutcome, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	args := patchBaseArgs(dir, "-R", "-i", "-")
	out, err := r.exec.ExecuteWithStdin(ctx, "patch", strings.NewReader(forwardPatch), args...)
	outcomes := ParseDryRunOutput(string(out))
	if err != nil && len(outcomes) == 0 {
		return nil, err
	}
	return outcomes, nil
}

// gitApplyBaseArgs is spec.md §6.4's host-binary contract for `git apply`:
// "--verbose --ignore-whitespace --ignore-space-change --whitespace=nowarn
// [--check | --reject] <tmpfile>", with -C inserted to target dir and
// stdin used in place of a temp file.
func gitApplyBaseArgs(dir string, extra ...string) []string {
	args := []string{"-C", dir, "apply", "--verbose", "--ignore-whitespace",
		"--ignore-space-change", "--whitespace=nowarn"}
	return append(args, extra...)
}

// GitApplyCheck runs `git apply --check` against the remaining-hunks patch.
func (r *Runner) GitApplyCheck(ctx context.Context, dir, patchText string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	args := gitApplyBaseArgs(dir, "--check")
	_, err := r.exec.ExecuteWithStdin(ctx, "git", strings.NewReader(patchText), args...)
	return err
}

// GitApplyReject runs `git apply --reject` and returns the raw output. git
// apply does not emit the "Hunk #N" format patch does; the Pipeline does not
// parse this output or scan .rej files, and instead counts every submitted
// hunk as applied when the command exits cleanly.
func (r *Runner) GitApplyReject(ctx context.Context, dir, patchText string) ([]byte, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	args := gitApplyBaseArgs(dir, "--reject")
	return r.exec.ExecuteWithStdin(ctx, "git", strings.NewReader(patchText), args...)
}

var (
	hunkSucceeded = regexp.MustCompile(`Hunk #(\d+) succeeded at (\d+)`)
	hunkFailed    = regexp.MustCompile(`Hunk #(\d+) FAILED at (\d+)`)
	hunkApplied   = regexp.MustCompile(`Hunk #(\d+) already applied`)
)

// ParseDryRunOutput implements spec.md §4.9's per-hunk log parsing:
// "Hunk #N succeeded at L", "Hunk #N FAILED at L", "Hunk #N already
// applied".
func ParseDryRunOutput(output string) []HunkOutcome {
	var outcomes []HunkOutcome

	for _, m := range hunkSucceeded.FindAllStringSubmatch(output, -1) {
		n, _ := strconv.Atoi(m[1])
		line, _ := strconv.Atoi(m[2])
		outcomes = append(outcomes, HunkOutcome{Number: n, Succeeded: true, Line: line})
	}
	for _, m := range hunkFailed.FindAllStringSubmatch(output, -1) {
		n, _ := strconv.Atoi(m[1])
		line, _ := strconv.Atoi(m[2])
		outcomes = append(outcomes, HunkOutcome{Number: n, Succeeded: false, Line: line})
	}
	for _, m := range hunkApplied.FindAllStringSubmatch(output, -1) {
		n, _ := strconv.Atoi(m[1])
		outcomes = append(outcomes, HunkOutcome{Number: n, Succeeded: true, AlreadyApplied: true})
	}
	return outcomes
}

// AllSucceeded reports whether every outcome in the dry-run report
// succeeded (including already-applied hunks).
func AllSucceeded(outcomes []HunkOutcome) bool {
	if len(outcomes) == 0 {
		return false
	}
	for _, o := range outcomes {
		if !o.Succeeded {
			return false
		}
	}
	return true
}

