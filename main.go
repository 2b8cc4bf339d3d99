package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/syou6162/patchpipeline/internal/config"
	"github.com/syou6162/patchpipeline/internal/diffparse"
	"github.com/syou6162/patchpipeline/internal/errtrack"
	"github.com/syou6162/patchpipeline/internal/executor"
	"github.com/syou6162/patchpipeline/internal/fileops"
	"github.com/syou6162/patchpipeline/internal/gitcontext"
	"github.com/syou6162/patchpipeline/internal/hostpatch"
	"github.com/syou6162/patchpipeline/internal/logger"
	"github.com/syou6162/patchpipeline/internal/pipeline"
	"github.com/syou6162/patchpipeline/internal/reverse"
)

func main() {
	var (
		patchFile = flag.String("patch", "", "Path to the unified-diff patch file")
		dir       = flag.String("dir", ".", "Root directory the patch's paths are relative to")
		apply     = flag.Bool("apply", false, "Write the resolved content back to disk")
		doReverse = flag.Bool("reverse", false, "Undo a previously applied patch instead of applying it")
		asJSON    = flag.Bool("json", false, "Print the PipelineResult as JSON instead of a human summary")
		showHunks = flag.Bool("show-hunks", false, "Show all parsed hunks for the patch (for debugging)")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -patch=<patch_file> [-dir=<root>] [-apply] [-reverse] [-json]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nApplies (or reverses) a unified diff against the files under -dir,\n")
		fmt.Fprintf(os.Stderr, "tolerating drifted offsets, whitespace noise, and mangled headers.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -patch=changes.patch -apply\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -patch=changes.patch -json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nDebug:\n")
		fmt.Fprintf(os.Stderr, "  %s -patch=changes.patch -show-hunks\n", os.Args[0])
	}

	flag.Parse()

	if *patchFile == "" {
		fmt.Fprintf(os.Stderr, "Error: -patch flag is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	patchBytes, err := os.ReadFile(*patchFile)
	if err != nil {
		log.Fatalf("failed to read patch file: %v", err)
	}
	patchText := string(patchBytes)

	parsed, err := diffparse.ParsePatch(patchText)
	if err != nil {
		log.Fatalf("failed to parse patch: %v", err)
	}

	if *showHunks {
		showAllHunks(parsed)
		return
	}

	lg := logger.NewFromEnv()
	gitReader := gitcontext.NewReader(*dir)
	if gitReader.IsRepository() {
		lg.Debug("operating inside a git worktree at %s", *dir)
	} else {
		lg.Debug("%s is not a git repository; host-binary stages fall back to plain patch semantics", *dir)
	}

	exec := executor.NewRealCommandExecutor()
	host := hostpatch.NewRunner(exec)
	cfg := config.FromEnv()

	var results []*pipeline.ResultJSON
	exitCode := 0

	for _, fd := range parsed.Files {
		var result *pipeline.ResultJSON
		var code int

		if *doReverse {
			result, code = runReverseForFile(host, *dir, fd, *apply)
		} else {
			requestID := uuid.NewString()
			result, code = runForwardForFile(host, cfg, *dir, fd, patchText, requestID, *apply)
		}

		results = append(results, result)
		if code != 0 {
			exitCode = code
		}
	}

	if *asJSON {
		printJSON(results)
	} else {
		printHuman(results)
	}

	os.Exit(exitCode)
}

func runForwardForFile(host *hostpatch.Runner, cfg config.Config, dir string, fd *diffparse.FileDiff, patchText, requestID string, apply bool) (*pipeline.ResultJSON, int) {
	targetPath := fd.NewPath
	if targetPath == "" {
		targetPath = fd.OldPath
	}

	var fileLines []string
	if !fd.IsNew {
		full, err := fileops.ResolvePath(dir, targetPath)
		if err != nil {
			r := pipeline.NewResult(targetPath, patchText)
			r.Error = err.Error()
			return r.BuildJSON(requestID, nil), 1
		}
		content, err := os.ReadFile(full)
		if err != nil {
			r := pipeline.NewResult(targetPath, patchText)
			r.Error = fmt.Sprintf("reading %s: %v", targetPath, err)
			return r.BuildJSON(requestID, nil), 1
		}
		fileLines = strings.Split(string(content), "\n")
	}

	mgr := pipeline.NewManager(host, cfg, nil)
	result, newContent, err := mgr.RunForward(context.Background(), dir, fd, fileLines, patchText)
	if err != nil {
		if result == nil {
			result = pipeline.NewResult(targetPath, patchText)
		}
		result.Error = err.Error()
		return result.BuildJSON(requestID, mgr.Tracker), 1
	}

	if apply && result.ChangesWritten && !fd.IsNew {
		full, pathErr := fileops.ResolvePath(dir, targetPath)
		if pathErr == nil {
			if writeErr := os.WriteFile(full, []byte(strings.Join(newContent, "\n")), 0o644); writeErr == nil {
				_ = fileops.CleanRejectFiles(dir, targetPath)
			}
		}
	}

	exitCode := 0
	if len(result.Failed()) > 0 {
		exitCode = 1
	}
	return result.BuildJSON(requestID, mgr.Tracker), exitCode
}

func runReverseForFile(host *hostpatch.Runner, dir string, fd *diffparse.FileDiff, apply bool) (*pipeline.ResultJSON, int) {
	targetPath := fd.NewPath
	if targetPath == "" {
		targetPath = fd.OldPath
	}

	full, err := fileops.ResolvePath(dir, targetPath)
	if err != nil {
		r := pipeline.NewResult(targetPath, "")
		r.Error = err.Error()
		return r.BuildJSON("", nil), 1
	}
	content, err := os.ReadFile(full)
	if err != nil {
		r := pipeline.NewResult(targetPath, "")
		r.Error = fmt.Sprintf("reading %s: %v", targetPath, err)
		return r.BuildJSON("", nil), 1
	}
	fileLines := strings.Split(string(content), "\n")

	runner := reverse.NewRunner(host)
	outcome := runner.Reverse(context.Background(), dir, fd, fileLines, "", nil)

	result := pipeline.NewResult(targetPath, "")
	for _, h := range fd.Hunks {
		tr := pipeline.NewHunkTracker(h.Number)
		if outcome.Applied {
			tr.Record(errtrack.StageComplete, pipeline.StatusSucceeded, 1.0, 0, false, "")
		} else {
			tr.Record(errtrack.StageComplete, pipeline.StatusFailed, 0, 0, false, "no reverse strategy succeeded")
		}
		result.Hunks[h.Number] = tr
	}

	if outcome.Applied {
		result.ChangesWritten = true
		if apply {
			_ = os.WriteFile(full, []byte(strings.Join(outcome.Content, "\n")), 0o644)
		}
	} else {
		result.Error = "reverse failed: no strategy matched"
	}

	exitCode := 0
	if !outcome.Applied {
		exitCode = 1
	}
	return result.BuildJSON("", nil), exitCode
}

func showAllHunks(parsed *diffparse.ParsedPatch) {
	for _, fd := range parsed.Files {
		for _, h := range fd.Hunks {
			fmt.Println(diffparse.Explain(h))
			fmt.Println(strings.Repeat("-", 60))
		}
	}
}

func printJSON(results []*pipeline.ResultJSON) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if len(results) == 1 {
		_ = enc.Encode(results[0])
		return
	}
	_ = enc.Encode(results)
}

func printHuman(results []*pipeline.ResultJSON) {
	for _, r := range results {
		fmt.Printf("%s: %s\n", r.Status, r.Message)
		if len(r.Succeeded) > 0 {
			fmt.Printf("  succeeded: %v\n", r.Succeeded)
		}
		if len(r.AlreadyApplied) > 0 {
			fmt.Printf("  already applied: %v\n", r.AlreadyApplied)
		}
		if len(r.Failed) > 0 {
			fmt.Printf("  failed: %v\n", r.Failed)
		}
		if r.Error != "" {
			fmt.Printf("  error: %s\n", r.Error)
		}
	}
}
