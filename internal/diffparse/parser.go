package diffparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// FileDiff groups every hunk that belongs to one file entry of a patch,
// along with the file-level metadata the validators need (spec.md §4.2.1's
// isNewFileCreation, §4.9's new-file-creation shortcut).
type FileDiff struct {
	OldPath  string
	NewPath  string
	IsNew    bool
	IsDelete bool
	IsRename bool
	IsCopy   bool
	IsBinary bool
	Hunks    []*Hunk
}

// ParsedPatch is the top-level result of parsing one patch's worth of
// unified-diff text, possibly spanning several files.
type ParsedPatch struct {
	Files []*FileDiff
}

// AllHunks flattens every hunk across every file, numbered by overall
// position in the patch (spec.md §3.1's "number" field).
func (p *ParsedPatch) AllHunks() []*Hunk {
	var hunks []*Hunk
	for _, f := range p.Files {
		hunks = append(hunks, f.Hunks...)
	}
	return hunks
}

// ParsePatch parses raw unified-diff text into hunks, per spec.md §4.1.
// It first tries go-gitdiff, which handles the common case (well-formed
// git diff / diff -u output, including multi-file patches split on
// "diff --git" boundaries) cheaply and correctly. When go-gitdiff rejects
// the input outright - which happens on the more mangled LLM output this
// engine exists to tolerate - ParsePatch falls back to a permissive,
// hand-rolled line scanner that implements the body-termination and
// preamble rules of §4.1 directly.
func ParsePatch(patchText string) (*ParsedPatch, error) {
	normalized := UnescapeTemplateBackticks(patchText)

	if parsed, err := parseWithGitDiff(normalized); err == nil {
		return parsed, nil
	}

	return parseTolerant(normalized)
}

func parseWithGitDiff(patchText string) (*ParsedPatch, error) {
	files, _, err := gitdiff.Parse(strings.NewReader(patchText))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &MalformedHunkError{Reason: "no files parsed"}
	}

	result := &ParsedPatch{}
	number := 0
	for _, f := range files {
		fd := &FileDiff{
			OldPath:  f.OldName,
			NewPath:  f.NewName,
			IsNew:    f.IsNew,
			IsDelete: f.IsDelete,
			IsRename: f.IsRename,
			IsCopy:   f.IsCopy,
			IsBinary: f.IsBinary,
		}
		path := fd.NewPath
		if path == "" {
			path = fd.OldPath
		}
		for _, frag := range f.TextFragments {
			number++
			h, err := hunkFromFragment(number, path, frag)
			if err != nil {
				return nil, err
			}
			fd.Hunks = append(fd.Hunks, h)
		}
		result.Files = append(result.Files, fd)
	}
	return result, nil
}

func hunkFromFragment(number int, path string, frag *gitdiff.TextFragment) (*Hunk, error) {
	h := &Hunk{
		Number:   number,
		FilePath: path,
		Header: fmt.Sprintf("@@ -%d,%d +%d,%d @@%s",
			frag.OldPosition, frag.OldLines, frag.NewPosition, frag.NewLines, headerTail(frag)),
		OldStart: int(frag.OldPosition),
		OldCount: int(frag.OldLines),
		NewStart: int(frag.NewPosition),
		NewCount: int(frag.NewLines),
	}

	for _, line := range frag.Lines {
		text := strings.TrimSuffix(line.Line, "\n")
		switch line.Op {
		case gitdiff.OpContext:
			h.OldBlock = append(h.OldBlock, text)
			h.NewLines = append(h.NewLines, text)
		case gitdiff.OpDelete:
			h.OldBlock = append(h.OldBlock, text)
			h.RemovedLines = append(h.RemovedLines, text)
		case gitdiff.OpAdd:
			h.NewLines = append(h.NewLines, text)
			h.AddedLines = append(h.AddedLines, text)
		}
	}

	trimTrailingEmptyArtifact(h)

	if h.OldCount > 0 && len(h.OldBlock) == 0 {
		return nil, &MalformedHunkError{Reason: "empty old block for non-empty count", Header: h.Header}
	}
	if h.NewCount > 0 && len(h.NewLines) == 0 {
		return nil, &MalformedHunkError{Reason: "empty new block for non-empty count", Header: h.Header}
	}

	return h, nil
}

func headerTail(frag *gitdiff.TextFragment) string {
	if frag.Comment != "" {
		return " " + frag.Comment
	}
	return ""
}

// UnescapeTemplateBackticks implements the single transport-escape repair
// spec.md §4.1 calls for: `\`` -> "`" but only when the JavaScript
// template-literal fence pattern "```${" is present, so that genuine
// multi-backtick markdown fences are left untouched.
func UnescapeTemplateBackticks(patchText string) string {
	if !strings.Contains(patchText, "```${") {
		return patchText
	}
	return strings.ReplaceAll(patchText, "\\`", "`")
}

// parseTolerant is the fallback, line-by-line scanner used when go-gitdiff
// rejects the input. It implements spec.md §4.1 directly: preamble lines
// are skipped outside a hunk but retained as body content inside one, a
// hunk begins at the first "@@ " line, and any line that is not a context
// (" "), addition ("+"), deletion ("-"), or no-newline marker ("\") line ends
// the hunk.
func parseTolerant(patchText string) (*ParsedPatch, error) {
	lines := strings.Split(patchText, "\n")

	result := &ParsedPatch{}
	var currentFile *FileDiff
	var currentHunk *Hunk
	number := 0

	closeHunk := func() {
		if currentHunk == nil {
			return
		}
		trimTrailingEmptyArtifact(currentHunk)
		if currentFile == nil {
			currentFile = &FileDiff{NewPath: currentHunk.FilePath, OldPath: currentHunk.FilePath}
			result.Files = append(result.Files, currentFile)
		}
		currentFile.Hunks = append(currentFile.Hunks, currentHunk)
		currentHunk = nil
	}

	var filePath, oldPath string

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		switch {
		case strings.HasPrefix(line, "diff --git"):
			closeHunk()
			parts := strings.Fields(line)
			if len(parts) >= 4 {
				oldPath = strings.TrimPrefix(parts[2], "a/")
				filePath = strings.TrimPrefix(parts[3], "b/")
			}
			currentFile = &FileDiff{OldPath: oldPath, NewPath: filePath}
			result.Files = append(result.Files, currentFile)
			continue
		case currentHunk == nil && (strings.HasPrefix(line, "index ") ||
			strings.HasPrefix(line, "new file mode") ||
			strings.HasPrefix(line, "deleted file mode") ||
			strings.HasPrefix(line, "--- ") ||
			strings.HasPrefix(line, "+++ ")):
			if currentFile != nil {
				applyPreambleLine(currentFile, line)
			}
			continue
		}

		if strings.HasPrefix(line, "@@") {
			closeHunk()
			number++
			h, err := parseHunkHeader(line, number, filePath)
			if err != nil {
				return nil, err
			}
			currentHunk = h
			continue
		}

		if currentHunk == nil {
			continue
		}

		if len(line) == 0 {
			// Empty line inside the body range is a context line.
			currentHunk.OldBlock = append(currentHunk.OldBlock, "")
			currentHunk.NewLines = append(currentHunk.NewLines, "")
			continue
		}

		switch line[0] {
		case ' ':
			text := line[1:]
			currentHunk.OldBlock = append(currentHunk.OldBlock, text)
			currentHunk.NewLines = append(currentHunk.NewLines, text)
		case '-':
			text := line[1:]
			currentHunk.OldBlock = append(currentHunk.OldBlock, text)
			currentHunk.RemovedLines = append(currentHunk.RemovedLines, text)
		case '+':
			text := line[1:]
			currentHunk.NewLines = append(currentHunk.NewLines, text)
			currentHunk.AddedLines = append(currentHunk.AddedLines, text)
		case '\\':
			currentHunk.MissingNewline = true
		default:
			// Any other line shape ends the hunk; re-process it as a
			// preamble/file-boundary candidate on the next iteration.
			closeHunk()
			i--
		}
	}
	closeHunk()

	if len(result.Files) == 0 {
		return nil, &MalformedHunkError{Reason: "no hunks found"}
	}
	return result, nil
}

func applyPreambleLine(f *FileDiff, line string) {
	switch {
	case strings.HasPrefix(line, "new file mode"):
		f.IsNew = true
	case strings.HasPrefix(line, "deleted file mode"):
		f.IsDelete = true
	case strings.HasPrefix(line, "--- "):
		p := strings.TrimPrefix(line, "--- ")
		if p == "/dev/null" {
			f.IsNew = true
		} else {
			f.OldPath = strings.TrimPrefix(p, "a/")
		}
	case strings.HasPrefix(line, "+++ "):
		p := strings.TrimPrefix(line, "+++ ")
		if p == "/dev/null" {
			f.IsDelete = true
		} else {
			f.NewPath = strings.TrimPrefix(p, "b/")
		}
	}
}

// parseHunkHeader parses "@@ -A[,B] +C[,D] @@[ tail]", with B/D defaulting
// to 1 when absent, and an optional trailing "Hunk #N" overriding the
// positional hunk number.
func parseHunkHeader(line string, positionalNumber int, filePath string) (*Hunk, error) {
	body := strings.TrimPrefix(line, "@@")
	end := strings.Index(body, "@@")
	if end < 0 {
		return nil, &MalformedHunkError{Reason: "unterminated hunk header", Header: line}
	}
	spec := strings.TrimSpace(body[:end])
	tail := body[end+2:]

	fields := strings.Fields(spec)
	if len(fields) < 2 {
		return nil, &MalformedHunkError{Reason: "missing old/new range", Header: line}
	}

	oldStart, oldCount, err := parseRange(fields[0], '-')
	if err != nil {
		return nil, &MalformedHunkError{Reason: err.Error(), Header: line}
	}
	newStart, newCount, err := parseRange(fields[1], '+')
	if err != nil {
		return nil, &MalformedHunkError{Reason: err.Error(), Header: line}
	}

	number := positionalNumber
	if idx := strings.Index(tail, "Hunk #"); idx >= 0 {
		rest := tail[idx+len("Hunk #"):]
		j := 0
		for j < len(rest) && rest[j] >= '0' && rest[j] <= '9' {
			j++
		}
		if j > 0 {
			if n, err := strconv.Atoi(rest[:j]); err == nil {
				number = n
			}
		}
	}

	return &Hunk{
		Number:   number,
		FilePath: filePath,
		Header:   line,
		OldStart: oldStart,
		OldCount: oldCount,
		NewStart: newStart,
		NewCount: newCount,
	}, nil
}

func parseRange(field string, want byte) (start, count int, err error) {
	if len(field) == 0 || field[0] != want {
		return 0, 0, fmt.Errorf("expected range starting with %q: %q", want, field)
	}
	field = field[1:]
	parts := strings.SplitN(field, ",", 2)
	start, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid line number %q", parts[0])
	}
	count = 1
	if len(parts) == 2 {
		count, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid line count %q", parts[1])
		}
	}
	return start, count, nil
}
