// Package fileops implements the filesystem-facing edges of the pipeline:
// new-file creation from a pure-addition hunk, and cleanup of the .rej/.orig
// artifacts host `patch`/`git apply --reject` leave behind. Every path
// supplied by a patch is joined against the target root with
// filepath-securejoin so a maliciously crafted "../../etc/passwd" path in
// a patch header can never escape the working directory.
package fileops

import (
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/syou6162/patchpipeline/internal/diffparse"
)

// ResolvePath joins a patch-supplied relative path against root, refusing
// to resolve outside of it.
func ResolvePath(root, patchPath string) (string, error) {
	return securejoin.SecureJoin(root, patchPath)
}

// CreateNewFile writes the content of a pure-addition, new-file hunk to
// disk, creating parent directories as needed. It refuses to overwrite an
// existing file, returning NewFileExists semantics via alreadyExisted.
func CreateNewFile(root string, fd *diffparse.FileDiff, terminator string) (path string, alreadyExisted bool, err error) {
	path, err = ResolvePath(root, fd.NewPath)
	if err != nil {
		return "", false, err
	}

	if _, statErr := os.Stat(path); statErr == nil {
		return path, true, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, err
	}

	var lines []string
	for _, h := range fd.Hunks {
		lines = append(lines, h.AddedLines...)
	}
	content := strings.Join(lines, terminator)
	if len(lines) > 0 {
		content += terminator
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", false, err
	}
	return path, false, nil
}

// CleanRejectFiles removes the .rej and .orig files `patch`/`git apply
// --reject` leave next to a target file once every hunk in its diff has
// either succeeded or been exhausted, matching the original engine's
// post-application tidy-up.
func CleanRejectFiles(root, targetPath string) error {
	full, err := ResolvePath(root, targetPath)
	if err != nil {
		return err
	}
	for _, suffix := range []string{".rej", ".orig"} {
		candidate := full + suffix
		if _, statErr := os.Stat(candidate); statErr == nil {
			if rmErr := os.Remove(candidate); rmErr != nil {
				return rmErr
			}
		}
	}
	return nil
}
