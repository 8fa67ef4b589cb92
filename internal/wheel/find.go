// SPDX-License-Identifier: MPL-2.0

package wheel

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNotFound is the sentinel wrapped by NotFoundError.
var ErrNotFound = errors.New("no match")

// NotFoundError reports a pattern that matched nothing under Root.
type NotFoundError struct {
	Pattern string
	Root    string
}

// Error names the pattern and the searched directory.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("nothing matching %q under %s", e.Pattern, e.Root)
}

// Unwrap returns ErrNotFound so callers can use errors.Is.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Match reports whether the base name matches the glob pattern. Invalid
// patterns never match.
func Match(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}

// MatchAny reports whether name matches at least one pattern.
func MatchAny(patterns []string, name string) bool {
	return slices.ContainsFunc(patterns, func(p string) bool { return Match(p, name) })
}

// FindFirst walks root top-down and returns the first directory or file whose
// base name matches pattern. Within each directory, sub-directory names are
// tested before file names; the walk then descends into the sub-directories
// in name order.
func FindFirst(root, pattern string) (string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return "", fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	found, err := findIn(root, pattern)
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", &NotFoundError{Pattern: pattern, Root: root}
	}
	return found, nil
}

func findIn(dir, pattern string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", dir, err)
	}

	var dirs, files []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		} else {
			files = append(files, e.Name())
		}
	}

	for _, names := range [][]string{dirs, files} {
		for _, name := range names {
			if Match(pattern, name) {
				return filepath.Join(dir, name), nil
			}
		}
	}

	for _, name := range dirs {
		found, err := findIn(filepath.Join(dir, name), pattern)
		if err != nil || found != "" {
			return found, err
		}
	}
	return "", nil
}

// FindAll returns every non-directory entry under root whose base name
// matches any of patterns, in walk order.
func FindAll(root string, patterns ...string) ([]string, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, doublestar.ErrBadPattern)
		}
	}

	var matches []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && MatchAny(patterns, d.Name()) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// Locate globs pattern directly inside dir and returns the resolved real path
// of the first match.
func Locate(dir, pattern string) (string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), pattern)
	if err != nil {
		return "", fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return "", &NotFoundError{Pattern: pattern, Root: dir}
	}

	resolved, err := filepath.EvalSymlinks(filepath.Join(dir, filepath.FromSlash(matches[0])))
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", matches[0], err)
	}
	return filepath.Abs(resolved)
}
