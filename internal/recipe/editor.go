// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/lldb-python/wheeledit/internal/linkage"
	"github.com/lldb-python/wheeledit/internal/toolexec"
	"github.com/lldb-python/wheeledit/internal/wheel"
)

// ErrNoWheel is returned by ResolveWheel when no wheel can be found.
var ErrNoWheel = errors.New("no wheel found")

type (
	// Option configures an Editor.
	Option func(*Editor)

	// Editor runs recipes. It holds no state between runs.
	Editor struct {
		runner  toolexec.Commander
		logger  *log.Logger
		tempDir string
	}

	// Result describes an edited wheel.
	Result struct {
		// Wheel is the path of the repacked archive.
		Wheel string
		// Removed lists deleted files, relative to the wheel root.
		Removed []string
		// Moved is the new location of the moved directory, relative to the
		// wheel root. Empty when the move was already done.
		Moved string
		// Changes lists rewritten load paths.
		Changes []linkage.Change
	}
)

// New creates an Editor that runs external tools through runner.
func New(runner toolexec.Commander, opts ...Option) *Editor {
	e := &Editor{
		runner: runner,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithLogger sets the logger for progress messages.
func WithLogger(logger *log.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTempDir sets the parent of scratch directories (default os.TempDir).
func WithTempDir(dir string) Option {
	return func(e *Editor) {
		e.tempDir = dir
	}
}

// ResolveWheel returns path when it names a file. A directory is searched
// top-down for the first {dist}*.whl.
func ResolveWheel(path, dist string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoWheel, err)
	}
	if !info.IsDir() {
		return path, nil
	}

	found, err := wheel.FindFirst(path, dist+"*"+wheel.Ext)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoWheel, err)
	}
	return found, nil
}

// DestDir returns destDir, or the directory of wheelPath when destDir is
// empty.
func DestDir(wheelPath, destDir string) string {
	if destDir != "" {
		return destDir
	}
	return filepath.Dir(wheelPath)
}

// session unpacks wheelPath into a scratch directory, runs edit on the
// {dist}* tree, and packs the result into destDir. The scratch directory is
// removed on every path.
func (e *Editor) session(ctx context.Context, wheelPath, destDir, dist string, edit func(tree string) error) (wheelOut string, err error) {
	scratch, err := os.MkdirTemp(e.tempDir, "edit-wheel-*")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(scratch); rmErr != nil {
			e.logger.Warn("failed to remove scratch directory", "dir", scratch, "err", rmErr)
		}
	}()

	e.logger.Debug("unpacking", "wheel", wheelPath, "scratch", scratch)
	if _, err := wheel.Unpack(ctx, wheelPath, scratch); err != nil {
		return "", fmt.Errorf("unpacking %s: %w", wheelPath, err)
	}

	tree, err := wheel.Locate(scratch, dist+"*")
	if err != nil {
		return "", fmt.Errorf("locating unpacked wheel: %w", err)
	}

	if err := edit(tree); err != nil {
		return "", err
	}

	destDir = DestDir(wheelPath, destDir)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}

	out, err := wheel.Pack(ctx, tree, destDir)
	if err != nil {
		return "", fmt.Errorf("repacking: %w", err)
	}
	e.logger.Debug("packed", "wheel", out)
	return out, nil
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
