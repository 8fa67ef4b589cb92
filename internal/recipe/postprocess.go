// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/lldb-python/wheeledit/internal/linkage"
	"github.com/lldb-python/wheeledit/internal/wheel"
)

// PostprocessOptions configures Postprocess. Zero values take the stock
// lldb_python settings and automatic backend selection.
type PostprocessOptions struct {
	Dist      string
	SharedLib string
	Backend   linkage.Format
	Linkage   linkage.Options
}

// Postprocess rewrites the load paths of the first shared library in the
// wheel so they resolve into the bundled library directory, then repacks
// into destDir.
func (e *Editor) Postprocess(ctx context.Context, wheelPath, destDir string, opts PostprocessOptions) (*Result, error) {
	if opts.Dist == "" {
		opts.Dist = "lldb_python"
	}
	if opts.SharedLib == "" {
		opts.SharedLib = "*.so"
	}
	if opts.Linkage.Logger == nil {
		opts.Linkage.Logger = e.logger
	}

	absWheel, err := filepath.Abs(wheelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve wheel path: %w", err)
	}

	res := &Result{}
	out, err := e.session(ctx, absWheel, destDir, opts.Dist, func(tree string) error {
		lib, err := wheel.FindFirst(tree, opts.SharedLib)
		if err != nil {
			return fmt.Errorf("locating shared library: %w", err)
		}

		format, err := linkage.Resolve(opts.Backend, lib)
		if err != nil {
			return err
		}
		e.logger.Debug("patching", "library", relSlash(tree, lib), "backend", format)

		patcher, err := linkage.New(format, e.runner, opts.Linkage)
		if err != nil {
			return err
		}
		changes, err := patcher.Patch(ctx, linkage.Target{
			Wheel:   absWheel,
			Tree:    tree,
			Library: lib,
			Dist:    opts.Dist,
		})
		if err != nil {
			return fmt.Errorf("patching %s: %w", filepath.Base(lib), err)
		}
		res.Changes = changes
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.Wheel = out
	return res, nil
}
