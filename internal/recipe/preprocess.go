// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/lldb-python/wheeledit/internal/wheel"
)

// PreprocessOptions holds the patterns used by Preprocess. Zero values take
// the stock lldb_python patterns.
type PreprocessOptions struct {
	Dist         string
	DataDir      string
	ExtraLibs    []string
	BinDir       string
	SitePackages string
	Server       string
}

func (o PreprocessOptions) withDefaults() PreprocessOptions {
	if o.Dist == "" {
		o.Dist = "lldb_python"
	}
	if o.DataDir == "" {
		o.DataDir = "data"
	}
	if len(o.ExtraLibs) == 0 {
		o.ExtraLibs = []string{"liblldb*"}
	}
	if o.BinDir == "" {
		o.BinDir = "bin"
	}
	if o.SitePackages == "" {
		o.SitePackages = "site-packages"
	}
	if o.Server == "" {
		o.Server = "lldb-server"
	}
	return o
}

// Preprocess removes redundant library copies from the data directory, moves
// data/bin into site-packages, rewrites RECORD and repacks into destDir.
func (e *Editor) Preprocess(ctx context.Context, wheelPath, destDir string, opts PreprocessOptions) (*Result, error) {
	opts = opts.withDefaults()
	res := &Result{}

	out, err := e.session(ctx, wheelPath, destDir, opts.Dist, func(tree string) error {
		dataDir, err := wheel.FindFirst(tree, opts.DataDir)
		if err != nil {
			return fmt.Errorf("locating data directory: %w", err)
		}

		extras, err := wheel.FindAll(dataDir, opts.ExtraLibs...)
		if err != nil {
			return fmt.Errorf("searching extra libraries: %w", err)
		}
		for _, extra := range extras {
			rel := relSlash(tree, extra)
			e.logger.Info("removing extra library", "path", rel)
			if err := os.Remove(extra); err != nil {
				return fmt.Errorf("removing %s: %w", rel, err)
			}
			res.Removed = append(res.Removed, rel)
		}

		sitePackages, err := wheel.FindFirst(tree, opts.SitePackages)
		if err != nil {
			return fmt.Errorf("locating site-packages: %w", err)
		}

		moved, err := e.moveInto(filepath.Join(dataDir, opts.BinDir), sitePackages, opts.BinDir)
		if err != nil {
			return err
		}
		if moved != "" {
			res.Moved = relSlash(tree, moved)
		}

		return fixupRecord(tree, opts)
	})
	if err != nil {
		return nil, err
	}

	res.Wheel = out
	return res, nil
}

// moveInto moves src into the directory dstParent and returns the new path.
// When src is gone but already present in dstParent, nothing is moved and ""
// is returned.
func (e *Editor) moveInto(src, dstParent, pattern string) (string, error) {
	dst := filepath.Join(dstParent, filepath.Base(src))

	_, srcErr := os.Stat(src)
	_, dstErr := os.Stat(dst)
	switch {
	case os.IsNotExist(srcErr) && dstErr == nil:
		e.logger.Info("bin folder already moved", "path", dst)
		return "", nil
	case os.IsNotExist(srcErr):
		return "", fmt.Errorf("moving bin folder: %w", &wheel.NotFoundError{Pattern: pattern, Root: filepath.Dir(src)})
	case srcErr != nil:
		return "", fmt.Errorf("moving bin folder: %w", srcErr)
	case dstErr == nil:
		return "", fmt.Errorf("moving bin folder: %s: %w", dst, fs.ErrExist)
	}

	e.logger.Info("moving bin folder", "to", dst)
	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("moving bin folder: %w", err)
	}
	return dst, nil
}

// fixupRecord drops RECORD rows for removed libraries and points the server
// row at its new location.
func fixupRecord(tree string, opts PreprocessOptions) error {
	recordPath, err := wheel.Locate(tree, "*.dist-info/"+wheel.RecordName)
	if err != nil {
		return fmt.Errorf("locating RECORD: %w", err)
	}
	server, err := wheel.FindFirst(tree, opts.Server)
	if err != nil {
		return fmt.Errorf("locating %s: %w", opts.Server, err)
	}
	serverRel := relSlash(tree, server)

	rec, err := wheel.ReadRecordFile(recordPath)
	if err != nil {
		return fmt.Errorf("reading RECORD: %w", err)
	}

	updated := make(wheel.Record, 0, len(rec))
	for _, row := range rec {
		base := path.Base(row.Path)
		if wheel.MatchAny(opts.ExtraLibs, base) {
			continue
		}
		if wheel.Match(opts.Server, base) {
			row.Path = serverRel
		}
		updated = append(updated, row)
	}

	if err := wheel.WriteRecordFile(recordPath, updated); err != nil {
		return fmt.Errorf("writing RECORD: %w", err)
	}
	return nil
}
