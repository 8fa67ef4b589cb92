// SPDX-License-Identifier: MPL-2.0

package linkage

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/lldb-python/wheeledit/internal/toolexec"
)

// ELF patches ELF libraries with patchelf.
type ELF struct {
	runner   toolexec.Commander
	logger   *log.Logger
	patchelf string
	rpath    string
}

// Patch replaces every DT_NEEDED entry that has a bundled counterpart in
// {tree}/{dist}.libs and points the library's run path at that directory.
// A tree without the bundled directory is left untouched.
func (e *ELF) Patch(ctx context.Context, target Target) ([]Change, error) {
	libsDir := filepath.Join(target.Tree, target.Dist+".libs")
	bundled, err := bundledLibraries(libsDir)
	if err != nil {
		return nil, err
	}
	if len(bundled) == 0 {
		e.logger.Warn("no bundled libraries, nothing to patch", "dir", libsDir)
		return nil, nil
	}

	out, err := e.runner.Output(ctx, e.patchelf, "--print-needed", target.Library)
	if err != nil {
		return nil, fmt.Errorf("reading needed entries: %w", err)
	}

	var changes []Change
	for _, needed := range neededEntries(out) {
		replacement, ok := bundledFor(needed, bundled)
		if !ok || replacement == needed {
			continue
		}
		e.logger.Info("replacing needed entry", "library", filepath.Base(target.Library), "from", needed, "to", replacement)
		if err := e.runner.Run(ctx, e.patchelf, "--replace-needed", needed, replacement, target.Library); err != nil {
			return changes, fmt.Errorf("replacing needed entry %s: %w", needed, err)
		}
		changes = append(changes, Change{Library: target.Library, From: needed, To: replacement})
	}

	rpath := e.rpath
	if rpath == "" {
		rpath = "$ORIGIN/../" + target.Dist + ".libs"
	}
	e.logger.Info("setting run path", "library", filepath.Base(target.Library), "rpath", rpath)
	if err := e.runner.Run(ctx, e.patchelf, "--set-rpath", rpath, target.Library); err != nil {
		return changes, fmt.Errorf("setting run path: %w", err)
	}
	return changes, nil
}

func bundledLibraries(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading bundled libraries: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

func neededEntries(output string) []string {
	var needed []string
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			needed = append(needed, line)
		}
	}
	return needed
}

// bundledFor returns the bundled file for needed: an exact name match, or
// else the first file named {stem}-{hash}... or {stem}.{...}, where stem is
// the needed name up to its first ".".
func bundledFor(needed string, bundled []string) (string, bool) {
	stem, _, _ := strings.Cut(needed, ".")
	if stem == "" {
		return "", false
	}
	for _, name := range bundled {
		if name == needed {
			return name, true
		}
	}
	for _, name := range bundled {
		if strings.HasPrefix(name, stem+"-") || strings.HasPrefix(name, stem+".") {
			return name, true
		}
	}
	return "", false
}
