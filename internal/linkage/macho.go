// SPDX-License-Identifier: MPL-2.0

package linkage

import (
	"bufio"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/lldb-python/wheeledit/internal/toolexec"
)

// MachO patches Mach-O libraries with install_name_tool.
type MachO struct {
	runner          toolexec.Commander
	logger          *log.Logger
	otool           string
	installNameTool string
	listDeps        string
	prefix          string
}

// loadEntry is a dependency named by a load command.
type loadEntry struct {
	lib  string // last path segment
	path string // path recorded in the load command
}

// Patch points every load command that names a bundled dependency at
// {prefix}/{lib}.
func (m *MachO) Patch(ctx context.Context, target Target) ([]Change, error) {
	listed, err := m.runner.Output(ctx, m.listDeps, target.Wheel)
	if err != nil {
		return nil, fmt.Errorf("listing bundled dependencies: %w", err)
	}
	stems := DependencyStems(listed)
	m.logger.Debug("bundled dependencies", "stems", strings.Join(stems, ","))

	loadCommands, err := m.runner.Output(ctx, m.otool, "-l", target.Library)
	if err != nil {
		return nil, fmt.Errorf("reading load commands: %w", err)
	}

	prefix := m.prefix
	if prefix == "" {
		prefix = "@loader_path/../" + target.Dist + ".dylibs"
	}
	prefix = strings.TrimSuffix(prefix, "/")

	var changes []Change
	for _, entry := range matchLoadEntries(LoadPaths(loadCommands), stems) {
		to := prefix + "/" + entry.lib
		m.logger.Info("changing load path", "library", filepath.Base(target.Library), "from", entry.path, "to", to)
		if err := m.runner.Run(ctx, m.installNameTool, "-change", entry.path, to, target.Library); err != nil {
			return changes, fmt.Errorf("changing load path %s: %w", entry.path, err)
		}
		changes = append(changes, Change{Library: target.Library, From: entry.path, To: to})
	}
	return changes, nil
}

// DependencyStems turns delocate-listdeps output into dependency stems: the
// base name of each listed path up to its first ".".
func DependencyStems(output string) []string {
	var stems []string
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		stem, _, _ := strings.Cut(path.Base(line), ".")
		if stem != "" {
			stems = append(stems, stem)
		}
	}
	return stems
}

// LoadPaths extracts the dylib paths from otool -l output: the field after
// "name" on every line that has a "name" field.
func LoadPaths(output string) []string {
	var paths []string
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		for _, f := range fields {
			if f == "name" && len(fields) > 1 {
				paths = append(paths, fields[1])
				break
			}
		}
	}
	return paths
}

// matchLoadEntries keeps the load paths whose library name contains one of
// stems. A library named more than once keeps its first position and its
// last path.
func matchLoadEntries(paths, stems []string) []loadEntry {
	var entries []loadEntry
	index := make(map[string]int)
	for _, p := range paths {
		lib := p[strings.LastIndex(p, "/")+1:]
		if !containsAny(lib, stems) {
			continue
		}
		if i, ok := index[lib]; ok {
			entries[i].path = p
			continue
		}
		index[lib] = len(entries)
		entries = append(entries, loadEntry{lib: lib, path: p})
	}
	return entries
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
