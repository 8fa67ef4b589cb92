// SPDX-License-Identifier: MPL-2.0

package linkage

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/lldb-python/wheeledit/internal/toolexec"
)

type (
	// Target identifies the library to patch.
	Target struct {
		// Wheel is the archive the tree was unpacked from.
		Wheel string
		// Tree is the root of the unpacked wheel.
		Tree string
		// Library is the shared library to patch, inside Tree.
		Library string
		// Dist is the normalized distribution name, e.g. "lldb_python".
		Dist string
	}

	// Change is one rewritten load path.
	Change struct {
		Library string
		From    string
		To      string
	}

	// Patcher rewrites the load paths of Target.Library in place.
	Patcher interface {
		Patch(ctx context.Context, target Target) ([]Change, error)
	}

	// Tools names the executables used by the patchers.
	Tools struct {
		Otool            string
		InstallNameTool  string
		DelocateListdeps string
		Patchelf         string
	}

	// Options configures New.
	Options struct {
		Tools Tools
		// LoaderPrefix replaces the Mach-O default @loader_path/../{dist}.dylibs.
		LoaderPrefix string
		// RPath replaces the ELF default $ORIGIN/../{dist}.libs.
		RPath  string
		Logger *log.Logger
	}
)

// DefaultTools returns the tool names looked up in PATH.
func DefaultTools() Tools {
	return Tools{
		Otool:            "otool",
		InstallNameTool:  "install_name_tool",
		DelocateListdeps: "delocate-listdeps",
		Patchelf:         "patchelf",
	}
}

// New returns the patcher for format. FormatAuto is not accepted; resolve it
// with Resolve first.
func New(format Format, runner toolexec.Commander, opts Options) (Patcher, error) {
	tools := DefaultTools()
	if opts.Tools.Otool != "" {
		tools.Otool = opts.Tools.Otool
	}
	if opts.Tools.InstallNameTool != "" {
		tools.InstallNameTool = opts.Tools.InstallNameTool
	}
	if opts.Tools.DelocateListdeps != "" {
		tools.DelocateListdeps = opts.Tools.DelocateListdeps
	}
	if opts.Tools.Patchelf != "" {
		tools.Patchelf = opts.Tools.Patchelf
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	switch format {
	case FormatMachO:
		return &MachO{
			runner:          runner,
			logger:          logger,
			otool:           tools.Otool,
			installNameTool: tools.InstallNameTool,
			listDeps:        tools.DelocateListdeps,
			prefix:          opts.LoaderPrefix,
		}, nil
	case FormatELF:
		return &ELF{
			runner:   runner,
			logger:   logger,
			patchelf: tools.Patchelf,
			rpath:    opts.RPath,
		}, nil
	default:
		return nil, fmt.Errorf("%w: no patcher for %q", ErrUnsupportedFormat, format)
	}
}
