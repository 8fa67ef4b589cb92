// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/lldb-python/wheeledit/internal/config"
	"github.com/lldb-python/wheeledit/internal/issue"
	"github.com/lldb-python/wheeledit/internal/linkage"
	"github.com/lldb-python/wheeledit/internal/probe"
	"github.com/lldb-python/wheeledit/internal/recipe"
	"github.com/lldb-python/wheeledit/internal/toolexec"
	"github.com/lldb-python/wheeledit/internal/wheel"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want issue.Id
	}{
		{
			"wheel not found",
			fmt.Errorf("%w: %w", recipe.ErrNoWheel, &wheel.NotFoundError{Pattern: "lldb_python*.whl", Root: "dist"}),
			issue.WheelNotFoundId,
		},
		{"pattern not found", fmt.Errorf("locating data directory: %w", &wheel.NotFoundError{Pattern: "data"}), issue.PatternNotFoundId},
		{"invalid wheel", fmt.Errorf("unpacking: %w", wheel.ErrInvalidWheel), issue.InvalidWheelId},
		{"invalid filename", wheel.ErrInvalidFilename, issue.InvalidWheelId},
		{"tool not found", &toolexec.ToolNotFoundError{Tool: "patchelf"}, issue.ToolNotFoundId},
		{
			"tool path missing",
			fmt.Errorf("patching: %w", &toolexec.ToolNotFoundError{
				Tool: "/opt/patchelf/bin/patchelf",
				Err:  &fs.PathError{Op: "fork/exec", Path: "/opt/patchelf/bin/patchelf", Err: fs.ErrNotExist},
			}),
			issue.ToolNotFoundId,
		},
		{"tool failed", fmt.Errorf("patching: %w", &toolexec.ToolError{Tool: "otool", ExitCode: 1}), issue.ToolFailedId},
		{"unsupported binary", fmt.Errorf("%w: _lldb.so", linkage.ErrUnsupportedFormat), issue.UnsupportedBinaryId},
		{"probe failed", fmt.Errorf("%w: launch", probe.ErrProbeFailed), issue.ProbeFailedId},
		{"invalid config", &config.InvalidConfigError{}, issue.ConfigLoadFailedId},
		{
			"config file missing",
			issue.NewErrorContext().WithOperation("load configuration").Wrap(errors.New("config file not found")).BuildError(),
			issue.ConfigLoadFailedId,
		},
		{"permission denied", &fs.PathError{Op: "open", Path: "dist", Err: fs.ErrPermission}, issue.PermissionDeniedId},
		{"unclassified", errors.New("boom"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyError(tt.err); got != tt.want {
				t.Errorf("classifyError() = %d, want %d", got, tt.want)
			}
		})
	}
}
