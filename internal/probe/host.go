// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/lldb-python/wheeledit/internal/toolexec"
)

type (
	// Prober runs the smoke checks. wheelPath may be empty to test the
	// binding that is already importable.
	Prober interface {
		Probe(ctx context.Context, wheelPath string) (*Report, error)
	}

	// HostProbe runs the checks with a local Python interpreter. When a wheel
	// is given it is installed into a scratch virtual environment first.
	HostProbe struct {
		Python  string
		CMake   string
		Runner  toolexec.Commander
		Logger  *log.Logger
		TempDir string
	}
)

var _ Prober = (*HostProbe)(nil)

// Probe implements Prober.
func (p *HostProbe) Probe(ctx context.Context, wheelPath string) (_ *Report, err error) {
	logger := p.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	python := p.Python
	if python == "" {
		python = "python3"
	}

	scratch, err := os.MkdirTemp(p.TempDir, "edit-wheel-probe-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(scratch); rmErr != nil && err == nil {
			err = rmErr
		}
	}()

	src := filepath.Join(scratch, "src")
	if err := WriteSample(src); err != nil {
		return nil, err
	}
	script, err := WriteScript(scratch)
	if err != nil {
		return nil, err
	}

	logger.Info("building sample", "dir", src)
	exe, err := CompileSample(ctx, p.Runner, p.CMake, src, filepath.Join(scratch, "build"))
	if err != nil {
		return nil, err
	}

	if wheelPath != "" {
		venv := filepath.Join(scratch, "venv")
		logger.Info("installing wheel", "wheel", wheelPath, "venv", venv)
		if err := p.Runner.Run(ctx, python, "-m", "venv", venv); err != nil {
			return nil, fmt.Errorf("creating virtual environment: %w", err)
		}
		python = filepath.Join(venv, "bin", "python")
		if err := p.Runner.Run(ctx, python, "-m", "pip", "install", "--quiet", wheelPath); err != nil {
			return nil, fmt.Errorf("installing %s: %w", filepath.Base(wheelPath), err)
		}
	}

	logger.Info("running probe", "python", python)
	return runScript(ctx, p.Runner, "host "+python, python, script, exe)
}

// runScript runs the probe script and parses its report. A script that exits
// non-zero after printing results is not an error; the report carries the
// failures.
func runScript(ctx context.Context, runner toolexec.Commander, where, python, script, exe string) (*Report, error) {
	out, runErr := runner.Output(ctx, python, script, exe)
	checks, err := ParseChecks(strings.NewReader(out))
	if err != nil {
		return nil, err
	}
	if runErr != nil && len(checks) == 0 {
		return nil, fmt.Errorf("running probe: %w", runErr)
	}
	var toolErr *toolexec.ToolError
	if runErr != nil && !errors.As(runErr, &toolErr) {
		return nil, fmt.Errorf("running probe: %w", runErr)
	}
	return newReport(where, checks), nil
}
