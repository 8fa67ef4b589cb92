// SPDX-License-Identifier: MPL-2.0

package toolexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/syntax"
)

var (
	// ErrToolNotFound is the sentinel error wrapped by ToolNotFoundError.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolFailed is the sentinel error wrapped by ToolError.
	ErrToolFailed = errors.New("tool failed")
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// Commander runs external tools. Runner is the production implementation;
	// packages that shell out accept this interface so tests can script results.
	Commander interface {
		// Run executes the tool and discards its standard output.
		Run(ctx context.Context, name string, args ...string) error
		// Output executes the tool and returns its standard output.
		Output(ctx context.Context, name string, args ...string) (string, error)
	}

	// Option configures a Runner.
	Option func(*Runner)

	// Runner executes external tools synchronously. Standard error is captured
	// and attached to the returned error when the tool exits non-zero.
	Runner struct {
		execCommand ExecCommandFunc
		logger      *log.Logger
	}

	// ToolNotFoundError is returned when the executable cannot be located.
	ToolNotFoundError struct {
		Tool string
		Err  error
	}

	// ToolError is returned when a tool exits with a non-zero status.
	ToolError struct {
		Tool     string
		Args     []string
		ExitCode int
		Stderr   string
		Err      error
	}
)

// New creates a Runner that uses exec.CommandContext unless overridden.
func New(opts ...Option) *Runner {
	r := &Runner{
		execCommand: exec.CommandContext,
		logger:      log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithExecCommand replaces the command factory (tests use a helper process).
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(r *Runner) {
		r.execCommand = fn
	}
}

// WithLogger sets the logger used for command tracing.
func WithLogger(logger *log.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Run executes name with args. Standard output is logged at debug level.
func (r *Runner) Run(ctx context.Context, name string, args ...string) error {
	out, err := r.Output(ctx, name, args...)
	if out != "" {
		r.logger.Debug("command output", "tool", name, "stdout", strings.TrimRight(out, "\n"))
	}
	return err
}

// Output executes name with args and returns its standard output.
func (r *Runner) Output(ctx context.Context, name string, args ...string) (string, error) {
	r.logger.Debug("exec", "cmd", CommandLine(name, args...))

	cmd := r.execCommand(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			// PATH lookups fail with exec.ErrNotFound, explicit paths with ENOENT.
			return "", &ToolNotFoundError{Tool: name, Err: err}
		}
		return stdout.String(), &ToolError{
			Tool:     name,
			Args:     args,
			ExitCode: exitCode,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
	}

	return stdout.String(), nil
}

// CommandLine renders a command as a copy-pasteable shell line.
func CommandLine(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, s := range append([]string{name}, args...) {
		quoted, err := syntax.Quote(s, syntax.LangBash)
		if err != nil {
			quoted = fmt.Sprintf("%q", s)
		}
		parts = append(parts, quoted)
	}
	return strings.Join(parts, " ")
}

// Error returns a description naming the missing tool.
func (e *ToolNotFoundError) Error() string {
	if strings.ContainsRune(e.Tool, '/') || strings.ContainsRune(e.Tool, filepath.Separator) {
		return fmt.Sprintf("%s: executable not found", e.Tool)
	}
	return fmt.Sprintf("%s: executable not found in PATH", e.Tool)
}

// Unwrap returns ErrToolNotFound so callers can use errors.Is.
func (e *ToolNotFoundError) Unwrap() []error {
	return []error{ErrToolNotFound, e.Err}
}

// Error returns the command line, exit code and captured stderr.
func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", CommandLine(e.Tool, e.Args...), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Unwrap returns ErrToolFailed and the underlying exec error.
func (e *ToolError) Unwrap() []error {
	return []error{ErrToolFailed, e.Err}
}
