// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/fang"
)

const (
	// ExitFailure is the status for any failed run.
	ExitFailure = 1
	// ExitUsage is the status for invalid flags or arguments.
	ExitUsage = 2
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
// Reported is set once the message has been written to stderr, so the
// top-level error handler stays quiet.
type ExitError struct {
	Code     int
	Err      error
	Reported bool
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// skipReported wraps a fang error handler so errors already printed by the
// command are not printed a second time.
func skipReported(next fang.ErrorHandler) fang.ErrorHandler {
	return func(w io.Writer, styles fang.Styles, err error) {
		var exitErr *ExitError
		if errors.As(err, &exitErr) && exitErr.Reported {
			return
		}
		next(w, styles, err)
	}
}
