// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lldb-python/wheeledit/internal/config"
	"github.com/lldb-python/wheeledit/internal/issue"
	"github.com/lldb-python/wheeledit/internal/linkage"
	"github.com/lldb-python/wheeledit/internal/probe"
	"github.com/lldb-python/wheeledit/internal/recipe"
	"github.com/lldb-python/wheeledit/internal/toolexec"
	"github.com/lldb-python/wheeledit/internal/wheel"
)

// classifyError maps a failure to an issue catalog ID. The zero Id means no
// catalog entry applies.
func classifyError(err error) issue.Id {
	var ae *issue.ActionableError

	switch {
	case errors.Is(err, recipe.ErrNoWheel):
		return issue.WheelNotFoundId
	case errors.Is(err, wheel.ErrNotFound):
		return issue.PatternNotFoundId
	case errors.Is(err, wheel.ErrInvalidWheel), errors.Is(err, wheel.ErrInvalidFilename):
		return issue.InvalidWheelId
	case errors.Is(err, toolexec.ErrToolNotFound):
		return issue.ToolNotFoundId
	case errors.Is(err, toolexec.ErrToolFailed):
		return issue.ToolFailedId
	case errors.Is(err, linkage.ErrUnsupportedFormat):
		return issue.UnsupportedBinaryId
	case errors.Is(err, probe.ErrProbeFailed), errors.Is(err, probe.ErrWheelRequired):
		return issue.ProbeFailedId
	case errors.Is(err, config.ErrInvalidConfig):
		return issue.ConfigLoadFailedId
	case errors.Is(err, os.ErrPermission):
		return issue.PermissionDeniedId
	case errors.As(err, &ae) && ae.Operation == "load configuration":
		return issue.ConfigLoadFailedId
	default:
		return 0
	}
}

// fail renders the catalog entry for err to stderr and returns it as an
// ExitError. Actionable errors and verbose runs also get their error line
// printed here; fang prints it otherwise.
func (inv *invocation) fail(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	cmd.SilenceUsage = true

	w := inv.app.stderr
	if id := classifyError(err); id != 0 {
		if rendered, renderErr := issue.Get(id).Render(inv.glamourStyle()); renderErr == nil {
			fmt.Fprint(w, rendered)
		}
	}

	exitErr := &ExitError{Code: ExitFailure, Err: err}
	var ae *issue.ActionableError
	if inv.verbose() || errors.As(err, &ae) {
		fmt.Fprintf(w, "%s %s\n\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, inv.verbose()))
		exitErr.Reported = true
	}

	return exitErr
}
