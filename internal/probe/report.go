// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrProbeFailed is returned by Report.Err when a check did not pass.
var ErrProbeFailed = errors.New("debugger smoke test failed")

// Checks lists the check names the probe script reports, in run order.
var Checks = []string{"create-debugger", "create-target", "launch", "breakpoint"}

type (
	// Check is the outcome of a single probe check.
	Check struct {
		Name   string `json:"name"`
		Passed bool   `json:"passed"`
		Detail string `json:"detail"`
	}

	// Report collects the checks of one probe run.
	Report struct {
		// Where describes the environment, e.g. "host python3" or an image.
		Where  string
		Checks []Check
	}
)

// ParseChecks reads the JSON lines printed by the probe script. Lines that
// are not JSON objects (debugger chatter on a merged stream) are skipped.
func ParseChecks(r io.Reader) ([]Check, error) {
	var checks []Check
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var c Check
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			return checks, fmt.Errorf("invalid probe output %q: %w", line, err)
		}
		checks = append(checks, c)
	}
	return checks, scanner.Err()
}

// newReport builds a report from parsed checks. Expected checks missing from
// the output are recorded as failed.
func newReport(where string, checks []Check) *Report {
	seen := make(map[string]bool, len(checks))
	for _, c := range checks {
		seen[c.Name] = true
	}
	for _, name := range Checks {
		if !seen[name] {
			checks = append(checks, Check{Name: name, Detail: "not run"})
		}
	}
	return &Report{Where: where, Checks: checks}
}

// Failed returns the checks that did not pass.
func (r *Report) Failed() []Check {
	var failed []Check
	for _, c := range r.Checks {
		if !c.Passed {
			failed = append(failed, c)
		}
	}
	return failed
}

// Err returns nil when every check passed.
func (r *Report) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	names := make([]string, 0, len(failed))
	for _, c := range failed {
		names = append(names, c.Name)
	}
	return fmt.Errorf("%w: %s", ErrProbeFailed, strings.Join(names, ", "))
}

// Markdown renders the report as a Markdown table.
func (r *Report) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Debugger smoke test\n\nEnvironment: `%s`\n\n", r.Where)
	sb.WriteString("| Check | Result | Detail |\n|---|---|---|\n")
	for _, c := range r.Checks {
		result := "pass"
		if !c.Passed {
			result = "**FAIL**"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", c.Name, result, escapeCell(c.Detail))
	}
	return sb.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
