// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "unpack wheel"},
			expected: "failed to unpack wheel",
		},
		{
			name: "operation with resource",
			err: &ActionableError{
				Operation: "unpack wheel",
				Resource:  "dist/lldb_python-19.1.0-py3-none-any.whl",
			},
			expected: "failed to unpack wheel: dist/lldb_python-19.1.0-py3-none-any.whl",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "rewrite RECORD",
				Resource:  "lldb_python-19.1.0.dist-info/RECORD",
				Cause:     errors.New("permission denied"),
			},
			expected: "failed to rewrite RECORD: lldb_python-19.1.0.dist-info/RECORD: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := NewErrorContext().
		WithOperation("patch load paths").
		WithResource("_lldb.so").
		Wrap(sentinel).
		BuildError()

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if NewErrorContext().Wrap(sentinel).BuildError() != nil {
		t.Error("BuildError() without an operation should return nil")
	}
}

func TestActionableError_Format(t *testing.T) {
	inner := errors.New("exit status 1")
	err := NewErrorContext().
		WithOperation("run install_name_tool").
		WithSuggestion("Install the Xcode command line tools").
		WithSuggestion("Re-run with --verbose").
		Wrap(&ActionableError{Operation: "change load path", Cause: inner}).
		Build()

	t.Run("concise", func(t *testing.T) {
		out := err.Format(false)
		if !strings.Contains(out, "  • Install the Xcode command line tools") {
			t.Errorf("Format(false) missing suggestion:\n%s", out)
		}
		if strings.Contains(out, "Error chain:") {
			t.Errorf("Format(false) should not include the error chain:\n%s", out)
		}
	})

	t.Run("verbose", func(t *testing.T) {
		out := err.Format(true)
		if !strings.Contains(out, "Error chain:") {
			t.Fatalf("Format(true) missing error chain:\n%s", out)
		}
		if !strings.Contains(out, "2. exit status 1") {
			t.Errorf("Format(true) should list the innermost cause second:\n%s", out)
		}
	})
}

func TestErrorContext_BuildRequiresOperation(t *testing.T) {
	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want nil", err)
	}
}
