// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the file or tool involved and
// remediation hints. The issue catalog holds Markdown guidance for each failure
// class the CLI can report, rendered with glamour.
package issue
