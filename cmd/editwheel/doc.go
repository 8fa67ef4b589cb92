// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for edit-wheel.
//
// Each command resolves the wheel, applies a recipe from internal/recipe and
// repacks the result. Failures are mapped to entries of the issue catalog and
// surface as ExitError so main can choose the process exit status.
package cmd
