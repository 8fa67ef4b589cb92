// SPDX-License-Identifier: MPL-2.0

// Package toolexec runs the external command-line tools edit-wheel depends on
// (otool, install_name_tool, delocate-listdeps, patchelf, cmake, python).
//
// Every call is synchronous and blocking. A missing executable is reported as
// ToolNotFoundError and a non-zero exit as ToolError carrying the captured
// standard error; both unwrap to sentinel errors for classification.
package toolexec
