// SPDX-License-Identifier: MPL-2.0

// Package testutil holds test helpers that fail the test on error instead of
// returning it: environment and working-directory overrides, an isolated
// configuration home, and a limiter for container-backed tests.
package testutil
