// SPDX-License-Identifier: MPL-2.0

// Package wheeltest builds small wheel archives for tests and inspects the
// archives produced by the code under test.
//
// It writes zip files directly instead of going through package wheel so
// that tests of the wheel package itself can use it.
package wheeltest
