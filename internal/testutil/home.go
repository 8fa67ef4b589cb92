// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"runtime"
	"testing"
)

// SetHomeDir points the platform home variable (USERPROFILE on Windows,
// HOME elsewhere) at dir for the rest of the test.
func SetHomeDir(t testing.TB, dir string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		MustSetenv(t, "USERPROFILE", dir)
		return
	}
	MustSetenv(t, "HOME", dir)
}

// SetConfigHome isolates the user configuration directory under a fresh
// temporary home and returns that home. XDG_CONFIG_HOME and APPDATA both
// resolve to <home>/.config so the result is the same on every platform.
func SetConfigHome(t testing.TB) string {
	t.Helper()
	home := t.TempDir()
	SetHomeDir(t, home)
	cfgHome := filepath.Join(home, ".config")
	MustSetenv(t, "XDG_CONFIG_HOME", cfgHome)
	MustSetenv(t, "APPDATA", cfgHome)
	return home
}
