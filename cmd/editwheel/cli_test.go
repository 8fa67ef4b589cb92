// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/lldb-python/wheeledit/internal/wheel"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"edit-wheel": Execute,
	})
}

// TestCLI runs the testscript scenarios in testdata against the in-process
// edit-wheel command.
func TestCLI(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			home := filepath.Join(env.WorkDir, "home")
			env.Setenv("HOME", home)
			env.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
			env.Setenv("APPDATA", filepath.Join(home, "AppData"))
			env.Setenv(wheel.SourceDateEpochEnv, "1700000000")
			return nil
		},
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			"pack-wheel": cmdPackWheel,
			"wheel-list": cmdWheelList,
			"wheel-cat":  cmdWheelCat,
		},
		ContinueOnError: true,
	})
}

// cmdPackWheel packs an unpacked wheel tree: pack-wheel <tree> <dest-dir>.
func cmdPackWheel(ts *testscript.TestScript, neg bool, args []string) {
	if len(args) != 2 {
		ts.Fatalf("usage: pack-wheel <tree> <dest-dir>")
	}
	dest := ts.MkAbs(args[1])
	ts.Check(os.MkdirAll(dest, 0o755))

	out, err := wheel.Pack(context.Background(), ts.MkAbs(args[0]), dest)
	if neg {
		if err == nil {
			ts.Fatalf("pack-wheel unexpectedly succeeded")
		}
		return
	}
	ts.Check(err)
	ts.Logf("packed %s", out)
}

// cmdWheelList prints the member names of a wheel: wheel-list <wheel>.
func cmdWheelList(ts *testscript.TestScript, neg bool, args []string) {
	if neg || len(args) != 1 {
		ts.Fatalf("usage: wheel-list <wheel>")
	}
	zr, err := zip.OpenReader(ts.MkAbs(args[0]))
	ts.Check(err)
	defer func() { _ = zr.Close() }()

	for _, f := range zr.File {
		_, _ = fmt.Fprintf(ts.Stdout(), "%s %o\n", f.Name, f.Mode().Perm())
	}
}

// cmdWheelCat prints one member of a wheel: wheel-cat <wheel> <member>.
func cmdWheelCat(ts *testscript.TestScript, neg bool, args []string) {
	if neg || len(args) != 2 {
		ts.Fatalf("usage: wheel-cat <wheel> <member>")
	}
	zr, err := zip.OpenReader(ts.MkAbs(args[0]))
	ts.Check(err)
	defer func() { _ = zr.Close() }()

	for _, f := range zr.File {
		if f.Name != args[1] {
			continue
		}
		rc, err := f.Open()
		ts.Check(err)
		_, err = io.Copy(ts.Stdout(), rc)
		_ = rc.Close()
		ts.Check(err)
		return
	}
	ts.Fatalf("%s has no member %s", args[0], args[1])
}
