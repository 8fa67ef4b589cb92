// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/lldb-python/wheeledit/internal/testutil/wheeltest"
	"github.com/lldb-python/wheeledit/internal/toolexec/toolexectest"
	"github.com/lldb-python/wheeledit/internal/wheel"
)

const (
	dataPrefix  = "lldb_python-19.1.0.data/data/"
	movedServer = dataPrefix + "lib/python3.12/site-packages/bin/lldb-server"
)

func newTestEditor(t *testing.T) (*Editor, *toolexectest.Fake) {
	t.Helper()
	fake := toolexectest.New()
	return New(fake, WithTempDir(t.TempDir())), fake
}

func TestPreprocess(t *testing.T) {
	fixture := wheeltest.LLDB()
	in := wheeltest.Write(t, t.TempDir(), fixture)
	dest := t.TempDir()
	editor, fake := newTestEditor(t)

	res, err := editor.Preprocess(context.Background(), in, dest, PreprocessOptions{})
	if err != nil {
		t.Fatalf("Preprocess() error: %v", err)
	}
	if len(fake.Invocations) != 0 {
		t.Errorf("Preprocess() should not run external tools, ran %v", fake.Invocations)
	}
	if want := filepath.Join(dest, fixture.Filename()); res.Wheel != want {
		t.Errorf("Wheel = %q, want %q", res.Wheel, want)
	}

	wantRemoved := []string{
		dataPrefix + "lib/liblldb.19.1.0.dylib",
		dataPrefix + "lib/python3.12/site-packages/lldb/liblldb.dylib",
	}
	if !slices.Equal(res.Removed, wantRemoved) {
		t.Errorf("Removed = %v, want %v", res.Removed, wantRemoved)
	}
	if res.Moved != dataPrefix+"lib/python3.12/site-packages/bin" {
		t.Errorf("Moved = %q", res.Moved)
	}

	names := wheeltest.Names(t, res.Wheel)
	for _, name := range names {
		if strings.Contains(name, "liblldb") {
			t.Errorf("archive still contains %s", name)
		}
		if strings.HasPrefix(name, dataPrefix+"bin/") {
			t.Errorf("archive still contains %s", name)
		}
	}
	if !slices.Contains(names, movedServer) {
		t.Fatalf("archive has no %s: %v", movedServer, names)
	}
	if mode := wheeltest.Mode(t, res.Wheel, movedServer); mode != 0o755 {
		t.Errorf("lldb-server mode = %o, want 755", mode)
	}
	if body := wheeltest.ReadFile(t, res.Wheel, movedServer); body != "lldb-server binary" {
		t.Errorf("lldb-server body = %q", body)
	}

	rows := wheeltest.Record(t, res.Wheel, fixture.DistInfo())
	if rows[0][0] != movedServer {
		t.Errorf("first RECORD row = %q, want the server row rewritten in place", rows[0][0])
	}
	for _, row := range rows {
		if strings.Contains(row[0], "liblldb") {
			t.Errorf("RECORD still lists %s", row[0])
		}
	}
}

func TestPreprocess_KeepsInputWheel(t *testing.T) {
	fixture := wheeltest.LLDB()
	dir := t.TempDir()
	in := wheeltest.Write(t, dir, fixture)
	before, err := os.ReadFile(in)
	if err != nil {
		t.Fatal(err)
	}
	editor, _ := newTestEditor(t)

	if _, err := editor.Preprocess(context.Background(), in, filepath.Join(dir, "out"), PreprocessOptions{}); err != nil {
		t.Fatalf("Preprocess() error: %v", err)
	}

	after, err := os.ReadFile(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("input wheel was modified")
	}
}

func TestPreprocess_Idempotent(t *testing.T) {
	fixture := wheeltest.LLDB()
	in := wheeltest.Write(t, t.TempDir(), fixture)
	editor, _ := newTestEditor(t)

	first, err := editor.Preprocess(context.Background(), in, t.TempDir(), PreprocessOptions{})
	if err != nil {
		t.Fatalf("first Preprocess() error: %v", err)
	}
	second, err := editor.Preprocess(context.Background(), first.Wheel, t.TempDir(), PreprocessOptions{})
	if err != nil {
		t.Fatalf("second Preprocess() error: %v", err)
	}

	if len(second.Removed) != 0 {
		t.Errorf("second run removed %v", second.Removed)
	}
	if second.Moved != "" {
		t.Errorf("second run moved %q", second.Moved)
	}
	if a, b := wheeltest.Names(t, first.Wheel), wheeltest.Names(t, second.Wheel); !slices.Equal(a, b) {
		t.Errorf("archive members differ:\n%v\n%v", a, b)
	}
}

func TestPreprocess_RemovesScratch(t *testing.T) {
	in := wheeltest.Write(t, t.TempDir(), wheeltest.LLDB())
	scratch := t.TempDir()
	editor := New(toolexectest.New(), WithTempDir(scratch))

	if _, err := editor.Preprocess(context.Background(), in, t.TempDir(), PreprocessOptions{}); err != nil {
		t.Fatalf("Preprocess() error: %v", err)
	}

	entries, err := os.ReadDir(scratch)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("scratch directory not cleaned up: %v", entries)
	}
}

func TestPreprocess_MissingDataDir(t *testing.T) {
	fixture := wheeltest.Wheel{
		Dist:    "lldb_python",
		Version: "19.1.0",
		Tags:    []string{"cp312-cp312-macosx_11_0_arm64"},
		Files: []wheeltest.File{
			{Path: "lldb/__init__.py", Body: "\n"},
		},
	}
	in := wheeltest.Write(t, t.TempDir(), fixture)
	dest := t.TempDir()
	editor, _ := newTestEditor(t)

	_, err := editor.Preprocess(context.Background(), in, dest, PreprocessOptions{})
	if !errors.Is(err, wheel.ErrNotFound) {
		t.Fatalf("Preprocess() error = %v, want ErrNotFound", err)
	}

	var nf *wheel.NotFoundError
	if !errors.As(err, &nf) || nf.Pattern != "data" {
		t.Errorf("error should name the data pattern, got %v", err)
	}
	entries, _ := os.ReadDir(dest)
	if len(entries) != 0 {
		t.Errorf("no output should be written on failure, found %v", entries)
	}
}

func TestPreprocess_BinCollision(t *testing.T) {
	fixture := wheeltest.LLDB()
	fixture.Files = append(fixture.Files, wheeltest.File{
		Path: dataPrefix + "lib/python3.12/site-packages/bin/other",
		Body: "x",
	})
	in := wheeltest.Write(t, t.TempDir(), fixture)
	editor, _ := newTestEditor(t)

	_, err := editor.Preprocess(context.Background(), in, t.TempDir(), PreprocessOptions{})
	if !errors.Is(err, os.ErrExist) {
		t.Fatalf("Preprocess() error = %v, want ErrExist", err)
	}
}

func TestPreprocess_CreatesDestDir(t *testing.T) {
	in := wheeltest.Write(t, t.TempDir(), wheeltest.LLDB())
	dest := filepath.Join(t.TempDir(), "nested", "dist")
	editor, _ := newTestEditor(t)

	res, err := editor.Preprocess(context.Background(), in, dest, PreprocessOptions{})
	if err != nil {
		t.Fatalf("Preprocess() error: %v", err)
	}
	if filepath.Dir(res.Wheel) != dest {
		t.Errorf("Wheel = %q, want it inside %q", res.Wheel, dest)
	}
}

func TestPreprocess_CustomPatterns(t *testing.T) {
	fixture := wheeltest.LLDB()
	fixture.Files = append(fixture.Files, wheeltest.File{Path: dataPrefix + "lib/libclang-cpp.dylib", Body: "clang"})
	in := wheeltest.Write(t, t.TempDir(), fixture)
	editor, _ := newTestEditor(t)

	res, err := editor.Preprocess(context.Background(), in, t.TempDir(), PreprocessOptions{
		ExtraLibs: []string{"liblldb*", "libclang*"},
	})
	if err != nil {
		t.Fatalf("Preprocess() error: %v", err)
	}
	if !slices.Contains(res.Removed, dataPrefix+"lib/libclang-cpp.dylib") {
		t.Errorf("Removed = %v, want libclang-cpp.dylib", res.Removed)
	}
	for _, row := range wheeltest.Record(t, res.Wheel, fixture.DistInfo()) {
		if strings.Contains(row[0], "libclang") {
			t.Errorf("RECORD still lists %s", row[0])
		}
	}
}
