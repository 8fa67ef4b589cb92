// SPDX-License-Identifier: MPL-2.0

package linkage

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/lldb-python/wheeledit/internal/testutil/wheeltest"
	"github.com/lldb-python/wheeledit/internal/toolexec/toolexectest"
)

func elfTarget(t *testing.T, bundled ...string) Target {
	t.Helper()
	tree := t.TempDir()
	files := []wheeltest.File{{Path: "lldb/_lldb.so", Body: "elf", Mode: 0o755}}
	for _, name := range bundled {
		files = append(files, wheeltest.File{Path: "lldb_python.libs/" + name})
	}
	wheeltest.WriteTree(t, tree, files...)
	return Target{
		Wheel:   "/dist/lldb_python-19.1.0-cp312-cp312-manylinux_2_28_x86_64.whl",
		Tree:    tree,
		Library: filepath.Join(tree, "lldb", "_lldb.so"),
		Dist:    "lldb_python",
	}
}

func TestELF_Patch(t *testing.T) {
	target := elfTarget(t, "liblldb-3f2a9c1e.so.19.1", "libzstd-0b1c2d3e.so.1", "libc++-77aa88bb.so.1")
	fake := toolexectest.New().On("patchelf", toolexectest.Response{
		Stdout: toolexectest.Lines("liblldb.so.19.1", "libzstd.so.1", "libc.so.6", "libstdc++.so.6"),
	})

	p, err := New(FormatELF, fake, Options{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	changes, err := p.Patch(context.Background(), target)
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}

	want := []Change{
		{Library: target.Library, From: "liblldb.so.19.1", To: "liblldb-3f2a9c1e.so.19.1"},
		{Library: target.Library, From: "libzstd.so.1", To: "libzstd-0b1c2d3e.so.1"},
	}
	if !slices.Equal(changes, want) {
		t.Errorf("Patch() = %+v, want %+v", changes, want)
	}

	calls := fake.Calls("patchelf")
	if len(calls) != 4 {
		t.Fatalf("patchelf called %d times, want 4: %v", len(calls), calls)
	}
	if !slices.Equal(calls[0].Args, []string{"--print-needed", target.Library}) {
		t.Errorf("first call = %v", calls[0])
	}
	if !slices.Equal(calls[1].Args, []string{"--replace-needed", "liblldb.so.19.1", "liblldb-3f2a9c1e.so.19.1", target.Library}) {
		t.Errorf("second call = %v", calls[1])
	}
	if !slices.Equal(calls[3].Args, []string{"--set-rpath", "$ORIGIN/../lldb_python.libs", target.Library}) {
		t.Errorf("last call = %v", calls[3])
	}
}

func TestELF_CustomRPath(t *testing.T) {
	target := elfTarget(t, "liblldb.so.19")
	fake := toolexectest.New().On("patchelf", toolexectest.Response{Stdout: "liblldb.so.19\n"})

	p, err := New(FormatELF, fake, Options{RPath: "$ORIGIN/../lib"})
	if err != nil {
		t.Fatal(err)
	}
	changes, err := p.Patch(context.Background(), target)
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("already bundled entry should not be replaced: %+v", changes)
	}

	calls := fake.Calls("patchelf")
	last := calls[len(calls)-1]
	if !slices.Equal(last.Args, []string{"--set-rpath", "$ORIGIN/../lib", target.Library}) {
		t.Errorf("last call = %v", last)
	}
}

func TestELF_NoBundledDirectory(t *testing.T) {
	target := elfTarget(t)
	fake := toolexectest.New()

	p, err := New(FormatELF, fake, Options{})
	if err != nil {
		t.Fatal(err)
	}
	changes, err := p.Patch(context.Background(), target)
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	if len(changes) != 0 || len(fake.Invocations) != 0 {
		t.Errorf("nothing should run without bundled libraries: changes=%v calls=%v", changes, fake.Invocations)
	}
}

func TestBundledFor(t *testing.T) {
	bundled := []string{"libc++-77aa88bb.so.1", "liblldb-3f2a9c1e.so.19.1", "libz.so.1"}
	tests := []struct {
		needed string
		want   string
		ok     bool
	}{
		{"liblldb.so.19.1", "liblldb-3f2a9c1e.so.19.1", true},
		{"libc.so.6", "", false},
		{"libc++.so.1", "libc++-77aa88bb.so.1", true},
		{"libz.so.1", "libz.so.1", true},
		{"libzstd.so.1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.needed, func(t *testing.T) {
			got, ok := bundledFor(tt.needed, bundled)
			if got != tt.want || ok != tt.ok {
				t.Errorf("bundledFor(%q) = (%q, %v), want (%q, %v)", tt.needed, got, ok, tt.want, tt.ok)
			}
		})
	}
}
