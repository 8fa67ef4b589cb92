// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lldb-python/wheeledit/internal/toolexec"
	"github.com/lldb-python/wheeledit/internal/toolexec/toolexectest"
)

func TestHostProbe(t *testing.T) {
	scratch := t.TempDir()
	fake := toolexectest.New().On("python3", toolexectest.Response{Stdout: passingOutput})
	p := &HostProbe{Runner: fake, TempDir: scratch}

	report, err := p.Probe(context.Background(), "")
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	if err := report.Err(); err != nil {
		t.Errorf("report.Err() = %v", err)
	}
	if report.Where != "host python3" {
		t.Errorf("Where = %q", report.Where)
	}

	calls := fake.Calls("python3")
	if len(calls) != 1 {
		t.Fatalf("python3 calls = %v, want 1", calls)
	}
	args := calls[0].Args
	if filepath.Base(args[0]) != ScriptName || filepath.Base(args[1]) != SampleName {
		t.Errorf("python3 args = %v, want probe script and sample", args)
	}

	entries, err := os.ReadDir(scratch)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("scratch directory not cleaned up: %v", entries)
	}
}

func TestHostProbe_InstallsWheel(t *testing.T) {
	fake := toolexectest.New()
	fake.On("python3", toolexectest.Response{})
	p := &HostProbe{Runner: fake, CMake: "/opt/cmake/bin/cmake", TempDir: t.TempDir()}

	// The venv interpreter is not scripted, so every check is missing.
	report, err := p.Probe(context.Background(), "/dist/lldb_python-19.1.0-cp312-cp312-macosx_11_0_arm64.whl")
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	if !errors.Is(report.Err(), ErrProbeFailed) {
		t.Errorf("report.Err() = %v, want ErrProbeFailed", report.Err())
	}

	if n := len(fake.Calls("/opt/cmake/bin/cmake")); n != 2 {
		t.Errorf("configured cmake ran %d times, want 2", n)
	}
	venvCalls := fake.Calls("python3")
	if len(venvCalls) != 1 || venvCalls[0].Args[0] != "-m" || venvCalls[0].Args[1] != "venv" {
		t.Errorf("python3 calls = %v, want one venv creation", venvCalls)
	}

	var pipCall, probeCall bool
	for _, inv := range fake.Invocations {
		if !strings.HasSuffix(inv.Name, filepath.Join("venv", "bin", "python")) {
			continue
		}
		switch {
		case len(inv.Args) > 2 && inv.Args[1] == "pip":
			pipCall = strings.HasSuffix(inv.Args[len(inv.Args)-1], ".whl")
		case filepath.Base(inv.Args[0]) == ScriptName:
			probeCall = true
		}
	}
	if !pipCall || !probeCall {
		t.Errorf("venv interpreter should install the wheel and run the probe: %v", fake.Invocations)
	}
}

func TestHostProbe_ScriptCrash(t *testing.T) {
	fake := toolexectest.New().On("python3", toolexectest.Response{
		Err: &toolexec.ToolError{Tool: "python3", ExitCode: 139, Stderr: "Segmentation fault"},
	})
	p := &HostProbe{Runner: fake, TempDir: t.TempDir()}

	_, err := p.Probe(context.Background(), "")
	if !errors.Is(err, toolexec.ErrToolFailed) {
		t.Fatalf("Probe() error = %v, want ErrToolFailed", err)
	}
}

func TestHostProbe_PartialOutput(t *testing.T) {
	out := `{"name": "create-debugger", "passed": true, "detail": ""}` + "\n"
	fake := toolexectest.New().On("python3", toolexectest.Response{
		Stdout: out,
		Err:    &toolexec.ToolError{Tool: "python3", ExitCode: 1},
	})
	p := &HostProbe{Runner: fake, TempDir: t.TempDir()}

	report, err := p.Probe(context.Background(), "")
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	if n := len(report.Failed()); n != 3 {
		t.Errorf("Failed() = %v, want the three checks that never ran", report.Failed())
	}
}
