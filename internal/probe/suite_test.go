// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"context"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"

	"github.com/lldb-python/wheeledit/internal/testutil"
	"github.com/lldb-python/wheeledit/internal/toolexec"
)

// TestWheelEnv names a wheel for the container suite.
const TestWheelEnv = "EDITWHEEL_TEST_WHEEL"

// hostChecks builds the sample once and runs the probe with the host
// interpreter, skipping when the toolchain or the binding is missing.
func hostChecks(t *testing.T) map[string]Check {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping debugger suite in short mode")
	}
	if _, err := exec.LookPath("cmake"); err != nil {
		t.Skip("skipping debugger suite: cmake not found")
	}
	python, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("skipping debugger suite: python3 not found")
	}
	if err := exec.Command(python, "-c", "import lldb").Run(); err != nil {
		t.Skip("skipping debugger suite: lldb binding not importable")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	p := &HostProbe{Python: python, Runner: toolexec.New(), TempDir: t.TempDir()}
	report, err := p.Probe(ctx, "")
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}

	byName := make(map[string]Check, len(report.Checks))
	for _, c := range report.Checks {
		byName[c.Name] = c
	}
	return byName
}

func TestDebuggerSuite(t *testing.T) {
	checks := hostChecks(t)

	for _, name := range Checks {
		t.Run(name, func(t *testing.T) {
			c, ok := checks[name]
			if !ok {
				t.Fatalf("check %s missing from report", name)
			}
			if !c.Passed {
				t.Errorf("%s failed: %s", name, c.Detail)
			}
		})
	}
}

func TestBuildSample_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if _, err := exec.LookPath("cmake"); err != nil {
		t.Skip("skipping: cmake not found")
	}

	exe, err := BuildSample(context.Background(), toolexec.New(), t.TempDir())
	if err != nil {
		t.Fatalf("BuildSample() error: %v", err)
	}
	info, err := os.Stat(exe)
	if err != nil {
		t.Fatalf("sample not built: %v", err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Errorf("sample %s is not executable", exe)
	}
}

// checkTestcontainersAvailable reports whether a container provider can be
// reached. Provider detection may panic without a daemon.
func checkTestcontainersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

func TestContainerProbe_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	wheelPath := os.Getenv(TestWheelEnv)
	if wheelPath == "" {
		t.Skipf("skipping container suite: %s not set", TestWheelEnv)
	}
	if !checkTestcontainersAvailable() {
		t.Skip("skipping container suite: testcontainers provider not available")
	}

	sem := testutil.ContainerSemaphore()
	sem <- struct{}{}
	defer func() { <-sem }()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	report, err := (&ContainerProbe{}).Probe(ctx, wheelPath)
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	if err := report.Err(); err != nil {
		t.Errorf("report:\n%s", report.Markdown())
	}
}
