// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/lldb-python/wheeledit/internal/toolexec"
)

const (
	// SampleName is the executable target defined in the sample CMakeLists.txt.
	SampleName = "lldb-python-test"

	// ScriptName is the file name of the embedded probe script.
	ScriptName = "probe.py"

	assetsDir = "assets"
)

//go:embed assets
var assets embed.FS

// sampleFiles are the assets that make up the CMake project.
var sampleFiles = []string{"CMakeLists.txt", "main.c"}

// Script returns the embedded probe script.
func Script() []byte {
	data, err := assets.ReadFile(path.Join(assetsDir, ScriptName))
	if err != nil {
		panic(fmt.Sprintf("probe: embedded %s missing: %v", ScriptName, err))
	}
	return data
}

// WriteSample writes the C sample and its CMakeLists.txt into dir.
func WriteSample(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create sample directory: %w", err)
	}
	for _, name := range sampleFiles {
		data, err := fs.ReadFile(assets, path.Join(assetsDir, name))
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}

// WriteScript writes the probe script into dir and returns its path.
func WriteScript(dir string) (string, error) {
	p := filepath.Join(dir, ScriptName)
	if err := os.WriteFile(p, Script(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", ScriptName, err)
	}
	return p, nil
}

// CompileSample configures and builds the sample in srcDir with cmake and
// returns the path of the executable. srcDir and buildDir are passed to the
// runner verbatim, so they may name paths inside a container.
func CompileSample(ctx context.Context, runner toolexec.Commander, cmake, srcDir, buildDir string) (string, error) {
	if cmake == "" {
		cmake = "cmake"
	}
	if err := runner.Run(ctx, cmake, "-S", srcDir, "-B", buildDir, "-DCMAKE_BUILD_TYPE=Debug"); err != nil {
		return "", fmt.Errorf("configuring sample: %w", err)
	}
	if err := runner.Run(ctx, cmake, "--build", buildDir); err != nil {
		return "", fmt.Errorf("building sample: %w", err)
	}
	return path.Join(buildDir, SampleName), nil
}

// BuildSample writes the sample to workDir/src and builds it in
// workDir/build.
func BuildSample(ctx context.Context, runner toolexec.Commander, workDir string) (string, error) {
	src := filepath.Join(workDir, "src")
	if err := WriteSample(src); err != nil {
		return "", err
	}
	exe, err := CompileSample(ctx, runner, "cmake", filepath.ToSlash(src), filepath.ToSlash(filepath.Join(workDir, "build")))
	if err != nil {
		return "", err
	}
	return filepath.FromSlash(exe), nil
}
