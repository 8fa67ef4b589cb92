// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/docker/docker/api/types/container"
	"github.com/testcontainers/testcontainers-go"
	tcexec "github.com/testcontainers/testcontainers-go/exec"

	"github.com/lldb-python/wheeledit/internal/toolexec"
)

const (
	// DefaultImage ships a C toolchain next to CPython, which the sample needs.
	DefaultImage = "python:3.12-bookworm"

	containerWorkDir = "/probe"
)

// ErrWheelRequired is returned by ContainerProbe when no wheel is given.
var ErrWheelRequired = errors.New("a wheel is required to probe inside a container")

type (
	// ContainerProbe installs the wheel into a fresh container and runs the
	// checks there. The container gets SYS_PTRACE so the debugger can attach.
	ContainerProbe struct {
		Image  string
		Logger *log.Logger
	}

	// containerRunner runs tools inside a started container. Standard output
	// and standard error are merged.
	containerRunner struct {
		ctr testcontainers.Container
	}
)

var (
	_ Prober             = (*ContainerProbe)(nil)
	_ toolexec.Commander = (*containerRunner)(nil)
)

// Probe implements Prober.
func (p *ContainerProbe) Probe(ctx context.Context, wheelPath string) (_ *Report, err error) {
	if wheelPath == "" {
		return nil, ErrWheelRequired
	}
	logger := p.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	image := p.Image
	if image == "" {
		image = DefaultImage
	}

	wheelAbs, err := filepath.Abs(wheelPath)
	if err != nil {
		return nil, err
	}
	wheelInContainer := path.Join(containerWorkDir, filepath.Base(wheelAbs))

	logger.Info("starting container", "image", image)
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: containerRequest(image, wheelAbs, wheelInContainer),
		Started:          true,
	})
	defer func() {
		if termErr := testcontainers.TerminateContainer(ctr); termErr != nil {
			logger.Warn("failed to terminate container", "err", termErr)
		}
	}()
	if err != nil {
		return nil, fmt.Errorf("starting %s: %w", image, err)
	}

	runner := &containerRunner{ctr: ctr}

	logger.Info("installing wheel", "wheel", filepath.Base(wheelAbs))
	if err := runner.Run(ctx, "python", "-m", "pip", "install", "--quiet", "cmake", wheelInContainer); err != nil {
		return nil, fmt.Errorf("installing %s: %w", filepath.Base(wheelAbs), err)
	}

	logger.Info("building sample")
	exe, err := CompileSample(ctx, runner, "cmake", path.Join(containerWorkDir, "src"), path.Join(containerWorkDir, "build"))
	if err != nil {
		return nil, err
	}

	logger.Info("running probe")
	return runScript(ctx, runner, image, "python", path.Join(containerWorkDir, ScriptName), exe)
}

func containerRequest(image, wheelHost, wheelInContainer string) testcontainers.ContainerRequest {
	files := []testcontainers.ContainerFile{
		{HostFilePath: wheelHost, ContainerFilePath: wheelInContainer, FileMode: 0o644},
		{Reader: bytes.NewReader(Script()), ContainerFilePath: path.Join(containerWorkDir, ScriptName), FileMode: 0o644},
	}
	for _, name := range sampleFiles {
		data, err := assets.ReadFile(path.Join(assetsDir, name))
		if err != nil {
			panic(fmt.Sprintf("probe: embedded %s missing: %v", name, err))
		}
		files = append(files, testcontainers.ContainerFile{
			Reader:            bytes.NewReader(data),
			ContainerFilePath: path.Join(containerWorkDir, "src", name),
			FileMode:          0o644,
		})
	}

	return testcontainers.ContainerRequest{
		Image:      image,
		Entrypoint: []string{"sleep", "infinity"},
		WorkingDir: containerWorkDir,
		Files:      files,
		HostConfigModifier: func(hc *container.HostConfig) {
			hc.CapAdd = append(hc.CapAdd, "SYS_PTRACE")
			hc.SecurityOpt = append(hc.SecurityOpt, "seccomp=unconfined")
		},
	}
}

// Run implements toolexec.Commander.
func (r *containerRunner) Run(ctx context.Context, name string, args ...string) error {
	_, err := r.Output(ctx, name, args...)
	return err
}

// Output implements toolexec.Commander.
func (r *containerRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	code, reader, err := r.ctr.Exec(ctx, append([]string{name}, args...), tcexec.Multiplexed())
	if err != nil {
		return "", fmt.Errorf("exec %s: %w", toolexec.CommandLine(name, args...), err)
	}
	out, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if code != 0 {
		return string(out), &toolexec.ToolError{
			Tool:     name,
			Args:     args,
			ExitCode: code,
			Stderr:   strings.TrimSpace(string(out)),
			Err:      fmt.Errorf("exit status %d", code),
		}
	}
	return string(out), nil
}
