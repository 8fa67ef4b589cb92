// SPDX-License-Identifier: MPL-2.0

// Package toolexectest provides a scripted toolexec.Commander for tests.
package toolexectest

import (
	"context"
	"strings"
	"sync"

	"github.com/lldb-python/wheeledit/internal/toolexec"
)

type (
	// Invocation records one call made through the fake.
	Invocation struct {
		Name string
		Args []string
	}

	// Response is the scripted result for a command.
	Response struct {
		Stdout string
		Err    error
		// Do runs before the response is returned, e.g. to create files a
		// real tool would have produced.
		Do func(args []string) error
	}

	// Fake is a toolexec.Commander that returns scripted responses keyed by
	// tool name. Unscripted tools succeed with empty output.
	Fake struct {
		mu          sync.Mutex
		responses   map[string]Response
		Invocations []Invocation
	}
)

var _ toolexec.Commander = (*Fake)(nil)

// New creates an empty Fake.
func New() *Fake {
	return &Fake{responses: make(map[string]Response)}
}

// On scripts the response for every call to name.
func (f *Fake) On(name string, resp Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[name] = resp
	return f
}

// Run implements toolexec.Commander.
func (f *Fake) Run(ctx context.Context, name string, args ...string) error {
	_, err := f.Output(ctx, name, args...)
	return err
}

// Output implements toolexec.Commander.
func (f *Fake) Output(_ context.Context, name string, args ...string) (string, error) {
	f.mu.Lock()
	f.Invocations = append(f.Invocations, Invocation{Name: name, Args: append([]string(nil), args...)})
	resp := f.responses[name]
	f.mu.Unlock()

	if resp.Do != nil {
		if err := resp.Do(args); err != nil {
			return "", err
		}
	}
	return resp.Stdout, resp.Err
}

// Calls returns the invocations of name, in call order.
func (f *Fake) Calls(name string) []Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()

	var calls []Invocation
	for _, inv := range f.Invocations {
		if inv.Name == name {
			calls = append(calls, inv)
		}
	}
	return calls
}

// String renders an invocation as a command line, for test failure messages.
func (i Invocation) String() string {
	return toolexec.CommandLine(i.Name, i.Args...)
}

// Lines joins lines with newlines, a convenience for scripting tool output.
func Lines(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}
