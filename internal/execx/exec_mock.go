package execx

import (
	"context"
	"io"
	"strings"
	"sync"
)

// MockRunner is a mock implementation of Runner for testing.
// Every executed command is appended to Calls for assertions.
type MockRunner struct {
	CommandExistsFunc  func(name string) bool
	RequireCommandFunc func(name string) error
	RunFunc            func(ctx context.Context, name string, args ...string) (string, error)
	RunWithOutputFunc  func(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
	RunStreamingFunc   func(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error
	ExitCodeFunc       func(err error) int

	mu    sync.Mutex
	calls []string
}

// CommandExists implements Runner.CommandExists
func (m *MockRunner) CommandExists(name string) bool {
	if m.CommandExistsFunc != nil {
		return m.CommandExistsFunc(name)
	}
	return true
}

// RequireCommand implements Runner.RequireCommand
func (m *MockRunner) RequireCommand(name string) error {
	if m.RequireCommandFunc != nil {
		return m.RequireCommandFunc(name)
	}
	return nil
}

// Run implements Runner.Run
func (m *MockRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	m.record(name, args)
	if m.RunFunc != nil {
		return m.RunFunc(ctx, name, args...)
	}
	return "", nil
}

// RunWithOutput implements Runner.RunWithOutput
func (m *MockRunner) RunWithOutput(ctx context.Context, name string, args ...string) (string, string, error) {
	m.record(name, args)
	if m.RunWithOutputFunc != nil {
		return m.RunWithOutputFunc(ctx, name, args...)
	}
	return "", "", nil
}

// RunStreaming implements Runner.RunStreaming
func (m *MockRunner) RunStreaming(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error {
	m.record(name, args)
	if m.RunStreamingFunc != nil {
		return m.RunStreamingFunc(ctx, stdout, stderr, name, args...)
	}
	return nil
}

// ExitCode implements Runner.ExitCode
func (m *MockRunner) ExitCode(err error) int {
	if m.ExitCodeFunc != nil {
		return m.ExitCodeFunc(err)
	}
	if err == nil {
		return 0
	}
	return 1
}

// Calls returns the commands executed so far, one "name arg arg" string each
func (m *MockRunner) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CalledWith reports whether any recorded command contains substr
func (m *MockRunner) CalledWith(substr string) bool {
	for _, c := range m.Calls() {
		if strings.Contains(c, substr) {
			return true
		}
	}
	return false
}

func (m *MockRunner) record(name string, args []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
}
