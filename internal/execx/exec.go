package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// Runner defines an interface for executing host commands.
// This allows for mocking in tests and dependency injection.
type Runner interface {
	// CommandExists checks if a command is available in PATH
	CommandExists(name string) bool

	// RequireCommand ensures a command exists or returns error
	RequireCommand(name string) error

	// Run executes a command and returns stdout
	Run(ctx context.Context, name string, args ...string) (string, error)

	// RunWithOutput runs a command and returns both stdout and stderr
	RunWithOutput(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)

	// RunStreaming executes a command and streams output to the provided
	// writers. Pass nil to discard a stream.
	RunStreaming(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error

	// ExitCode extracts the exit code from a command error
	ExitCode(err error) int
}

// OSRunner is the default implementation using os/exec
type OSRunner struct {
	lookupCache sync.Map // map[string]bool
}

// NewOSRunner creates a new OSRunner instance
func NewOSRunner() *OSRunner {
	return &OSRunner{}
}

// CommandExists checks if a command is available in PATH
func (r *OSRunner) CommandExists(name string) bool {
	if cached, ok := r.lookupCache.Load(name); ok {
		if exists, ok := cached.(bool); ok {
			return exists
		}
		r.lookupCache.Delete(name)
	}

	_, err := exec.LookPath(name)
	exists := err == nil
	r.lookupCache.Store(name, exists)
	return exists
}

// RequireCommand ensures a command exists or returns error
func (r *OSRunner) RequireCommand(name string) error {
	if !r.CommandExists(name) {
		return fmt.Errorf("required command %q not found in PATH", name)
	}
	return nil
}

// Run executes a command and returns stdout.
// Arguments are passed separately, never through a shell.
func (r *OSRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("command %q failed: %w\nstderr: %s", name, err, stderr.String())
	}

	return stdout.String(), nil
}

// RunWithOutput runs a command and returns both stdout and stderr
func (r *OSRunner) RunWithOutput(ctx context.Context, name string, args ...string) (stdout, stderr string, err error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err = cmd.Run()
	stdout = outBuf.String()
	stderr = errBuf.String()

	if err != nil {
		err = fmt.Errorf("command %q failed: %w", name, err)
	}

	return stdout, stderr, err
}

// RunStreaming executes a command and streams output to provided writers.
// This avoids buffering large outputs such as full pacman transactions.
func (r *OSRunner) RunStreaming(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	if stdout != nil {
		cmd.Stdout = stdout
	}
	if stderr != nil {
		cmd.Stderr = stderr
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %q failed: %w", name, err)
	}

	return nil
}

// ExitCode extracts the exit code from a command error
func (r *OSRunner) ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	return -1
}
