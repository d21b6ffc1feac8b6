package execx

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// DryRunner wraps a real Runner and suppresses every mutating command,
// logging what would have run instead. PATH lookups still go through the
// real runner so pre-flight checks stay meaningful. Recognized existence
// probes answer the way a fresh host would: absent at first, present once
// the command that would install the target has been announced. Skip-if-
// present checks therefore never hide a step from the transcript.
type DryRunner struct {
	real   Runner
	logger *zerolog.Logger

	mu        sync.Mutex
	announced []string
}

// NewDryRunner creates a DryRunner delegating lookups to real
func NewDryRunner(real Runner, logger *zerolog.Logger) *DryRunner {
	return &DryRunner{real: real, logger: logger}
}

// CommandExists delegates to the real runner
func (d *DryRunner) CommandExists(name string) bool {
	return d.real.CommandExists(name)
}

// RequireCommand delegates to the real runner
func (d *DryRunner) RequireCommand(name string) error {
	return d.real.RequireCommand(name)
}

// Run logs the command instead of executing it. Existence probes are
// answered from the announced history rather than logged.
func (d *DryRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	full := joinCommand(name, args)
	if target, ok := probeTarget(full); ok {
		return "", d.probeResult(target)
	}
	d.announce(full)
	return "", nil
}

// RunWithOutput logs the command instead of executing it
func (d *DryRunner) RunWithOutput(ctx context.Context, name string, args ...string) (string, string, error) {
	full := joinCommand(name, args)
	if target, ok := probeTarget(full); ok {
		return "", "", d.probeResult(target)
	}
	d.announce(full)
	return "", "", nil
}

// RunStreaming logs the command instead of executing it
func (d *DryRunner) RunStreaming(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error {
	d.announce(joinCommand(name, args))
	return nil
}

// ExitCode delegates to the real runner
func (d *DryRunner) ExitCode(err error) int {
	return d.real.ExitCode(err)
}

// Announced returns a copy of the commands logged so far
func (d *DryRunner) Announced() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.announced))
	copy(out, d.announced)
	return out
}

func (d *DryRunner) announce(full string) {
	d.mu.Lock()
	d.announced = append(d.announced, full)
	d.mu.Unlock()

	if d.logger != nil {
		d.logger.Info().
			Str("command", full).
			Msg("dry-run: would execute")
	}
}

// probeResult reports the target absent until an announced command mentions
// it, which is when the real run would have installed it
func (d *DryRunner) probeResult(target string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, cmd := range d.announced {
		if strings.Contains(cmd, target) {
			return nil
		}
	}
	return fmt.Errorf("dry run: %s not present", target)
}

// probeTarget recognizes read-only existence checks and extracts what they
// are checking for
func probeTarget(full string) (string, bool) {
	switch {
	case strings.Contains(full, "yay --version"):
		return "yay", true
	case strings.Contains(full, "pacman -Qi "):
		fields := strings.Fields(full)
		return fields[len(fields)-1], true
	case strings.HasPrefix(full, "podman image exists "):
		fields := strings.Fields(full)
		return fields[len(fields)-1], true
	}
	return "", false
}

func joinCommand(name string, args []string) string {
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}
