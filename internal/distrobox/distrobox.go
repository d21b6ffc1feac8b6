package distrobox

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pacbox/pacbox/internal/execx"
)

// Client wraps the distrobox CLI on the host
type Client struct {
	runner execx.Runner
	logger *zerolog.Logger
}

// New creates a distrobox client
func New(runner execx.Runner, logger *zerolog.Logger) *Client {
	return &Client{runner: runner, logger: logger}
}

// Available reports whether the distrobox CLI is on PATH
func (c *Client) Available() bool {
	return c.runner.CommandExists("distrobox")
}

// Version returns the installed distrobox version string
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.runner.Run(ctx, "distrobox", "version")
	if err != nil {
		return "", fmt.Errorf("distrobox version: %w", err)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "distrobox:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "distrobox:")), nil
		}
	}
	return strings.TrimSpace(out), nil
}

// Exists checks whether a container with the given name is registered.
// distrobox list prints pipe-separated columns: ID | NAME | STATUS | IMAGE.
func (c *Client) Exists(ctx context.Context, name string) (bool, error) {
	out, err := c.runner.Run(ctx, "distrobox", "list", "--no-color")
	if err != nil {
		return false, fmt.Errorf("distrobox list: %w", err)
	}

	for _, line := range strings.Split(out, "\n")[1:] {
		fields := strings.Split(line, "|")
		if len(fields) < 2 {
			continue
		}
		if strings.TrimSpace(fields[1]) == name {
			return true, nil
		}
	}

	return false, nil
}

// Create creates a new container from an image. Idempotency is the caller's
// concern: call Exists first.
func (c *Client) Create(ctx context.Context, name, image string, extraFlags ...string) error {
	args := []string{"create", "--name", name, "--image", image, "--yes"}
	args = append(args, extraFlags...)

	c.logger.Info().Str("container", name).Str("image", image).Msg("creating container")

	if _, err := c.runner.Run(ctx, "distrobox", args...); err != nil {
		return fmt.Errorf("distrobox create %s: %w", name, err)
	}
	return nil
}

// Remove force-removes a container
func (c *Client) Remove(ctx context.Context, name string) error {
	c.logger.Info().Str("container", name).Msg("removing container")

	if _, err := c.runner.Run(ctx, "distrobox", "rm", "--force", name); err != nil {
		return fmt.Errorf("distrobox rm %s: %w", name, err)
	}
	return nil
}

// Exec runs a command inside the container and returns stdout
func (c *Client) Exec(ctx context.Context, name string, cmd ...string) (string, error) {
	args := append([]string{"enter", name, "--"}, cmd...)
	return c.runner.Run(ctx, "distrobox", args...)
}

// ExecStreaming runs a command inside the container, streaming output
func (c *Client) ExecStreaming(ctx context.Context, name string, stdout, stderr io.Writer, cmd ...string) error {
	args := append([]string{"enter", name, "--"}, cmd...)
	return c.runner.RunStreaming(ctx, stdout, stderr, "distrobox", args...)
}

// WaitReady polls the container with a fixed interval until a trivial command
// succeeds inside it, or attempts are exhausted, or ctx is cancelled.
func (c *Client) WaitReady(ctx context.Context, name string, attempts int, interval time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 1; i <= attempts; i++ {
		if _, err := c.Exec(ctx, name, "true"); err == nil {
			c.logger.Debug().Str("container", name).Int("attempt", i).Msg("container ready")
			return nil
		}

		c.logger.Debug().Str("container", name).Int("attempt", i).Msg("container not ready yet")

		if i == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for container %s: %w", name, ctx.Err())
		case <-ticker.C:
		}
	}

	return fmt.Errorf("container %s not ready after %d attempts", name, attempts)
}

// ExportApp exports a GUI application from the container to the host menu
// via distrobox-export, run from inside the container.
func (c *Client) ExportApp(ctx context.Context, name, app, exportPath string) error {
	args := []string{"distrobox-export", "--app", app}
	if exportPath != "" {
		args = append(args, "--export-path", exportPath)
	}

	if _, err := c.Exec(ctx, name, args...); err != nil {
		return fmt.Errorf("export %s from %s: %w", app, name, err)
	}
	return nil
}

// UnexportApp removes an exported application
func (c *Client) UnexportApp(ctx context.Context, name, app string) error {
	if _, err := c.Exec(ctx, name, "distrobox-export", "--app", app, "--delete"); err != nil {
		return fmt.Errorf("unexport %s from %s: %w", app, name, err)
	}
	return nil
}
