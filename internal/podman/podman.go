package podman

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pacbox/pacbox/internal/core"
	"github.com/pacbox/pacbox/internal/execx"
)

// Client wraps the podman CLI on the host
type Client struct {
	runner execx.Runner
}

// New creates a podman client
func New(runner execx.Runner) *Client {
	return &Client{runner: runner}
}

// Available reports whether the podman CLI is on PATH
func (c *Client) Available() bool {
	return c.runner.CommandExists("podman")
}

// Version returns the podman version string
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.runner.Run(ctx, "podman", "version", "--format", "{{.Client.Version}}")
	if err != nil {
		return "", fmt.Errorf("podman version: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// ImageExists checks whether an image is present in local storage
func (c *Client) ImageExists(ctx context.Context, image string) bool {
	_, err := c.runner.Run(ctx, "podman", "image", "exists", image)
	return err == nil
}

// Pull pulls an image, streaming progress to the given writer
func (c *Client) Pull(ctx context.Context, image string, progress io.Writer) error {
	if err := c.runner.RunStreaming(ctx, progress, progress, "podman", "pull", image); err != nil {
		return fmt.Errorf("podman pull %s: %w", image, err)
	}
	return nil
}

// State returns the runtime state of a container
func (c *Client) State(ctx context.Context, name string) (core.ContainerState, error) {
	if _, err := c.runner.Run(ctx, "podman", "container", "exists", name); err != nil {
		return core.StateAbsent, nil
	}

	out, err := c.runner.Run(ctx, "podman", "inspect", "--format", "{{.State.Status}}", name)
	if err != nil {
		return core.StateUnknown, fmt.Errorf("podman inspect %s: %w", name, err)
	}

	switch strings.TrimSpace(out) {
	case "running":
		return core.StateRunning, nil
	case "exited", "stopped":
		return core.StateExited, nil
	case "created", "configured":
		return core.StateCreated, nil
	default:
		return core.StateUnknown, nil
	}
}
