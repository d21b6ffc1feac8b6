package flatpak

import (
	"context"
	"fmt"
	"strings"

	"github.com/pacbox/pacbox/internal/execx"
)

// BoxBuddyID is the Flathub application ID of the BoxBuddy container manager
const BoxBuddyID = "io.github.dvlv.boxbuddyrs"

// FlathubURL is the Flathub repository location
const FlathubURL = "https://dl.flathub.org/repo/flathub.flatpakrepo"

// Client wraps the flatpak CLI on the host
type Client struct {
	runner execx.Runner
}

// New creates a flatpak client
func New(runner execx.Runner) *Client {
	return &Client{runner: runner}
}

// Available reports whether the flatpak CLI is on PATH
func (c *Client) Available() bool {
	return c.runner.CommandExists("flatpak")
}

// EnsureFlathub adds the Flathub remote for the current user if missing
func (c *Client) EnsureFlathub(ctx context.Context) error {
	_, err := c.runner.Run(ctx, "flatpak", "remote-add", "--if-not-exists", "--user", "flathub", FlathubURL)
	if err != nil {
		return fmt.Errorf("add flathub remote: %w", err)
	}
	return nil
}

// IsInstalled checks whether an application is installed
func (c *Client) IsInstalled(ctx context.Context, appID string) bool {
	out, err := c.runner.Run(ctx, "flatpak", "list", "--app", "--columns=application")
	if err != nil {
		return false
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == appID {
			return true
		}
	}
	return false
}

// Install installs an application from Flathub for the current user
func (c *Client) Install(ctx context.Context, appID string) error {
	_, err := c.runner.Run(ctx, "flatpak", "install", "--user", "--noninteractive", "flathub", appID)
	if err != nil {
		return fmt.Errorf("flatpak install %s: %w", appID, err)
	}
	return nil
}

// Uninstall removes an application
func (c *Client) Uninstall(ctx context.Context, appID string) error {
	_, err := c.runner.Run(ctx, "flatpak", "uninstall", "--user", "--noninteractive", appID)
	if err != nil {
		return fmt.Errorf("flatpak uninstall %s: %w", appID, err)
	}
	return nil
}
