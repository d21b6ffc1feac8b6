package pacman

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pacbox/pacbox/internal/security"
)

// Session executes commands inside a named container. *distrobox.Client
// satisfies this; tests supply a mock.
type Session interface {
	Exec(ctx context.Context, name string, cmd ...string) (string, error)
	ExecStreaming(ctx context.Context, name string, stdout, stderr io.Writer, cmd ...string) error
}

// Client runs pacman operations inside a container
type Client struct {
	session   Session
	container string
}

// New creates a pacman client bound to a container
func New(session Session, container string) *Client {
	return &Client{session: session, container: container}
}

// multilibSnippet is appended verbatim to pacman.conf when multilib is enabled
const multilibSnippet = "\n[multilib]\nInclude = /etc/pacman.d/mirrorlist\n"

// Upgrade performs a full system update
func (c *Client) Upgrade(ctx context.Context, progress io.Writer) error {
	err := c.session.ExecStreaming(ctx, c.container, progress, progress,
		"sudo", "pacman", "-Syu", "--noconfirm")
	if err != nil {
		return fmt.Errorf("system update failed: %w", err)
	}
	return nil
}

// Install installs packages with pacman, skipping ones already present
func (c *Client) Install(ctx context.Context, pkgs ...string) error {
	for _, pkg := range pkgs {
		if err := security.ValidatePackageName(pkg); err != nil {
			return err
		}
	}

	args := append([]string{"pacman", "-S", "--noconfirm", "--needed"}, pkgs...)
	if _, err := c.session.Exec(ctx, c.container, append([]string{"sudo"}, args...)...); err != nil {
		return fmt.Errorf("pacman install failed: %w", err)
	}
	return nil
}

// IsInstalled checks if a package is installed
func (c *Client) IsInstalled(ctx context.Context, pkg string) bool {
	_, err := c.session.Exec(ctx, c.container, "pacman", "-Qi", pkg)
	return err == nil
}

// InitKeyring initializes and populates the pacman keyring
func (c *Client) InitKeyring(ctx context.Context) error {
	if _, err := c.session.Exec(ctx, c.container, "sudo", "pacman-key", "--init"); err != nil {
		return fmt.Errorf("pacman-key --init: %w", err)
	}
	if _, err := c.session.Exec(ctx, c.container, "sudo", "pacman-key", "--populate", "archlinux"); err != nil {
		return fmt.Errorf("pacman-key --populate: %w", err)
	}
	return nil
}

// MultilibEnabled checks whether the multilib repository is active
func (c *Client) MultilibEnabled(ctx context.Context) bool {
	out, err := c.session.Exec(ctx, c.container, "pacman-conf", "--repo-list")
	if err != nil {
		return false
	}
	for _, repo := range strings.Split(out, "\n") {
		if strings.TrimSpace(repo) == "multilib" {
			return true
		}
	}
	return false
}

// EnableMultilib appends the multilib repository to pacman.conf and refreshes
// the databases. No-op when the repository is already active.
func (c *Client) EnableMultilib(ctx context.Context) error {
	if c.MultilibEnabled(ctx) {
		return nil
	}

	// The snippet is a constant, never interpolated.
	script := fmt.Sprintf("printf '%%s' %q >> /etc/pacman.conf", multilibSnippet)
	if _, err := c.session.Exec(ctx, c.container, "sudo", "bash", "-c", script); err != nil {
		return fmt.Errorf("enable multilib: %w", err)
	}

	if _, err := c.session.Exec(ctx, c.container, "sudo", "pacman", "-Sy", "--noconfirm"); err != nil {
		return fmt.Errorf("refresh databases after multilib: %w", err)
	}
	return nil
}

// ConfigureSudo installs a passwordless sudoers drop-in for the given user
func (c *Client) ConfigureSudo(ctx context.Context, user string) error {
	if err := security.ValidateCommandArg(user); err != nil {
		return fmt.Errorf("invalid username: %w", err)
	}

	rule := fmt.Sprintf("%s ALL=(ALL) NOPASSWD: ALL", user)
	script := fmt.Sprintf("printf '%%s\\n' %q > /etc/sudoers.d/99-%s && chmod 440 /etc/sudoers.d/99-%s", rule, user, user)
	if _, err := c.session.Exec(ctx, c.container, "sudo", "bash", "-c", script); err != nil {
		return fmt.Errorf("configure sudo for %s: %w", user, err)
	}
	return nil
}

// OptimizeMirrors ranks the fastest mirrors with reflector
func (c *Client) OptimizeMirrors(ctx context.Context, progress io.Writer) error {
	if !c.IsInstalled(ctx, "reflector") {
		if err := c.Install(ctx, "reflector"); err != nil {
			return fmt.Errorf("install reflector: %w", err)
		}
	}

	err := c.session.ExecStreaming(ctx, c.container, progress, progress,
		"sudo", "reflector",
		"--latest", "20",
		"--protocol", "https",
		"--sort", "rate",
		"--save", "/etc/pacman.d/mirrorlist")
	if err != nil {
		return fmt.Errorf("reflector failed: %w", err)
	}
	return nil
}
