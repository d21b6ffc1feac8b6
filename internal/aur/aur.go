package aur

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/pacbox/pacbox/internal/pacman"
	"github.com/pacbox/pacbox/internal/security"
)

// yayRepo is the AUR package providing a prebuilt yay binary, so the
// bootstrap does not depend on a working Go toolchain inside the container.
const yayRepo = "https://aur.archlinux.org/yay-bin.git"

// Client bootstraps and drives an AUR helper inside a container
type Client struct {
	session   pacman.Session
	pm        *pacman.Client
	container string
	logger    *zerolog.Logger
}

// New creates an AUR client bound to a container
func New(session pacman.Session, pm *pacman.Client, container string, logger *zerolog.Logger) *Client {
	return &Client{session: session, pm: pm, container: container, logger: logger}
}

// HelperInstalled checks whether yay is available in the container
func (c *Client) HelperInstalled(ctx context.Context) bool {
	_, err := c.session.Exec(ctx, c.container, "yay", "--version")
	return err == nil
}

// EnsureHelper bootstraps yay from the AUR when missing: install the build
// prerequisites with pacman, clone yay-bin, makepkg -si.
func (c *Client) EnsureHelper(ctx context.Context, progress io.Writer) error {
	if c.HelperInstalled(ctx) {
		c.logger.Debug().Str("container", c.container).Msg("yay already installed")
		return nil
	}

	if err := c.pm.Install(ctx, "base-devel", "git"); err != nil {
		return fmt.Errorf("install build prerequisites: %w", err)
	}

	buildDir := "/tmp/pacbox-yay-build"
	if _, err := c.session.Exec(ctx, c.container, "rm", "-rf", buildDir); err != nil {
		return fmt.Errorf("clean build dir: %w", err)
	}
	if _, err := c.session.Exec(ctx, c.container, "git", "clone", yayRepo, buildDir); err != nil {
		return fmt.Errorf("clone yay-bin: %w", err)
	}

	// makepkg refuses to run as root and has no --directory flag
	script := fmt.Sprintf("cd %s && makepkg -si --noconfirm", buildDir)
	err := c.session.ExecStreaming(ctx, c.container, progress, progress, "bash", "-c", script)
	if err != nil {
		return fmt.Errorf("makepkg failed: %w", err)
	}

	if _, err := c.session.Exec(ctx, c.container, "rm", "-rf", buildDir); err != nil {
		c.logger.Debug().Err(err).Str("container", c.container).Msg("build dir cleanup failed")
	}

	if !c.HelperInstalled(ctx) {
		return fmt.Errorf("yay still missing after bootstrap")
	}
	return nil
}

// Install installs packages via yay, resolving AUR and repo dependencies
func (c *Client) Install(ctx context.Context, progress io.Writer, pkgs ...string) error {
	for _, pkg := range pkgs {
		if err := security.ValidatePackageName(pkg); err != nil {
			return err
		}
	}

	args := append([]string{"yay", "-S", "--noconfirm", "--needed"}, pkgs...)
	if err := c.session.ExecStreaming(ctx, c.container, progress, progress, args...); err != nil {
		return fmt.Errorf("yay install failed: %w", err)
	}
	return nil
}

// InstallPamac installs the Pamac GUI package manager from the AUR
func (c *Client) InstallPamac(ctx context.Context, progress io.Writer) error {
	if c.pm.IsInstalled(ctx, "pamac-aur") {
		c.logger.Debug().Str("container", c.container).Msg("pamac already installed")
		return nil
	}
	return c.Install(ctx, progress, "pamac-aur")
}

// Update refreshes AUR and repo packages alike
func (c *Client) Update(ctx context.Context, progress io.Writer) error {
	if err := c.session.ExecStreaming(ctx, c.container, progress, progress,
		"yay", "-Syu", "--noconfirm"); err != nil {
		return fmt.Errorf("yay update failed: %w", err)
	}
	return nil
}
