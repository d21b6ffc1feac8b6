package provision

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/pacbox/pacbox/internal/config"
	"github.com/pacbox/pacbox/internal/core"
	"github.com/pacbox/pacbox/internal/distrobox"
	"github.com/pacbox/pacbox/internal/execx"
	"github.com/pacbox/pacbox/internal/fsops"
	"github.com/pacbox/pacbox/internal/paths"
)

// Uninstaller reverses a provisioned setup: exported launchers, the CLI
// wrapper, and optionally the container itself.
type Uninstaller struct {
	cfg      *config.Config
	runner   execx.Runner
	fs       afero.Fs
	resolver *paths.Resolver
	box      *distrobox.Client
	logger   *zerolog.Logger
}

// NewUninstaller creates an Uninstaller
func NewUninstaller(cfg *config.Config, runner execx.Runner, fs afero.Fs, logger *zerolog.Logger) *Uninstaller {
	return &Uninstaller{
		cfg:      cfg,
		runner:   runner,
		fs:       fs,
		resolver: paths.NewResolver(cfg),
		box:      distrobox.New(runner, logger),
		logger:   logger,
	}
}

// Result describes what an uninstall run removed
type Result struct {
	DesktopFiles     []string
	WrapperRemoved   bool
	ContainerRemoved bool
}

// Run removes everything pacbox set up for the named container. Launcher
// cleanup only matches the <app>-<name>.desktop suffix, so unrelated desktop
// files survive. Individual failures are logged and do not stop the rest of
// the teardown.
func (u *Uninstaller) Run(ctx context.Context, name string, opts core.UninstallOptions) (*Result, error) {
	res := &Result{}

	removed, err := fsops.RemoveMatching(u.fs, u.resolver.AppsDir(), "-"+name+".desktop")
	if err != nil {
		u.logger.Warn().Err(err).Msg("launcher cleanup incomplete")
	}
	res.DesktopFiles = removed

	wrapper := u.resolver.WrapperScript(name)
	if fsops.Exists(u.fs, wrapper) {
		if err := u.fs.Remove(wrapper); err != nil {
			u.logger.Warn().Err(err).Str("path", wrapper).Msg("failed to remove wrapper")
		} else {
			res.WrapperRemoved = true
		}
	}

	if !opts.KeepContainer {
		exists, err := u.box.Exists(ctx, name)
		if err != nil {
			return res, fmt.Errorf("check container: %w", err)
		}
		if exists {
			if err := u.box.Remove(ctx, name); err != nil {
				return res, err
			}
			res.ContainerRemoved = true
		}
	}

	cacheDir := u.resolver.BuildCacheDir(name)
	if fsops.Exists(u.fs, cacheDir) {
		if err := u.fs.RemoveAll(cacheDir); err != nil && !os.IsNotExist(err) {
			u.logger.Warn().Err(err).Str("path", cacheDir).Msg("failed to remove build cache")
		}
	}

	u.refreshDesktopDatabase(ctx)
	return res, nil
}

func (u *Uninstaller) refreshDesktopDatabase(ctx context.Context) {
	if !u.runner.CommandExists("update-desktop-database") {
		return
	}
	if _, err := u.runner.Run(ctx, "update-desktop-database", u.resolver.AppsDir()); err != nil {
		u.logger.Warn().Err(err).Msg("update-desktop-database failed")
	}
}
