package provision

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/pacbox/pacbox/internal/aur"
	"github.com/pacbox/pacbox/internal/config"
	"github.com/pacbox/pacbox/internal/core"
	"github.com/pacbox/pacbox/internal/desktop"
	"github.com/pacbox/pacbox/internal/distrobox"
	"github.com/pacbox/pacbox/internal/execx"
	"github.com/pacbox/pacbox/internal/flatpak"
	"github.com/pacbox/pacbox/internal/fsops"
	"github.com/pacbox/pacbox/internal/pacman"
	"github.com/pacbox/pacbox/internal/paths"
	"github.com/pacbox/pacbox/internal/podman"
	"github.com/pacbox/pacbox/internal/security"
	"github.com/pacbox/pacbox/internal/transaction"
	"github.com/pacbox/pacbox/internal/ui"
)

// Provisioner runs the idempotent setup sequence for one container.
// Every step checks its precondition first and skips work already done, so
// re-running setup against an existing container is safe.
type Provisioner struct {
	cfg      *config.Config
	opts     core.SetupOptions
	runner   execx.Runner
	fs       afero.Fs
	resolver *paths.Resolver
	logger   *zerolog.Logger

	box *distrobox.Client
	pod *podman.Client
	pm  *pacman.Client
	aur *aur.Client
	fp  *flatpak.Client
	tx  *transaction.Manager

	// createdContainer marks that this run created the container, which is
	// the only case where rollback may remove it.
	createdContainer bool
	record           core.ContainerRecord
}

// New creates a Provisioner. The runner decides between real execution and
// dry-run; the fs decides where host files land (mem fs for dry runs).
func New(cfg *config.Config, opts core.SetupOptions, runner execx.Runner, fs afero.Fs, logger *zerolog.Logger) *Provisioner {
	// lib32 gaming packages need the multilib repository
	if opts.Gaming {
		opts.Multilib = true
	}

	box := distrobox.New(runner, logger)
	pm := pacman.New(box, opts.ContainerName)

	return &Provisioner{
		cfg:      cfg,
		opts:     opts,
		runner:   runner,
		fs:       fs,
		resolver: paths.NewResolver(cfg),
		logger:   logger,
		box:      box,
		pod:      podman.New(runner),
		pm:       pm,
		aur:      aur.New(box, pm, opts.ContainerName, logger),
		fp:       flatpak.New(runner),
		tx:       transaction.NewManager(logger),
	}
}

type step struct {
	name string
	run  func(ctx context.Context) error
}

// Run executes the provisioning sequence. On failure it rolls back the
// resources this run created and returns the original error.
func (p *Provisioner) Run(ctx context.Context) (*core.ContainerRecord, error) {
	if err := security.ValidateContainerName(p.opts.ContainerName); err != nil {
		return nil, err
	}

	steps := []step{
		{"Checking host tools", p.preflight},
		{"Preparing container", p.ensureContainer},
		{"Configuring container", p.configure},
		{"Installing packages", p.installPackages},
	}
	if !p.opts.SkipExport {
		steps = append(steps, step{"Exporting application", p.exportApp})
	}
	if p.opts.BoxBuddy {
		steps = append(steps, step{"Installing BoxBuddy", p.installBoxBuddy})
	}

	p.record = core.ContainerRecord{
		Name:      p.opts.ContainerName,
		Image:     p.opts.Image,
		CreatedAt: time.Now().UTC(),
		Features: core.Features{
			Multilib:        p.opts.Multilib,
			Gaming:          p.opts.Gaming,
			BuildCache:      p.opts.BuildCache,
			OptimizeMirrors: p.opts.OptimizeMirrors,
			BoxBuddy:        p.opts.BoxBuddy,
		},
	}

	for i, s := range steps {
		ui.PrintStep(i+1, len(steps), "%s", s.name)
		p.logger.Info().Str("step", s.name).Msg("starting step")

		if err := s.run(ctx); err != nil {
			p.logger.Error().Err(err).Str("step", s.name).Msg("step failed")
			if rbErr := p.tx.Rollback(); rbErr != nil {
				p.logger.Error().Err(rbErr).Msg("rollback incomplete")
			}
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
	}

	p.tx.Commit()
	return &p.record, nil
}

// preflight verifies the external tools this run depends on
func (p *Provisioner) preflight(ctx context.Context) error {
	for _, tool := range []string{"distrobox", "podman"} {
		if err := p.runner.RequireCommand(tool); err != nil {
			return err
		}
	}

	if p.opts.BoxBuddy && !p.fp.Available() {
		return fmt.Errorf("flatpak is required for BoxBuddy but was not found in PATH")
	}

	return nil
}

// ensureContainer creates (or recreates) the container and waits for it
func (p *Provisioner) ensureContainer(ctx context.Context) error {
	name := p.opts.ContainerName

	exists, err := p.box.Exists(ctx, name)
	if err != nil {
		return err
	}

	if exists && p.opts.ForceRebuild {
		ui.PrintInfo("Removing existing container %s for rebuild", name)
		if err := p.box.Remove(ctx, name); err != nil {
			return err
		}
		exists = false
	}

	if exists {
		ui.PrintInfo("Container %s already exists, reusing it", name)
		p.logger.Info().Str("container", name).Msg("container exists, skipping creation")
	} else {
		if !p.pod.ImageExists(ctx, p.opts.Image) {
			spinner := ui.NewSpinner("Pulling " + p.opts.Image)
			err := p.pod.Pull(ctx, p.opts.Image, spinner)
			spinner.Finish()
			if err != nil {
				return err
			}
		}

		var createFlags []string
		if p.opts.BuildCache {
			cacheDir := p.resolver.BuildCacheDir(name)
			if err := fsops.EnsureDir(p.fs, cacheDir, 0755); err != nil {
				return err
			}
			createFlags = append(createFlags, "--volume", cacheDir+":/var/cache/pacman/pkg")
		}

		if err := p.box.Create(ctx, name, p.opts.Image, createFlags...); err != nil {
			return err
		}

		p.createdContainer = true
		p.tx.Add("container "+name, func() error {
			return p.box.Remove(context.Background(), name)
		})
	}

	interval := time.Duration(p.cfg.Container.WaitInterval) * time.Second
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return p.box.WaitReady(ctx, name, p.cfg.Container.WaitAttempts, interval)
}

// configure sets up sudo, the keyring, and the optional repositories
func (p *Provisioner) configure(ctx context.Context) error {
	user := p.containerUser()

	if err := p.pm.ConfigureSudo(ctx, user); err != nil {
		return err
	}

	if err := p.pm.InitKeyring(ctx); err != nil {
		return err
	}

	if p.opts.Multilib {
		if err := p.pm.EnableMultilib(ctx); err != nil {
			return err
		}
	}

	if p.opts.OptimizeMirrors {
		spinner := ui.NewSpinner("Ranking mirrors")
		err := p.pm.OptimizeMirrors(ctx, spinner)
		spinner.Finish()
		if err != nil {
			// A slow mirror list is not worth failing the whole setup over
			p.logger.Warn().Err(err).Msg("mirror optimization failed, continuing")
			ui.PrintWarning("mirror optimization failed, continuing with defaults")
		}
	}

	return nil
}

// installPackages updates the system, bootstraps yay, and installs Pamac
func (p *Provisioner) installPackages(ctx context.Context) error {
	spinner := ui.NewSpinner("Updating system")
	err := p.pm.Upgrade(ctx, spinner)
	spinner.Finish()
	if err != nil {
		return err
	}

	spinner = ui.NewSpinner("Bootstrapping yay")
	err = p.aur.EnsureHelper(ctx, spinner)
	spinner.Finish()
	if err != nil {
		return err
	}

	spinner = ui.NewSpinner("Installing Pamac")
	err = p.aur.InstallPamac(ctx, spinner)
	spinner.Finish()
	if err != nil {
		return err
	}

	if p.opts.Gaming {
		spinner = ui.NewSpinner("Installing gaming packages")
		err = p.aur.Install(ctx, spinner, core.GamingPackages...)
		spinner.Finish()
		if err != nil {
			return err
		}
	}

	return nil
}

// exportApp registers the Pamac launcher on the host, falling back to a
// manually written desktop file when distrobox-export fails, and installs
// the CLI wrapper script.
func (p *Provisioner) exportApp(ctx context.Context) error {
	name := p.opts.ContainerName
	appsDir := p.resolver.AppsDir()

	if err := fsops.EnsureDir(p.fs, appsDir, 0755); err != nil {
		return err
	}

	for _, app := range core.ExportedApps {
		launcher := p.resolver.DesktopFile(app, name)

		if err := p.box.ExportApp(ctx, name, app, appsDir); err != nil {
			p.logger.Warn().Err(err).Str("app", app).Msg("distrobox-export failed, writing launcher manually")

			entry := desktop.ContainerAppEntry(app, name)
			var buf bytes.Buffer
			if err := desktop.Write(&buf, entry); err != nil {
				return err
			}
			if err := afero.WriteFile(p.fs, launcher, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("write launcher %s: %w", launcher, err)
			}
		}

		p.record.DesktopFiles = append(p.record.DesktopFiles, launcher)
		p.tx.Add("launcher "+launcher, func() error {
			return p.fs.Remove(launcher)
		})
	}

	if err := p.writeWrapper(name); err != nil {
		return err
	}

	p.refreshDesktopDatabase(ctx)
	return nil
}

// writeWrapper installs the pamac CLI wrapper under the user's bin dir
func (p *Provisioner) writeWrapper(name string) error {
	binDir := p.resolver.BinDir()
	if err := fsops.EnsureDir(p.fs, binDir, 0755); err != nil {
		return err
	}

	wrapper := p.resolver.WrapperScript(name)
	script := fmt.Sprintf("#!/bin/sh\nexec distrobox enter %s -- pamac \"$@\"\n", name)

	if err := fsops.WriteExecutable(p.fs, wrapper, []byte(script)); err != nil {
		return err
	}

	p.record.WrapperScript = wrapper
	p.tx.Add("wrapper "+wrapper, func() error {
		return p.fs.Remove(wrapper)
	})
	return nil
}

// refreshDesktopDatabase is best effort: a stale menu cache is a cosmetic
// problem, not a setup failure
func (p *Provisioner) refreshDesktopDatabase(ctx context.Context) {
	if !p.runner.CommandExists("update-desktop-database") {
		return
	}
	if _, err := p.runner.Run(ctx, "update-desktop-database", p.resolver.AppsDir()); err != nil {
		p.logger.Warn().Err(err).Msg("update-desktop-database failed")
	}
}

// installBoxBuddy installs the companion container manager from Flathub
func (p *Provisioner) installBoxBuddy(ctx context.Context) error {
	if p.fp.IsInstalled(ctx, flatpak.BoxBuddyID) {
		ui.PrintInfo("BoxBuddy already installed, skipping")
		return nil
	}

	if err := p.fp.EnsureFlathub(ctx); err != nil {
		return err
	}
	if err := p.fp.Install(ctx, flatpak.BoxBuddyID); err != nil {
		// Companion app only; the container setup itself succeeded
		p.logger.Warn().Err(err).Msg("BoxBuddy install failed")
		ui.PrintWarning("BoxBuddy install failed: %v", err)
		return nil
	}

	return nil
}

// containerUser resolves the username used for in-container sudo rules
func (p *Provisioner) containerUser() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	if p.cfg.Container.FallbackUser != "" {
		return p.cfg.Container.FallbackUser
	}
	return "deck"
}

// CreatedContainer reports whether this run created the container
func (p *Provisioner) CreatedContainer() bool {
	return p.createdContainer
}
