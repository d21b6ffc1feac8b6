package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pacbox/pacbox/internal/config"
	"github.com/pacbox/pacbox/internal/core"
	"github.com/pacbox/pacbox/internal/db"
	"github.com/pacbox/pacbox/internal/execx"
	"github.com/pacbox/pacbox/internal/provision"
	"github.com/pacbox/pacbox/internal/security"
	"github.com/pacbox/pacbox/internal/ui"
)

// NewSetupCmd creates the setup command
func NewSetupCmd(cfg *config.Config, log *zerolog.Logger, version string) *cobra.Command {
	var (
		opts        core.SetupOptions
		timeoutMins int
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Provision an Arch container with Pamac",
		Long: `Provision an Arch Linux Distrobox container, install Pamac with AUR
support inside it, and export the application to the host desktop menu.

Running setup again with the same container name is safe: existing
resources are detected and skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.ContainerName == "" {
				opts.ContainerName = cfg.Container.DefaultName
			}
			if opts.Image == "" {
				opts.Image = cfg.Container.Image
			}

			if err := security.ValidateContainerName(opts.ContainerName); err != nil {
				ui.PrintError("%v", err)
				return err
			}

			log.Info().
				Str("container", opts.ContainerName).
				Str("image", opts.Image).
				Bool("dry_run", opts.DryRun).
				Bool("force_rebuild", opts.ForceRebuild).
				Msg("starting setup")

			if opts.ForceRebuild && !opts.DryRun && !opts.AssumeYes {
				confirmed, err := ui.ConfirmDangerousAction("rebuild container", opts.ContainerName)
				if err != nil {
					return err
				}
				if !confirmed {
					ui.PrintWarning("Setup cancelled")
					return nil
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeoutMins)*time.Minute)
			defer cancel()

			var runner execx.Runner = execx.NewOSRunner()
			fs := afero.NewOsFs()
			if opts.DryRun {
				ui.PrintInfo("Dry run: no changes will be made")
				runner = execx.NewDryRunner(runner, log)
				fs = afero.NewMemMapFs()
			}

			prov := provision.New(cfg, opts, runner, fs, log)
			record, err := prov.Run(ctx)
			if err != nil {
				ui.PrintError("setup failed: %v", err)
				return fmt.Errorf("setup failed: %w", err)
			}

			if !opts.DryRun {
				record.ToolVersion = version
				if err := saveRecord(ctx, cfg, record); err != nil {
					// The container works; a missing record only degrades
					// list/status output
					log.Warn().Err(err).Msg("failed to save container record")
					ui.PrintWarning("failed to save container record: %v", err)
				}
			}

			printSummary(record, opts.DryRun)

			log.Info().
				Str("container", record.Name).
				Msg("setup completed successfully")

			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.ContainerName, "container-name", "c", "", "container name (default from config)")
	cmd.Flags().StringVar(&opts.Image, "image", "", "container image (default from config)")
	cmd.Flags().BoolVar(&opts.Multilib, "enable-multilib", false, "enable the multilib repository")
	cmd.Flags().BoolVar(&opts.Gaming, "enable-gaming", false, "install gaming packages (implies --enable-multilib)")
	cmd.Flags().BoolVar(&opts.BuildCache, "enable-build-cache", false, "share the pacman package cache with the host")
	cmd.Flags().BoolVar(&opts.OptimizeMirrors, "optimize-mirrors", false, "rank the fastest mirrors with reflector")
	cmd.Flags().BoolVar(&opts.BoxBuddy, "with-boxbuddy", false, "also install BoxBuddy from Flathub")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "log commands without executing them")
	cmd.Flags().BoolVar(&opts.ForceRebuild, "force-rebuild", false, "remove an existing container and start over")
	cmd.Flags().BoolVar(&opts.SkipExport, "skip-export", false, "skip desktop menu export")
	cmd.Flags().BoolVarP(&opts.AssumeYes, "yes", "y", false, "answer yes to confirmation prompts")
	cmd.Flags().IntVar(&timeoutMins, "timeout", 60, "setup timeout in minutes")

	return cmd
}

func saveRecord(ctx context.Context, cfg *config.Config, record *core.ContainerRecord) error {
	database, err := db.New(ctx, cfg.Paths.DBFile)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	// A rebuilt container replaces its old record
	_ = database.Delete(ctx, record.Name)

	return database.Create(ctx, record)
}

func printSummary(record *core.ContainerRecord, dryRun bool) {
	ui.PrintHeader("Setup Summary")

	if dryRun {
		ui.PrintInfo("Dry run finished, nothing was changed")
	}

	ui.PrintKeyValue("Container", record.Name)
	ui.PrintKeyValue("Image", record.Image)
	if record.WrapperScript != "" {
		ui.PrintKeyValue("CLI wrapper", record.WrapperScript)
	}
	for _, f := range record.DesktopFiles {
		ui.PrintKeyValue("Launcher", f)
	}

	var features []string
	if record.Features.Multilib {
		features = append(features, "multilib")
	}
	if record.Features.Gaming {
		features = append(features, "gaming packages")
	}
	if record.Features.BuildCache {
		features = append(features, "shared build cache")
	}
	if record.Features.OptimizeMirrors {
		features = append(features, "optimized mirrors")
	}
	if record.Features.BoxBuddy {
		features = append(features, "BoxBuddy")
	}
	if len(features) > 0 {
		ui.PrintSubheader("Enabled features")
		ui.PrintList(features)
	}

	if !dryRun {
		ui.PrintSuccess("Pamac is ready, look for it in the desktop menu")
	}
}
