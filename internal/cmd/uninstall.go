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

// NewUninstallCmd creates the uninstall command
func NewUninstallCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		opts        core.UninstallOptions
		timeoutMins int
	)

	cmd := &cobra.Command{
		Use:   "uninstall [container-name]",
		Short: "Remove a provisioned container and its exports",
		Long: `Remove the exported launchers, the CLI wrapper, and the container itself.
Only desktop files matching the <app>-<container>.desktop pattern are
touched. Run without arguments for an interactive selector.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeoutMins)*time.Minute)
			defer cancel()

			database, err := db.New(ctx, cfg.Paths.DBFile)
			if err != nil {
				ui.PrintError("failed to open database: %v", err)
				return fmt.Errorf("open database: %w", err)
			}
			defer database.Close()

			name := ""
			if len(args) == 1 {
				name = args[0]
				if err := security.ValidateContainerName(name); err != nil {
					ui.PrintError("%v", err)
					return err
				}
			} else {
				name, err = selectContainer(ctx, database)
				if err != nil {
					return err
				}
				if name == "" {
					ui.PrintInfo("Nothing to uninstall")
					return nil
				}
			}

			if !opts.AssumeYes {
				confirmed, err := ui.ConfirmDangerousAction("uninstall", name)
				if err != nil {
					return err
				}
				if !confirmed {
					ui.PrintWarning("Uninstall cancelled")
					return nil
				}
			}

			log.Info().Str("container", name).Msg("starting uninstall")

			uninstaller := provision.NewUninstaller(cfg, execx.NewOSRunner(), afero.NewOsFs(), log)
			res, err := uninstaller.Run(ctx, name, opts)
			if err != nil {
				ui.PrintError("uninstall failed: %v", err)
				return fmt.Errorf("uninstall failed: %w", err)
			}

			if err := database.Delete(ctx, name); err != nil {
				log.Debug().Err(err).Str("container", name).Msg("no record to delete")
			}

			for _, f := range res.DesktopFiles {
				ui.PrintSuccess("Removed launcher %s", f)
			}
			if res.WrapperRemoved {
				ui.PrintSuccess("Removed CLI wrapper")
			}
			if res.ContainerRemoved {
				ui.PrintSuccess("Removed container %s", name)
			} else if opts.KeepContainer {
				ui.PrintInfo("Container %s kept as requested", name)
			}

			log.Info().Str("container", name).Msg("uninstall completed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.KeepContainer, "keep-container", false, "remove exports but keep the container")
	cmd.Flags().BoolVarP(&opts.AssumeYes, "yes", "y", false, "answer yes to confirmation prompts")
	cmd.Flags().IntVar(&timeoutMins, "timeout", 10, "uninstall timeout in minutes")

	return cmd
}

// selectContainer offers a fuzzy-searchable picker over tracked containers
func selectContainer(ctx context.Context, database *db.DB) (string, error) {
	records, err := database.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list containers: %w", err)
	}

	if len(records) == 0 {
		return "", nil
	}

	options := make([]string, 0, len(records))
	for _, rec := range records {
		options = append(options, fmt.Sprintf("%s (%s, created %s)",
			rec.Name, rec.Image, rec.CreatedAt.Format("2006-01-02")))
	}

	idx, _, err := ui.SelectPrompt("Select container to uninstall", options)
	if err != nil {
		return "", err
	}

	return records[idx].Name, nil
}
