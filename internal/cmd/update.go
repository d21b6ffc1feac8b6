package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pacbox/pacbox/internal/aur"
	"github.com/pacbox/pacbox/internal/config"
	"github.com/pacbox/pacbox/internal/db"
	"github.com/pacbox/pacbox/internal/distrobox"
	"github.com/pacbox/pacbox/internal/execx"
	"github.com/pacbox/pacbox/internal/pacman"
	"github.com/pacbox/pacbox/internal/ui"
)

// NewUpdateCmd creates the update command
func NewUpdateCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var timeoutMins int

	cmd := &cobra.Command{
		Use:   "update [container-name]",
		Short: "Update packages inside a provisioned container",
		Long:  `Run a full system and AUR update inside an existing provisioned container.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := cfg.Container.DefaultName
			if len(args) == 1 {
				name = args[0]
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeoutMins)*time.Minute)
			defer cancel()

			if err := verifyTracked(ctx, cfg, name); err != nil {
				ui.PrintError("%v", err)
				return err
			}

			runner := execx.NewOSRunner()
			box := distrobox.New(runner, log)

			exists, err := box.Exists(ctx, name)
			if err != nil {
				ui.PrintError("%v", err)
				return err
			}
			if !exists {
				ui.PrintError("container %s does not exist, run 'pacbox setup' first", name)
				return fmt.Errorf("container not found: %s", name)
			}

			log.Info().Str("container", name).Msg("starting update")
			ui.PrintInfo("Updating %s...", name)

			pm := pacman.New(box, name)
			helper := aur.New(box, pm, name, log)

			spinner := ui.NewSpinner("Updating packages")
			if helper.HelperInstalled(ctx) {
				err = helper.Update(ctx, spinner)
			} else {
				err = pm.Upgrade(ctx, spinner)
			}
			spinner.Finish()

			if err != nil {
				ui.PrintError("update failed: %v", err)
				return fmt.Errorf("update failed: %w", err)
			}

			ui.PrintSuccess("Container %s is up to date", name)
			log.Info().Str("container", name).Msg("update completed")
			return nil
		},
	}

	cmd.Flags().IntVar(&timeoutMins, "timeout", 60, "update timeout in minutes")

	return cmd
}

// verifyTracked warns when updating a container pacbox did not provision
func verifyTracked(ctx context.Context, cfg *config.Config, name string) error {
	database, err := db.New(ctx, cfg.Paths.DBFile)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if _, err := database.Get(ctx, name); err != nil {
		ui.PrintWarning("container %s is not tracked by pacbox", name)
	}
	return nil
}
