package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pacbox/pacbox/internal/config"
	"github.com/pacbox/pacbox/internal/db"
	"github.com/pacbox/pacbox/internal/distrobox"
	"github.com/pacbox/pacbox/internal/execx"
	"github.com/pacbox/pacbox/internal/podman"
	"github.com/pacbox/pacbox/internal/security"
	"github.com/pacbox/pacbox/internal/ui"
)

// NewStatusCmd creates the status command
func NewStatusCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [container-name]",
		Short: "Show the status of a provisioned container",
		Long:  `Show the runtime state and exported resources of a provisioned container.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			name := cfg.Container.DefaultName
			if len(args) == 1 {
				name = args[0]
			}
			if err := security.ValidateContainerName(name); err != nil {
				ui.PrintError("invalid container name: %v", err)
				return err
			}

			runner := execx.NewOSRunner()
			box := distrobox.New(runner, log)
			pod := podman.New(runner)

			ui.PrintHeader(fmt.Sprintf("Status: %s", name))
			fmt.Println()

			// Tracked record
			database, err := db.New(ctx, cfg.Paths.DBFile)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer database.Close()

			rec, err := database.Get(ctx, name)
			switch {
			case errors.Is(err, db.ErrNotFound):
				rec = nil
				ui.PrintWarning("Tracking: not provisioned by pacbox")
			case err != nil:
				rec = nil
				ui.PrintWarning("Tracking: error reading database (%v)", err)
			default:
				ui.PrintKeyValue("Image", rec.Image)
				ui.PrintKeyValue("Created", rec.CreatedAt.Format("2006-01-02 15:04"))
				ui.PrintKeyValue("Features", featureSummary(rec.Features))
				ui.PrintKeyValue("Provisioned by", "pacbox "+rec.ToolVersion)
			}

			// Runtime state
			state, err := pod.State(ctx, name)
			if err != nil {
				ui.PrintKeyValue("State", "unknown")
				log.Debug().Err(err).Str("container", name).Msg("failed to query container state")
			} else {
				ui.PrintKeyValue("State", ui.ColorizeState(string(state)))
			}

			exists, err := box.Exists(ctx, name)
			if err != nil {
				ui.PrintWarning("Container: cannot query distrobox (%v)", err)
			} else if !exists {
				ui.PrintWarning("Container: not present in distrobox")
			}

			// Exported resources
			if rec != nil {
				fmt.Println()
				ui.PrintSubheader("Exported Resources")
				for _, df := range rec.DesktopFiles {
					if _, err := os.Stat(df); err == nil {
						ui.PrintSuccess("Launcher: %s", df)
					} else {
						ui.PrintError("Launcher: MISSING (%s)", df)
					}
				}
				if rec.WrapperScript != "" {
					if _, err := os.Stat(rec.WrapperScript); err == nil {
						ui.PrintSuccess("Wrapper: %s", rec.WrapperScript)
					} else {
						ui.PrintError("Wrapper: MISSING (%s)", rec.WrapperScript)
					}
				}
				if len(rec.DesktopFiles) == 0 && rec.WrapperScript == "" {
					ui.PrintInfo("No exported resources recorded")
				}
			}

			fmt.Println()
			if rec == nil && !exists {
				ui.PrintInfo("Run 'pacbox setup%s' to provision this container", statusSetupHint(cfg, name))
			}

			return nil
		},
	}

	return cmd
}

func statusSetupHint(cfg *config.Config, name string) string {
	if name == cfg.Container.DefaultName {
		return ""
	}
	return " --container-name " + strings.TrimSpace(name)
}
