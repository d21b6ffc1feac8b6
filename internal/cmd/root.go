package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pacbox/pacbox/internal/config"
	"github.com/pacbox/pacbox/internal/logging"
	"github.com/pacbox/pacbox/internal/ui"
)

// NewRootCmd creates the root command
func NewRootCmd(cfg *config.Config, log *zerolog.Logger, version string) *cobra.Command {
	var (
		verbose bool
		quiet   bool
	)

	cmd := &cobra.Command{
		Use:          "pacbox",
		Short:        "Arch container provisioning for SteamOS",
		Long:         `pacbox provisions an Arch Linux Distrobox container, installs Pamac with AUR support inside it, and exports the application to the host desktop menu.`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			ui.InitColors()

			// --quiet caps the console at warnings but keeps the log file
			// complete, so the logger is rebuilt rather than re-leveled
			if quiet || verbose {
				level := cfg.Logging.Level
				if verbose {
					level = "debug"
				}
				*log = *logging.NewLogger(logging.Config{
					Level:   level,
					LogFile: cfg.Paths.LogFile,
					NoColor: cfg.Logging.Color == "never",
					Quiet:   quiet,
				})
			}
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "only log warnings and errors")

	// Add subcommands
	cmd.AddCommand(NewSetupCmd(cfg, log, version))
	cmd.AddCommand(NewUninstallCmd(cfg, log))
	cmd.AddCommand(NewUpdateCmd(cfg, log))
	cmd.AddCommand(NewListCmd(cfg, log))
	cmd.AddCommand(NewStatusCmd(cfg, log))
	cmd.AddCommand(NewDoctorCmd(cfg, log))
	cmd.AddCommand(NewCompletionCmd(cfg, log))
	cmd.AddCommand(NewVersionCmd(version))

	return cmd
}
