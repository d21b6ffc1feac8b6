package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pacbox/pacbox/internal/cmd"
	"github.com/pacbox/pacbox/internal/config"
	"github.com/pacbox/pacbox/internal/core"
	"github.com/pacbox/pacbox/internal/logging"
)

var version = "dev"

func main() {
	// Ctrl-C cancels the context; in-flight external commands are killed
	// and the provisioner's rollback runs before we exit
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(core.ExitGeneral)
	}

	// Initialize logger
	log := logging.NewLogger(logging.Config{
		Level:   cfg.Logging.Level,
		LogFile: cfg.Paths.LogFile,
		NoColor: cfg.Logging.Color == "never",
	})

	// Execute root command
	rootCmd := cmd.NewRootCmd(cfg, log, version)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		if ctx.Err() != nil {
			os.Exit(core.ExitInterrupted)
		}
		os.Exit(core.ExitGeneral)
	}
}
