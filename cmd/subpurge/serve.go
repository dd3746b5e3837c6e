package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/subpurge/internal/app"
	"github.com/aatumaykin/subpurge/internal/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the purge scheduler (main command)",
	Long: `Start the scheduler with the configured interval.
The purge job registration is repaired when the stored interval differs
from the configuration. SIGINT or SIGTERM stop the process gracefully.`,
	Run: serveHandler,
}

func serveHandler(cmd *cobra.Command, args []string) {
	cfg, log := mustSetup()

	log.Info("🚀 Starting subpurge",
		logger.Field{Key: "version", Value: Version},
		logger.Field{Key: "git_commit", Value: GitCommit},
		logger.Field{Key: "config", Value: resolveConfigPath(nil)},
		logger.Field{Key: "database", Value: cfg.Database.Driver},
		logger.Field{Key: "interval", Value: cfg.Scheduler.Interval.String()},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.New(cfg, log).Run(ctx); err != nil {
		log.Error("Application failed", err)
		os.Exit(1)
	}
}
