package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/room-monitor/internal/config"
	"github.com/oshokin/room-monitor/internal/logger"
	"github.com/oshokin/room-monitor/internal/service/monitor"
	"github.com/oshokin/room-monitor/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// logLevel overrides the configured log level.
	logLevel string
	// force skips the single-instance guard.
	force bool

	// rootCmd represents the base command running the monitor.
	rootCmd = &cobra.Command{
		Use:   "room-monitor",
		Short: "Watch Zoom Rooms and announce outages.",
		Long: `Background service that watches Zoom Rooms and announces when they go offline or recover.

Polls the Zoom Rooms API every few seconds. A room reported Offline is announced once
through the Power Automate webhook (Teams post and e-mail). It is announced again only
when the room is back and every one of its devices reports Online, together with how
long it was offline. Every transition, error and delivery outcome is appended to a JSONL
event log.

Stops on SIGINT or SIGTERM after the current poll finishes and sends a final
"monitoring is offline" notice. Exits with status 1 when polling fails.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			defer logger.Sync()

			return monitor.Run(ctx, &monitor.Options{
				ConfigPath: configPath,
				Force:      force,
				LogLevel:   logLevel,
			})
		},
	}
)

// Execute runs the room-monitor CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setLogLevel applies --log-level for subcommands that do not load it themselves.
func setLogLevel(*cobra.Command, []string) {
	if level, ok := logger.ParseLogLevel(logLevel); ok && logLevel != "" {
		logger.SetLevel(level)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVarP(&force, "force", "f", false, "start even if another instance is running")
}
