package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/room-monitor/internal/repository/history"
	"github.com/oshokin/room-monitor/internal/service/monitor"
)

var (
	// episodeLimit bounds the number of printed episodes.
	episodeLimit int

	// episodesCmd prints recorded offline episodes.
	episodesCmd = &cobra.Command{
		Use:    "episodes",
		Short:  "Print recent offline episodes.",
		Long:   "Print the most recent offline episodes recorded in the history database configured by history_db, newest first.",
		Args:   cobra.NoArgs,
		PreRun: setLogLevel,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return monitor.Episodes(cmd.Context(), &monitor.ReportOptions{
				ConfigPath: configPath,
				Limit:      episodeLimit,
			}, cmd.OutOrStdout())
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	episodesCmd.Flags().IntVarP(&episodeLimit, "limit", "n", history.DefaultLimit, "maximum number of episodes")
	rootCmd.AddCommand(episodesCmd)
}
