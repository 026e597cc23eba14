package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/room-monitor/internal/service/monitor"
)

var (
	// withDevices adds device counts to the summary.
	withDevices bool

	// summaryCmd prints the current room summary.
	summaryCmd = &cobra.Command{
		Use:    "summary",
		Short:  "Print the current room summary.",
		Long:   "Fetch the room listing once and print how many rooms are online. With --devices, also count the devices of every room, skipping rooms whose devices cannot be fetched.",
		Args:   cobra.NoArgs,
		PreRun: setLogLevel,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return monitor.Summary(cmd.Context(), &monitor.ReportOptions{
				ConfigPath: configPath,
				Devices:    withDevices,
			}, cmd.OutOrStdout())
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	summaryCmd.Flags().BoolVarP(&withDevices, "devices", "d", false, "also count devices across rooms")
	rootCmd.AddCommand(summaryCmd)
}
