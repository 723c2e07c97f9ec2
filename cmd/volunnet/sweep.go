package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/volunnet/volunnet/internal/bootstrap"
)

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Archive old events, expire notifications and purge dead tokens",
		Long:  `Runs one retention pass. Schedule it with cron or a Kubernetes CronJob.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := bootstrap.SetupDatabase(app.cfg, app.logger)
			if err != nil {
				return err
			}

			deps, err := bootstrap.BuildDependencies(app.cfg, database, app.logger)
			if err != nil {
				database.Close()
				return err
			}
			defer deps.Close()

			result, err := deps.MaintenanceService.Sweep(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Archived events:          %d\n", result.ArchivedEvents)
			fmt.Fprintf(out, "Expired notifications:    %d\n", result.ExpiredNotifications)
			fmt.Fprintf(out, "Purged refresh tokens:    %d\n", result.PurgedRefreshTokens)
			fmt.Fprintf(out, "Purged one-time tokens:   %d\n", result.PurgedOneTimeTokens)
			return nil
		},
	}
}
