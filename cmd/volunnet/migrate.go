package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/volunnet/volunnet/internal/bootstrap"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := bootstrap.SetupDatabase(app.cfg, app.logger)
			if err != nil {
				return err
			}
			defer database.Close()

			applied, err := bootstrap.RunMigrations(cmd.Context(), database, app.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", applied)
			return nil
		},
	}
}
