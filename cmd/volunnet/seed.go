package main

import (
	"fmt"

	"github.com/spf13/cobra"

	appRepos "github.com/volunnet/volunnet/internal/app/repositories"
	"github.com/volunnet/volunnet/internal/bootstrap"
	"github.com/volunnet/volunnet/internal/seed"
)

func seedCmd() *cobra.Command {
	var demo bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default categories and, with --demo, demo accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := bootstrap.SetupDatabase(app.cfg, app.logger)
			if err != nil {
				return err
			}
			defer database.Close()

			repos := appRepos.NewRepositories(database)
			if err := seed.CreateDefaultData(cmd.Context(), repos, app.logger); err != nil {
				return fmt.Errorf("failed to create default data: %w", err)
			}
			if demo {
				if app.cfg.IsProduction() {
					return fmt.Errorf("refusing to create demo accounts in production mode")
				}
				if err := seed.CreateDemoData(cmd.Context(), repos, app.logger); err != nil {
					return fmt.Errorf("failed to create demo data: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Seed complete")
			return nil
		},
	}
	cmd.Flags().BoolVar(&demo, "demo", false, "Also create a demo organization, volunteer and event")
	return cmd
}
