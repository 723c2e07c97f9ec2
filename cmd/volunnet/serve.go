package main

import (
	"github.com/spf13/cobra"

	"github.com/volunnet/volunnet/internal/server"
)

func serveCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := server.NewServer(app.cfg, app.logger, !skipMigrations)
			if err != nil {
				return err
			}
			return srv.Run()
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply pending migrations on startup")
	return cmd
}
