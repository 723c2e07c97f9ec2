package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/volunnet/volunnet/internal/bootstrap"
	"github.com/volunnet/volunnet/internal/config"
	"github.com/volunnet/volunnet/internal/pkg/logger"
)

// @title VolunNet API
// @version 1.0
// @description Volunteer matching platform: events, applications, completion, ratings and notifications

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT access token as "Bearer <token>"; the session cookie is accepted too

// App holds what every command needs before it runs
type App struct {
	cfg    *config.Config
	logger zerolog.Logger
}

var (
	configPath string
	app        = &App{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "volunnet",
		Short: "VolunNet API server and maintenance tasks",
		Long:  `Runs the VolunNet HTTP API and the one-off tasks around it: schema migrations, seeding and the retention sweep.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
			if err != nil {
				return err
			}
			app.cfg = cfg
			app.logger = lgr
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the YAML configuration file")

	serve := serveCmd()
	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(sweepCmd())

	// Running the binary without a subcommand starts the server
	rootCmd.RunE = serve.RunE
	rootCmd.Flags().AddFlagSet(serve.Flags())

	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
