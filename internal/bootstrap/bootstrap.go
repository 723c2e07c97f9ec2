package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	appAuth "github.com/volunnet/volunnet/internal/app/auth"
	appControllers "github.com/volunnet/volunnet/internal/app/controllers"
	appMigrations "github.com/volunnet/volunnet/internal/app/migrations"
	"github.com/volunnet/volunnet/internal/app/notifications"
	appRepos "github.com/volunnet/volunnet/internal/app/repositories"
	appRoutes "github.com/volunnet/volunnet/internal/app/routes"
	appServices "github.com/volunnet/volunnet/internal/app/services"
	"github.com/volunnet/volunnet/internal/config"
	"github.com/volunnet/volunnet/internal/db"
	appMiddleware "github.com/volunnet/volunnet/internal/middleware"
	pkgAuth "github.com/volunnet/volunnet/internal/pkg/auth"
	"github.com/volunnet/volunnet/internal/pkg/cache"
	"github.com/volunnet/volunnet/internal/pkg/email"
	"github.com/volunnet/volunnet/internal/pkg/logger"
	"github.com/volunnet/volunnet/internal/pkg/metrics"
	"github.com/volunnet/volunnet/internal/pkg/websocket"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	DB           *db.PostgresDB
	Repos        *appRepos.Repositories
	JWTService   *pkgAuth.JWTService
	AuthzService *appAuth.AuthorizationService
	Cache        *cache.Memory
	Metrics      *metrics.Recorder
	Hub          *websocket.Hub
	NATS         *nats.Conn
	Dispatcher   *notifications.Dispatcher

	AuthService           appServices.AuthService
	ProfileService        appServices.ProfileService
	EventService          appServices.EventService
	LifecycleService      appServices.LifecycleService
	ApplicationService    appServices.ApplicationService
	RatingService         appServices.RatingService
	NotificationService   appServices.NotificationService
	DashboardService      appServices.DashboardService
	RecommendationService appServices.RecommendationService
	MaintenanceService    appServices.MaintenanceService

	Controllers      appRoutes.Controllers
	AuthMiddleware   *appMiddleware.AuthMiddleware
	WebSocketHandler *websocket.Handler
	MessageHandler   *websocket.MessageHandler
	Logger           zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "pretty",
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and checks it answers.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		database.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")
	return database, nil
}

// RunMigrations applies the embedded schema migrations that have not run yet.
func RunMigrations(ctx context.Context, database *db.PostgresDB, lgr zerolog.Logger) (int, error) {
	lgr.Info().Msg("Running database migrations...")
	applied, err := appMigrations.NewMigrator(database.Pool, lgr).Up(ctx)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return applied, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Int("applied", applied).Msg("Database migrations successfully applied.")
	return applied, nil
}

// BuildDependencies initializes repositories, notification channels, services and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{DB: database, Logger: lgr}

	deps.Repos = appRepos.NewRepositories(database)
	deps.AuthzService = appAuth.NewAuthorizationService(
		deps.Repos.UserRepository,
		deps.Repos.EventRepository,
		deps.Repos.ApplicationRepository,
	)
	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  config.Duration(cfg.JWT.AccessTokenExpiration, time.Hour),
		RefreshTokenExp: config.Duration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})
	deps.Cache = cache.NewMemory()
	deps.Metrics = metrics.New()

	// Notification channels
	smtp := cfg.Notifications.SMTP
	mailer := email.NewEmailService(email.SMTPConfig{
		Host:      smtp.Host,
		Port:      smtp.Port,
		Username:  smtp.Username,
		Password:  smtp.Password,
		FromEmail: smtp.From,
		UseTLS:    smtp.Port == 465,
		BaseURL:   cfg.Server.PublicURL,
	}, logger.ForComponent("email"))
	if !mailer.Configured() {
		lgr.Warn().Msg("SMTP is not configured, emails will only be logged")
	}

	deps.Hub = websocket.NewHub(logger.ForComponent("websocket"))

	conn, err := notifications.ConnectNATS(cfg.Notifications.NatsURL, logger.ForComponent("push"))
	if err != nil {
		return nil, err
	}
	deps.NATS = conn
	var publisher notifications.Publisher
	if conn != nil {
		publisher = conn
	} else {
		lgr.Info().Msg("NATS URL not set, push notifications disabled")
	}

	channels := []notifications.Channel{
		notifications.NewEmailChannel(mailer),
		notifications.NewInAppChannel(deps.Hub),
		notifications.NewPushChannel(publisher, logger.ForComponent("push")),
		notifications.NewSMSChannel(logger.ForComponent("sms")),
	}
	deps.Dispatcher = notifications.NewDispatcher(
		deps.Repos.NotificationRepository,
		deps.Repos.PreferenceRepository,
		deps.Repos.UserRepository,
		channels,
		deps.Metrics,
		config.Duration(cfg.Notifications.Expiry, 720*time.Hour),
		logger.ForComponent("dispatcher"),
	)

	deps.WebSocketHandler = websocket.NewHandler(deps.Hub, logger.ForComponent("websocket"))
	deps.MessageHandler = websocket.NewMessageHandler(deps.Repos.NotificationRepository, deps.Hub, logger.ForComponent("websocket"))

	// Services
	cacheSettings := appServices.CacheSettings{
		StatsTTL:           config.Duration(cfg.Cache.StatsTTL, 5*time.Minute),
		RecommendationsTTL: config.Duration(cfg.Cache.RecommendationsTTL, 10*time.Minute),
		ReadTimeout:        config.Duration(cfg.Cache.ReadTimeout, 3*time.Second),
	}
	repos := deps.Repos

	deps.AuthService = appServices.NewAuthService(
		repos.UserRepository,
		repos.TokenRepository,
		repos.VerificationTokenRepository,
		repos.PasswordResetTokenRepository,
		deps.JWTService,
		mailer,
		deps.Dispatcher,
		appServices.AuthSettings{
			VerificationTTL: config.Duration(cfg.Lifecycle.VerificationTTL, 48*time.Hour),
			ResetTTL:        config.Duration(cfg.Lifecycle.ResetTTL, time.Hour),
		},
		logger.ForComponent("auth"),
	)
	deps.ProfileService = appServices.NewProfileService(deps.AuthzService, repos.UserRepository, deps.Cache, logger.ForComponent("profile"))
	deps.EventService = appServices.NewEventService(deps.AuthzService, repos.EventRepository, repos.CategoryRepository, deps.Cache, logger.ForComponent("events"))
	deps.LifecycleService = appServices.NewLifecycleService(
		deps.AuthzService, repos.EventRepository, repos.ApplicationRepository,
		deps.Dispatcher, deps.Cache, deps.Metrics, logger.ForComponent("lifecycle"),
	)
	deps.ApplicationService = appServices.NewApplicationService(
		deps.AuthzService, repos.ApplicationRepository, repos.UserRepository,
		deps.Dispatcher, deps.Cache, deps.Metrics, logger.ForComponent("applications"),
	)
	deps.RatingService = appServices.NewRatingService(
		deps.AuthzService, repos.ApplicationRepository, repos.RatingRepository,
		deps.Dispatcher, deps.Cache, deps.Metrics, logger.ForComponent("ratings"),
	)
	deps.NotificationService = appServices.NewNotificationService(repos.NotificationRepository, repos.PreferenceRepository, logger.ForComponent("notifications"))
	deps.DashboardService = appServices.NewDashboardService(
		deps.AuthzService, repos.ApplicationRepository, repos.DashboardRepository, repos.NotificationRepository,
		deps.Cache, deps.Metrics, cacheSettings, logger.ForComponent("dashboard"),
	)
	deps.RecommendationService = appServices.NewRecommendationService(
		deps.AuthzService, repos.EventRepository, deps.Cache, deps.Metrics, cacheSettings, logger.ForComponent("recommendations"),
	)
	deps.MaintenanceService = appServices.NewMaintenanceService(
		repos.EventRepository,
		repos.NotificationRepository,
		repos.TokenRepository,
		[]appServices.OneTimeTokenStore{repos.VerificationTokenRepository, repos.PasswordResetTokenRepository},
		deps.Cache,
		deps.Metrics,
		appServices.RetentionSettings{
			ArchiveAfter:   config.Duration(cfg.Lifecycle.ArchiveAfter, 720*time.Hour),
			TokenRetention: config.Duration(cfg.Lifecycle.TokenRetention, 168*time.Hour),
		},
		logger.ForComponent("maintenance"),
	)

	// Controllers
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, cfg.JWT.CookieName)
	deps.Controllers = appRoutes.Controllers{
		Auth: appControllers.NewAuthController(deps.AuthService, appControllers.CookieSettings{
			SessionName: cfg.JWT.CookieName,
			RefreshName: cfg.JWT.RefreshCookieName,
			Domain:      cfg.JWT.CookieDomain,
			Secure:      cfg.JWT.CookieSecure,
		}, lgr),
		Profile:      appControllers.NewProfileController(deps.ProfileService, deps.ApplicationService, lgr),
		Event:        appControllers.NewEventController(deps.EventService, lgr),
		Lifecycle:    appControllers.NewLifecycleController(deps.LifecycleService, lgr),
		Application:  appControllers.NewApplicationController(deps.ApplicationService, lgr),
		Rating:       appControllers.NewRatingController(deps.RatingService, lgr),
		Notification: appControllers.NewNotificationController(deps.NotificationService, lgr),
		Dashboard:    appControllers.NewDashboardController(deps.DashboardService, deps.RecommendationService, lgr),
	}

	return deps, nil
}

// Start runs the websocket hub, the inbound frame handler and the cache janitor until ctx is done.
func (d *Dependencies) Start(ctx context.Context) {
	go d.Hub.Run(ctx)
	d.MessageHandler.Start(ctx)

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := d.Cache.Sweep(); n > 0 {
					d.Logger.Debug().Int("evicted", n).Msg("Cache sweep")
				}
			}
		}
	}()
}

// Close releases the broker connection and the database pool
func (d *Dependencies) Close() {
	if d.NATS != nil {
		if err := d.NATS.Drain(); err != nil {
			d.Logger.Warn().Err(err).Msg("NATS drain failed")
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(logger.ForComponent("http")),
		appMiddleware.Metrics(deps.Metrics),
	)

	appRoutes.SetupSwagger(router)
	appRoutes.SetupSystemRoutes(router, deps.DB, deps.Metrics.Handler(), deps.WebSocketHandler, deps.AuthMiddleware)
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	return router
}
