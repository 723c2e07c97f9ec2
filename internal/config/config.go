package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string `yaml:"port" env:"SERVER_PORT" validate:"required"`
		Mode            string `yaml:"mode" env:"SERVER_MODE" validate:"oneof=development production test"`
		ReadTimeout     string `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" validate:"duration"`
		WriteTimeout    string `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" validate:"duration"`
		ShutdownTimeout string `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" validate:"duration"`
		PublicURL       string `yaml:"public_url" env:"PUBLIC_URL"`
	} `yaml:"server"`

	Database struct {
		URL             string `yaml:"url" env:"DATABASE_URL"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" validate:"min=0"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" validate:"min=1"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" validate:"duration"`
		QueryTimeout    string `yaml:"query_timeout" env:"DB_QUERY_TIMEOUT" validate:"duration"`
	} `yaml:"database"`

	JWT struct {
		Secret                 string `yaml:"secret" env:"JWT_SECRET" validate:"required,min=16"`
		AccessTokenExpiration  string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION" validate:"duration"`
		RefreshTokenExpiration string `yaml:"refresh_token_expiration" env:"JWT_REFRESH_TOKEN_EXPIRATION" validate:"duration"`
		Issuer                 string `yaml:"issuer" env:"JWT_ISSUER"`
		CookieName             string `yaml:"cookie_name" env:"SESSION_COOKIE_NAME" validate:"required"`
		RefreshCookieName      string `yaml:"refresh_cookie_name" env:"REFRESH_COOKIE_NAME" validate:"required"`
		CookieSecure           bool   `yaml:"cookie_secure" env:"SESSION_COOKIE_SECURE"`
		CookieDomain           string `yaml:"cookie_domain" env:"SESSION_COOKIE_DOMAIN"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL" validate:"oneof=debug info warn error fatal"`
		Format string `yaml:"format" env:"LOG_FORMAT" validate:"oneof=json pretty"`
	} `yaml:"logging"`

	Cache struct {
		StatsTTL           string `yaml:"stats_ttl" env:"CACHE_STATS_TTL" validate:"duration"`
		RecommendationsTTL string `yaml:"recommendations_ttl" env:"CACHE_RECOMMENDATIONS_TTL" validate:"duration"`
		ReadTimeout        string `yaml:"read_timeout" env:"CACHE_READ_TIMEOUT" validate:"duration"`
	} `yaml:"cache"`

	Notifications struct {
		Expiry  string `yaml:"expiry" env:"NOTIFICATION_EXPIRY" validate:"duration"`
		NatsURL string `yaml:"nats_url" env:"NATS_URL"`
		SMTP    struct {
			Host     string `yaml:"host" env:"SMTP_HOST"`
			Port     int    `yaml:"port" env:"SMTP_PORT"`
			Username string `yaml:"username" env:"SMTP_USERNAME"`
			Password string `yaml:"password" env:"SMTP_PASSWORD"`
			From     string `yaml:"from" env:"SMTP_FROM"`
		} `yaml:"smtp"`
	} `yaml:"notifications"`

	Lifecycle struct {
		ArchiveAfter    string `yaml:"archive_after" env:"LIFECYCLE_ARCHIVE_AFTER" validate:"duration"`
		TokenRetention  string `yaml:"token_retention" env:"LIFECYCLE_TOKEN_RETENTION" validate:"duration"`
		VerificationTTL string `yaml:"verification_ttl" env:"LIFECYCLE_VERIFICATION_TTL" validate:"duration"`
		ResetTTL        string `yaml:"reset_ttl" env:"LIFECYCLE_RESET_TTL" validate:"duration"`
	} `yaml:"lifecycle"`
}

// LoadConfig loads configuration from a file, a local .env file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// A missing .env is the normal case outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.ReadTimeout = "15s"
	config.Server.WriteTimeout = "15s"
	config.Server.ShutdownTimeout = "10s"
	config.Server.PublicURL = "http://localhost:8080"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "volunnet"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.QueryTimeout = "5s"

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.RefreshTokenExpiration = "720h"
	config.JWT.Issuer = "volunnet.app"
	config.JWT.CookieName = "volunnet_session"
	config.JWT.RefreshCookieName = "volunnet_refresh"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Cache.StatsTTL = "5m"
	config.Cache.RecommendationsTTL = "10m"
	config.Cache.ReadTimeout = "3s"

	config.Notifications.Expiry = "720h"
	config.Notifications.SMTP.Port = 587
	config.Notifications.SMTP.From = "no-reply@volunnet.app"

	config.Lifecycle.ArchiveAfter = "720h"
	config.Lifecycle.TokenRetention = "168h"
	config.Lifecycle.VerificationTTL = "48h"
	config.Lifecycle.ResetTTL = "1h"
}

func newConfigValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		_, err := time.ParseDuration(fl.Field().String())
		return err == nil
	})
	return v
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if err := newConfigValidator().Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed on the '%s' rule", fe.Namespace(), fe.Tag())
		}
		return err
	}

	if config.Database.URL == "" && config.Database.Host == "" {
		return fmt.Errorf("database url or host is required")
	}
	if config.Database.URL != "" {
		if _, err := url.Parse(config.Database.URL); err != nil {
			return fmt.Errorf("invalid database url: %w", err)
		}
	}

	return nil
}

// GetPostgresConnectionString returns the postgres connection string,
// preferring DATABASE_URL over the discrete settings
func (c *Config) GetPostgresConnectionString() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}

	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     c.Database.Host + ":" + c.Database.Port,
		Path:     "/" + c.Database.DBName,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Mode == "production"
}

// Duration parses a validated duration setting
func Duration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt gets an environment variable as an integer or returns a default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(GetEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

// GetEnvAsBool gets an environment variable as a boolean or returns a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	switch strings.ToLower(GetEnv(key, "")) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultValue
}
