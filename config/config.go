// Package config provides configuration management for the portal backend
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/akpsi-umich/portal-backend/shared/utils"
)

// Environment represents the deployment environment
type Environment string

const (
	Local      Environment = "local"
	Production Environment = "production"
)

// Config holds all configuration for the service
type Config struct {
	Environment Environment    `json:"environment"`
	Service     ServiceConfig  `json:"service"`
	Logging     LoggingConfig  `json:"logging"`
	Auth        AuthConfig     `json:"auth"`
	Session     SessionConfig  `json:"session"`
	Storage     StorageConfig  `json:"storage"`
	Security    SecurityConfig `json:"security"`
}

// ServiceConfig holds HTTP server configuration
type ServiceConfig struct {
	Name         string        `json:"name"`
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `json:"level"`
}

// AuthConfig holds the OAuth/OIDC provider settings and the email domain allow-list
type AuthConfig struct {
	ClientID      string        `json:"client_id"`
	ClientSecret  string        `json:"-"`
	AuthURL       string        `json:"auth_url"`
	TokenURL      string        `json:"token_url"`
	JWKSURL       string        `json:"jwks_url"`
	Issuer        string        `json:"issuer"`
	RedirectURL   string        `json:"redirect_url"`
	Scopes        []string      `json:"scopes"`
	AllowedDomain string        `json:"allowed_domain"`
	Timeout       time.Duration `json:"timeout"`
}

// SessionConfig holds the Redis session store settings
type SessionConfig struct {
	RedisAddr     string        `json:"redis_addr"`
	RedisPassword string        `json:"-"`
	RedisDB       int           `json:"redis_db"`
	TTL           time.Duration `json:"ttl"`
	CookieName    string        `json:"cookie_name"`
	CookieSecure  bool          `json:"cookie_secure"`
}

// StorageConfig holds object storage settings
type StorageConfig struct {
	// Backend is "gcs" or "memory"
	Backend         string        `json:"backend"`
	HeadshotBucket  string        `json:"headshot_bucket"`
	ResumeBucket    string        `json:"resume_bucket"`
	CredentialsFile string        `json:"credentials_file"`
	PublicBaseURL   string        `json:"public_base_url"`
	Timeout         time.Duration `json:"timeout"`
}

// SecurityConfig holds CORS settings
type SecurityConfig struct {
	AllowedOrigin string `json:"allowed_origin"`
}

// Load builds the configuration from environment variables with defaults
func Load() *Config {
	env := Environment(utils.GetEnvOrDefault("ENVIRONMENT", string(Local)))

	return &Config{
		Environment: env,
		Service: ServiceConfig{
			Name:         "portal-backend",
			Port:         utils.GetEnvOrDefault("PORT", "3000"),
			ReadTimeout:  utils.GetEnvDurationOrDefault("READ_TIMEOUT", 15*time.Second),
			WriteTimeout: utils.GetEnvDurationOrDefault("WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  utils.GetEnvDurationOrDefault("IDLE_TIMEOUT", 60*time.Second),
		},
		Logging: LoggingConfig{
			Level: utils.GetEnvOrDefault("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			ClientID:      utils.GetEnvOrDefault("OAUTH_CLIENT_ID", ""),
			ClientSecret:  utils.GetEnvOrDefault("OAUTH_CLIENT_SECRET", ""),
			AuthURL:       utils.GetEnvOrDefault("OAUTH_AUTH_URL", "https://accounts.google.com/o/oauth2/v2/auth"),
			TokenURL:      utils.GetEnvOrDefault("OAUTH_TOKEN_URL", "https://oauth2.googleapis.com/token"),
			JWKSURL:       utils.GetEnvOrDefault("OAUTH_JWKS_URL", "https://www.googleapis.com/oauth2/v3/certs"),
			Issuer:        utils.GetEnvOrDefault("OAUTH_ISSUER", "https://accounts.google.com"),
			RedirectURL:   utils.GetEnvOrDefault("OAUTH_REDIRECT_URL", "http://localhost:3000/auth/callback"),
			Scopes:        strings.Fields(utils.GetEnvOrDefault("OAUTH_SCOPES", "openid email profile")),
			AllowedDomain: utils.GetEnvOrDefault("ALLOWED_EMAIL_DOMAIN", "umich.edu"),
			Timeout:       utils.GetEnvDurationOrDefault("OAUTH_TIMEOUT", 10*time.Second),
		},
		Session: SessionConfig{
			RedisAddr:     utils.GetEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			RedisPassword: utils.GetEnvOrDefault("REDIS_PASSWORD", ""),
			RedisDB:       utils.GetEnvIntOrDefault("REDIS_DB", 0),
			TTL:           utils.GetEnvDurationOrDefault("SESSION_TTL", 7*24*time.Hour),
			CookieName:    utils.GetEnvOrDefault("SESSION_COOKIE_NAME", "portal_session"),
			CookieSecure:  utils.GetEnvBoolOrDefault("SESSION_COOKIE_SECURE", env == Production),
		},
		Storage: StorageConfig{
			Backend:         utils.GetEnvOrDefault("STORAGE_BACKEND", "gcs"),
			HeadshotBucket:  utils.GetEnvOrDefault("GCS_HEADSHOT_BUCKET", "headshots"),
			ResumeBucket:    utils.GetEnvOrDefault("GCS_RESUME_BUCKET", "rushee_resumes"),
			CredentialsFile: utils.GetEnvOrDefault("GCS_CREDENTIALS_FILE", ""),
			PublicBaseURL:   utils.GetEnvOrDefault("STORAGE_PUBLIC_BASE_URL", "https://storage.googleapis.com"),
			Timeout:         utils.GetEnvDurationOrDefault("STORAGE_TIMEOUT", 30*time.Second),
		},
		Security: SecurityConfig{
			AllowedOrigin: utils.GetEnvOrDefault("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		},
	}
}

// Validate checks the settings the service cannot start without
func (c *Config) Validate() error {
	if c.Auth.ClientID == "" || c.Auth.ClientSecret == "" {
		return fmt.Errorf("OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET must be set")
	}
	if c.Auth.JWKSURL == "" || c.Auth.Issuer == "" {
		return fmt.Errorf("OAUTH_JWKS_URL and OAUTH_ISSUER must be set")
	}
	if strings.TrimSpace(c.Auth.AllowedDomain) == "" {
		return fmt.Errorf("ALLOWED_EMAIL_DOMAIN must not be empty")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	switch c.Storage.Backend {
	case "gcs", "memory":
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q (supported: gcs, memory)", c.Storage.Backend)
	}
	return nil
}

// LogLevel maps the configured level onto slog
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
