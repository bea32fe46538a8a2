package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akpsi-umich/portal-backend/config"
	"github.com/akpsi-umich/portal-backend/idp"
	"github.com/akpsi-umich/portal-backend/idp/oidc"
	"github.com/akpsi-umich/portal-backend/pkg/monitoring"
	"github.com/akpsi-umich/portal-backend/shared/audit"
	"github.com/akpsi-umich/portal-backend/shared/redis"
	"github.com/akpsi-umich/portal-backend/shared/utils"
	v1 "github.com/akpsi-umich/portal-backend/v1"
	v1handlers "github.com/akpsi-umich/portal-backend/v1/handlers"
	v1middleware "github.com/akpsi-umich/portal-backend/v1/middleware"
	v1models "github.com/akpsi-umich/portal-backend/v1/models"
	"github.com/akpsi-umich/portal-backend/v1/storage"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// Load .env file if it exists (optional - fails silently if not found)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true, Level: cfg.LogLevel()}))
	slog.SetDefault(logger)

	slog.Info("Starting Portal Backend initialization", "environment", cfg.Environment)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	shutdownMetrics, err := monitoring.Initialize(ctx, monitoring.DefaultConfig(cfg.Service.Name))
	if err != nil {
		slog.Warn("Metrics disabled", "error", err)
	}

	// Initialize GORM database connection for V1
	v1DbConfig := v1.NewDatabaseConfig()
	gormDB, err := v1.ConnectGormDB(v1DbConfig)
	if err != nil {
		slog.Error("Failed to connect to GORM database", "error", err)
		os.Exit(1)
	}

	redisClient, err := redis.NewClient(&redis.Config{
		Addr:     cfg.Session.RedisAddr,
		Password: cfg.Session.RedisPassword,
		DB:       cfg.Session.RedisDB,
	})
	if err != nil {
		slog.Error("Failed to connect to Redis", "addr", cfg.Session.RedisAddr, "error", err)
		os.Exit(1)
	}

	auditor := audit.NewStreamAuditor(redisClient, audit.DefaultStream)

	backend, closeBackend, err := newStorageBackend(ctx, cfg.Storage)
	if err != nil {
		slog.Error("Failed to initialize object storage", "error", err)
		os.Exit(1)
	}
	store := storage.NewStore(backend, storage.Config{
		HeadshotBucket: cfg.Storage.HeadshotBucket,
		ResumeBucket:   cfg.Storage.ResumeBucket,
		PublicBaseURL:  cfg.Storage.PublicBaseURL,
	})

	provider := oidc.NewProvider(oidc.Config{
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		AuthURL:      cfg.Auth.AuthURL,
		TokenURL:     cfg.Auth.TokenURL,
		JWKSURL:      cfg.Auth.JWKSURL,
		Issuer:       cfg.Auth.Issuer,
		RedirectURL:  cfg.Auth.RedirectURL,
		Scopes:       cfg.Auth.Scopes,
		Timeout:      cfg.Auth.Timeout,
	})
	sessions := idp.NewRedisSessionStore(redisClient.GetClient(), cfg.Session.TTL)
	adapter := idp.NewAdapter(provider, sessions, idp.NewDomainPolicy(cfg.Auth.AllowedDomain), auditor)

	cookie := v1middleware.SessionCookie{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
		TTL:    cfg.Session.TTL,
	}

	// Portal routes: everything behind the session boundary
	appMux := http.NewServeMux()
	v1handlers.NewAuthHandler(provider, adapter, cookie).SetupAuthRoutes(appMux)
	v1handlers.NewV1Handler(gormDB, store, auditor).SetupV1Routes(appMux)

	routes := []string{"/auth/login", "/auth/callback", "/auth/logout", "/files/headshot", "/files/resume", "/rush/tracker/advance"}
	for _, page := range v1models.ProtectedPages {
		routes = append(routes, page.Path())
	}
	monitoring.RegisterRoutes(routes)

	// Apply middleware chain (CORS -> session) to the portal mux
	portalHandler := v1middleware.CORSMiddleware(v1middleware.DefaultCORSConfig(cfg.Security.AllowedOrigin))(
		v1middleware.SessionMiddleware(adapter, cookie)(appMux),
	)

	// Create the MAIN (top-level) mux for all incoming traffic
	topLevelMux := http.NewServeMux()
	topLevelMux.Handle("/health", utils.PanicRecoveryMiddleware(healthHandler(gormDB, redisClient, v1DbConfig.Database)))
	topLevelMux.Handle("/metrics", monitoring.Handler())
	topLevelMux.Handle("/", portalHandler)

	addr := ":" + cfg.Service.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      monitoring.HTTPMetricsMiddleware(topLevelMux),
		ReadTimeout:  cfg.Service.ReadTimeout,
		WriteTimeout: cfg.Service.WriteTimeout,
		IdleTimeout:  cfg.Service.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Portal Backend starting", "port", cfg.Service.Port, "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to start Portal Backend", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down Portal Backend...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	if shutdownMetrics != nil {
		if err := shutdownMetrics(shutdownCtx); err != nil {
			slog.Error("Failed to flush metrics", "error", err)
		}
	}
	if err := closeBackend(); err != nil {
		slog.Error("Failed to close storage client", "error", err)
	}
	if err := redisClient.Close(); err != nil {
		slog.Error("Failed to close Redis connection", "error", err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}

	slog.Info("Portal Backend exited")
}

func newStorageBackend(ctx context.Context, cfg config.StorageConfig) (storage.Backend, func() error, error) {
	if cfg.Backend == "memory" {
		slog.Warn("Using in-memory object storage; files are lost on restart")
		return storage.NewMemoryBackend(), func() error { return nil }, nil
	}
	gcs, err := storage.NewGCSBackend(ctx, cfg.CredentialsFile, cfg.Timeout)
	if err != nil {
		return nil, nil, err
	}
	return gcs, gcs.Close, nil
}

type componentHealth struct {
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Database string `json:"database,omitempty"`
}

type healthStatus struct {
	Status     string                     `json:"status"`
	Service    string                     `json:"service"`
	Components map[string]componentHealth `json:"components"`
}

func healthHandler(db *gorm.DB, redisClient *redis.RedisClient, database string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := healthStatus{
			Status:     "healthy",
			Service:    "portal-backend",
			Components: map[string]componentHealth{},
		}

		if sqlDB, err := db.DB(); err != nil {
			status.Components["database"] = componentHealth{Status: "unhealthy", Error: err.Error()}
		} else if err := sqlDB.PingContext(ctx); err != nil {
			status.Components["database"] = componentHealth{Status: "unhealthy", Error: err.Error()}
		} else {
			status.Components["database"] = componentHealth{Status: "healthy", Database: database}
		}

		if err := redisClient.Ping(ctx); err != nil {
			status.Components["redis"] = componentHealth{Status: "unhealthy", Error: err.Error()}
		} else {
			status.Components["redis"] = componentHealth{Status: "healthy"}
		}

		statusCode := http.StatusOK
		for _, component := range status.Components {
			if component.Status != "healthy" {
				status.Status = "unhealthy"
				statusCode = http.StatusServiceUnavailable
			}
		}

		utils.RespondWithJSON(w, statusCode, status)
	})
}
