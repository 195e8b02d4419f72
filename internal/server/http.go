package server

import (
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/healthmate/healthmate/internal/cache"
	"github.com/healthmate/healthmate/internal/config"
	"github.com/healthmate/healthmate/internal/database"
	"github.com/healthmate/healthmate/internal/domain/auth"
	"github.com/healthmate/healthmate/internal/domain/preference"
	"github.com/healthmate/healthmate/internal/domain/session"
	"github.com/healthmate/healthmate/internal/domain/syscfg"
	"github.com/healthmate/healthmate/internal/domain/user"
	"github.com/healthmate/healthmate/internal/migrations"
)

// Start initializes and starts the HTTP server
func Start(cfg *config.Config, env *config.Environment) error {
	initLogger(cfg.Logging.Level)

	app := fiber.New()

	if err := database.ConnectDB(cfg); err != nil {
		slog.Error("Failed to connect to database", "error", err)
		return err
	}
	slog.Info("Database connected successfully")

	if err := migrations.RunMigrations(database.DB); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return err
	}
	slog.Info("Migrations completed successfully")

	var revocations *cache.RevocationCache
	if cfg.Redis.Enabled {
		if err := cache.ConnectRedis(&cfg.Redis); err != nil {
			// the database check still enforces revocation without the cache
			slog.Warn("Redis unavailable, running without revocation cache", "error", err)
		} else {
			revocations = cache.NewRevocationCache(cache.RedisClient)
		}
	}

	secret := env.JWTSecret
	if secret == "" {
		if env.Environment == config.EnvironmentProduction {
			slog.Error("JWT_SECRET is required in production")
			return os.ErrInvalid
		}
		slog.Warn("JWT_SECRET not set, using development fallback")
		secret = "fallback_secret"
	}

	signer, err := auth.NewTokenSigner([]byte(secret), cfg.Auth.Issuer)
	if err != nil {
		slog.Error("Failed to initialize token signer", "error", err)
		return err
	}

	userRepo := user.NewRepository(database.DB)
	sessionRepo := session.NewRepository(database.DB)
	prefRepo := preference.NewRepository(database.DB)
	settings := syscfg.NewService(database.DB)

	issuer := auth.NewIssuer(userRepo, sessionRepo, settings, signer)
	validator := auth.NewValidatorWithCache(userRepo, sessionRepo, signer, revocations)
	authService := auth.NewService(userRepo, sessionRepo, prefRepo, issuer, validator, revocations)
	policy := auth.NewSessionPolicy(sessionRepo, settings)
	authHandler := auth.NewHandler(authService, validator)

	SetupRoutes(app, authHandler, validator, policy)

	go runSessionCleanup(authService)

	addr := cfg.Server.Address()
	slog.Info("Server starting", "address", addr)
	if err := app.Listen(addr); err != nil {
		slog.Error("Failed to start server", "error", err)
		return err
	}

	return nil
}

// runSessionCleanup deletes expired session rows once an hour
func runSessionCleanup(svc auth.AuthService) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		deleted, err := svc.CleanupExpiredSessions()
		if err != nil {
			slog.Warn("Expired session cleanup failed", "error", err)
			continue
		}
		if deleted > 0 {
			slog.Info("Cleaned up expired sessions", "deleted", deleted)
		}
	}
}

func initLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	slog.SetDefault(slog.New(handler))
}
