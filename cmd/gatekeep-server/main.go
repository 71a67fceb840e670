// Package main is the entry point for the Gatekeep server, a minimal
// username/password authentication backend.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gatekeep/gatekeep/internal/cache/memory"
	rediscache "github.com/gatekeep/gatekeep/internal/cache/redis"
	"github.com/gatekeep/gatekeep/internal/config"
	"github.com/gatekeep/gatekeep/internal/handler"
	"github.com/gatekeep/gatekeep/internal/metrics"
	"github.com/gatekeep/gatekeep/internal/repository"
	"github.com/gatekeep/gatekeep/internal/repository/postgres"
	"github.com/gatekeep/gatekeep/internal/repository/sqlite"
	"github.com/gatekeep/gatekeep/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// database is the surface the server needs from either backend.
type database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg.Logging)

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting Gatekeep server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	var (
		db       database
		userRepo repository.UserRepository
	)
	switch cfg.Database.Driver {
	case "sqlite":
		sdb, err := sqlite.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open database")
		}
		db = sdb
		userRepo = sqlite.NewUserRepository(sdb)
	case "postgres":
		pdb, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open database")
		}
		db = pdb
		userRepo = postgres.NewUserRepository(pdb)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}

	// Optional read-through cache for user lookups.
	if cfg.Auth.CacheTTL > 0 {
		var userCache repository.Cache
		if cfg.Redis.Enabled {
			rc, err := rediscache.NewCache(ctx, cfg.Redis, logger)
			if err != nil {
				logger.Fatal().Err(err).Msg("failed to connect to Redis")
			}
			defer rc.Close()
			userCache = rc
		} else {
			mc := memory.NewCache()
			defer mc.Stop()
			userCache = mc
		}
		userRepo = repository.NewCachedUserRepository(userRepo, userCache, cfg.Auth.CacheTTL, logger)
	}

	// Services
	authService := service.NewAuthService(userRepo, logger)
	tokenService := service.NewTokenService(cfg.Auth.TokenSecret, cfg.Auth.TokenExpiry)

	// Metrics are always collected; the config flag controls whether the
	// scrape endpoint is exposed.
	m := metrics.New()
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}

	// HTTP surface
	authHandler := handler.NewAuthHandler(handler.AuthHandlerConfig{
		AuthService:  authService,
		TokenService: tokenService,
		Metrics:      m,
		PasswordMin:  cfg.Auth.PasswordMinLength,
		PasswordMax:  cfg.Auth.PasswordMaxLength,
		Logger:       logger,
	})

	router := handler.NewRouter(handler.RouterConfig{
		AuthHandler: authHandler,
		Database:    db,
		Metrics:     m,
		MetricsPath: metricsPath,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// newLogger builds the root logger from configuration.
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}

	return logger.Level(level).With().Timestamp().Logger()
}
