package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vanshika/finadvisor/backend/internal/auth"
	"github.com/vanshika/finadvisor/backend/internal/config"
	"github.com/vanshika/finadvisor/backend/internal/logging"
	"github.com/vanshika/finadvisor/backend/internal/metrics"
	"github.com/vanshika/finadvisor/backend/internal/repository"
	"github.com/vanshika/finadvisor/backend/internal/server"
	"github.com/vanshika/finadvisor/backend/internal/service"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Auth.InsecureSecret {
		logger.Warn("JWT_SECRET not set; using the development signing secret")
	}

	store, closeStore, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open account store: %w", err)
	}
	defer func() {
		if err := closeStore(context.Background()); err != nil {
			logger.Warn("closing account store failed", "error", err)
		}
	}()

	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	hasher, err := auth.NewHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	deps := server.RouterDependencies{
		Health:           server.StoreHealthService{Store: store},
		Environment:      cfg.Env,
		AllowedOrigins:   cfg.HTTP.AllowedOrigins(),
		AllowAllOrigins:  cfg.IsDevelopment(),
		AllowCredentials: true,
		AuthRateLimit:    cfg.HTTP.AuthRateLimit,
		AuthRateBurst:    cfg.HTTP.AuthRateBurst,
	}
	opts := []server.HandlerOption{server.WithErrorDetails(cfg.IsDevelopment())}
	if cfg.HTTP.MetricsEnabled {
		recorder := metrics.New()
		deps.Metrics = recorder
		opts = append(opts, server.WithAuthRecorder(recorder))
	}

	deps.API, err = server.NewAPIHandlers(logger,
		service.NewAccountService(store, hasher, issuer),
		service.NewProfileService(store),
		service.NewSettingsService(store),
		opts...,
	)
	if err != nil {
		return err
	}

	srv := server.New(logger, cfg.HTTP, server.NewRouter(logger, deps))
	listener, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", srv.Addr(), err)
	}
	logger.Info("finadvisor api ready", "environment", cfg.Env, "store", cfg.Store.Driver)
	return srv.Run(ctx, listener)
}
