package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vanshika/finadvisor/backend/internal/auth"
	"github.com/vanshika/finadvisor/backend/internal/config"
	"github.com/vanshika/finadvisor/backend/internal/generator"
	"github.com/vanshika/finadvisor/backend/internal/logging"
	"github.com/vanshika/finadvisor/backend/internal/repository"
	"github.com/vanshika/finadvisor/backend/internal/service"
)

func main() {
	var (
		accountsPath = flag.String("accounts", "data/accounts.json", "Path to a JSON array of accounts produced by datagen")
		workers      = flag.Int("workers", 4, "Number of concurrent registration workers")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "seed")

	accounts, err := generator.ReadAccounts(*accountsPath)
	if err != nil {
		logger.Error("failed to load accounts", "error", err, "path", *accountsPath)
		os.Exit(1)
	}
	if len(accounts) == 0 {
		logger.Error("accounts file empty", "path", *accountsPath)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open account store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeStore(context.Background()); err != nil {
			logger.Warn("closing account store failed", "error", err)
		}
	}()

	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Error("failed to build session issuer", "error", err)
		os.Exit(1)
	}
	hasher, err := auth.NewHasher(cfg.Auth.BcryptCost)
	if err != nil {
		logger.Error("failed to build password hasher", "error", err)
		os.Exit(1)
	}

	inputs := make([]service.RegisterInput, len(accounts))
	for i, a := range accounts {
		inputs[i] = a.RegisterInput()
	}

	registrar := service.NewBulkRegistrar(service.NewAccountService(store, hasher, issuer), *workers)

	start := time.Now()
	logger.Info("registering accounts", "count", len(inputs), "workers", *workers, "store", cfg.Store.Driver)
	report, err := registrar.Register(ctx, inputs)

	var taskErr *service.TaskError
	switch {
	case err == nil:
	case errors.As(err, &taskErr):
		for _, e := range taskErr.Errors {
			logger.Warn("account not registered", "error", e)
		}
	default:
		logger.Error("seeding aborted", "error", err)
		os.Exit(1)
	}

	logger.Info("seeding complete",
		"duration", time.Since(start).String(),
		"created", report.Created,
		"duplicates", report.Duplicates,
		"failed", len(inputs)-report.Created-report.Duplicates,
	)
	if taskErr != nil {
		os.Exit(1)
	}
}
