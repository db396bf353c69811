package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contas/internal/adapters"
	"contas/internal/api"
	"contas/internal/auth"
	"contas/internal/cache"
	"contas/internal/cli"
	"contas/internal/log"
	"contas/internal/query"
	"contas/internal/services"
	"contas/internal/ui"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel)

	store := cli.OpenStore(logger, cfg.SQLiteDBPath)
	defer store.Close()

	client, err := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, store, store, logger)
	if err != nil {
		logger.Error("failed to initialize API client", log.FieldError, err)
		os.Exit(1)
	}

	conv, err := adapters.ByName(cfg.WireConvention)
	if err != nil {
		logger.Error("failed to select wire convention", log.FieldError, err)
		os.Exit(1)
	}

	manager := auth.NewManager(client, store, logger)

	cacheManager := cache.NewManager()
	defer cacheManager.Stop()

	queries := query.New(
		services.NewTransactionService(client, conv, logger),
		services.NewCategoryService(client, logger),
		cfg, cacheManager, logger,
	)
	cacheManager.StartCleanup(time.Minute)
	notifier := ui.NewNotifier(os.Stdout)
	queries.SetNotifier(notifier)
	queries.SetSessionExpiredHandler(func() {
		notifier.Error("session expired, sign in again with `contas login`")
	})

	app := &cli.App{
		Auth:     manager,
		Guard:    auth.NewGuard(manager),
		Queries:  queries,
		Prefs:    store,
		PageSize: cfg.DefaultPageSize,
		In:       os.Stdin,
		Out:      os.Stdout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "contas: %v\n", err)
		os.Exit(1)
	}
}
