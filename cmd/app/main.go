package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/osse101/DCM_Go/internal/bootstrap"
	"github.com/osse101/DCM_Go/internal/config"
	"github.com/osse101/DCM_Go/internal/server"
	"github.com/osse101/DCM_Go/internal/settlement"
	"github.com/osse101/DCM_Go/internal/sse"
)

const shutdownTimeout = 15 * time.Second

// @title DCM Settlement API
// @version 1.0
// @description Settles binary-outcome staking pools. Winners share the losing side's stake in proportion to stake weighted by leveraged confidence.
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logFile, err := bootstrap.SetupLogger(cfg, os.Stdout)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	warnings, err := config.ValidateEnvWithWarnings()
	if err != nil {
		return err
	}
	for _, w := range warnings {
		slog.Warn("Configuration warning", "warning", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.InitializeStorage(ctx, cfg)
	if err != nil {
		return err
	}

	bus, publisher, err := bootstrap.InitializeEventSystem(cfg)
	if err != nil {
		storage.Close()
		return err
	}

	hub := sse.NewHub()
	hub.Start()
	bootstrap.RegisterEventHandlers(bus, hub)

	svc := settlement.NewService(storage.Scenarios, publisher, settlement.Config{
		DefaultLeverageBound: cfg.DefaultLeverageBound,
		MaxLeverageBound:     cfg.MaxLeverageBound,
		MaxParticipants:      cfg.MaxParticipants,
		BatchConcurrency:     cfg.BatchConcurrency,
		CacheSize:            cfg.ScenarioCacheSize,
		CacheTTL:             cfg.ScenarioCacheTTL,
	})

	srv := server.NewServer(server.Config{
		Port:           cfg.Port,
		APIKey:         cfg.APIKey,
		TrustedProxies: cfg.TrustedProxies,
	}, svc, hub)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	bootstrap.GracefulShutdown(shutdownCtx, bootstrap.ShutdownComponents{
		Server:             srv,
		Settlement:         svc,
		ResilientPublisher: publisher,
		Storage:            storage,
	})

	return err
}
