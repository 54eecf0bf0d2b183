package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"go-chi-calculator/internal/calculator"
	"go-chi-calculator/internal/config"
	"go-chi-calculator/internal/observability"
	"go-chi-calculator/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "calculator-api:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(""); err != nil {
		return err
	}

	// CALC_CONFIG names an optional YAML file; the environment overrides it.
	cfg, err := config.Load(os.Getenv("CALC_CONFIG"))
	if err != nil {
		return err
	}

	// Logger
	if err := observability.InitLogger(cfg.LogLevel); err != nil {
		return err
	}
	defer observability.SyncLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing, logs and metrics
	telemetryShutdown, err := initTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := telemetryShutdown(sctx); err != nil {
			observability.Logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	// Sessions
	store := calculator.NewStore(cfg.MaxSessions, cfg.SessionIdleTimeout)
	go store.Run(ctx, cfg.SweepInterval)

	registry, err := observability.NewRegistry(store)
	if err != nil {
		return err
	}

	// Router
	router := server.NewRouter(store, registry)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		observability.Logger.Info("server started",
			zap.String("addr", cfg.Addr),
			zap.String("service", cfg.ServiceName),
			zap.Bool("telemetry", cfg.Telemetry),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return waitForShutdown(ctx, srv, cfg, errCh)
}

func waitForShutdown(ctx context.Context, srv *http.Server, cfg config.Config, errCh <-chan error) error {
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	observability.Logger.Info("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(sctx)
}
