package main

import (
	"context"
	"errors"

	"go-chi-calculator/internal/calculator"
	"go-chi-calculator/internal/config"
	"go-chi-calculator/internal/observability"
)

// initTelemetry starts the OTLP trace, log and metric exporters when
// telemetry is enabled, then creates the calculator instruments. The returned
// func flushes and stops every exporter that was started.
func initTelemetry(ctx context.Context, cfg config.Config) (func(context.Context) error, error) {
	var shutdowns []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}

	if cfg.Telemetry {
		for _, start := range []func(context.Context, string) (func(context.Context) error, error){
			observability.InitTracing,
			observability.InitLogging,
			observability.InitMetrics,
		} {
			stop, err := start(ctx, cfg.ServiceName)
			if err != nil {
				return nil, errors.Join(err, shutdown(ctx))
			}
			shutdowns = append(shutdowns, stop)
		}
	}

	// Without a meter provider the instruments are no-ops.
	if err := calculator.InitMetrics(); err != nil {
		return nil, errors.Join(err, shutdown(ctx))
	}

	return shutdown, nil
}
