package calculator

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"go-chi-calculator/internal/equation"
)

// Metric instruments, initialized once via InitMetrics().
var (
	keysCounter        metric.Int64Counter
	evaluationsCounter metric.Int64Counter
	opsHistogram       metric.Float64Histogram
	errorCounter       metric.Int64Counter
	resultGauge        metric.Float64Gauge
)

// InitMetrics registers custom OTel metric instruments for the calculator domain.
// Call this once at startup (after observability.InitMetrics).
func InitMetrics() error {
	meter := otel.Meter("calculator")

	var err error

	keysCounter, err = meter.Int64Counter("calculator.keys.total",
		metric.WithDescription("Total number of calculator keys pressed"),
		metric.WithUnit("{key}"),
	)
	if err != nil {
		return fmt.Errorf("creating keys counter: %w", err)
	}

	evaluationsCounter, err = meter.Int64Counter("calculator.evaluations.total",
		metric.WithDescription("Total number of evaluations by outcome"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		return fmt.Errorf("creating evaluations counter: %w", err)
	}

	opsHistogram, err = meter.Float64Histogram("calculator.operation.duration",
		metric.WithDescription("Duration of calculator operations in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10),
	)
	if err != nil {
		return fmt.Errorf("creating ops histogram: %w", err)
	}

	errorCounter, err = meter.Int64Counter("calculator.errors.total",
		metric.WithDescription("Total number of calculator errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}

	resultGauge, err = meter.Float64Gauge("calculator.last_result",
		metric.WithDescription("The result of the last successful evaluation"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("creating result gauge: %w", err)
	}

	return nil
}

// outcome classifies an evaluated state for the evaluations counter.
func outcome(s equation.State) string {
	switch s.LastResult() {
	case equation.Undefined:
		return "undefined"
	case equation.Infinity, equation.NegativeInfinity:
		return "overflow"
	}
	return "ok"
}

func recordKeys(ctx context.Context, keys []equation.Key) {
	for _, k := range keys {
		keysCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", k.Kind.String())))
	}
}

// recordEvaluation counts an evaluation and, when it produced a number,
// publishes it on the result gauge.
func recordEvaluation(ctx context.Context, opName string, s equation.State) {
	evaluationsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", opName),
		attribute.String("outcome", outcome(s)),
	))

	if s.Failed() {
		return
	}
	if v, ok := numeric(s.LastResult()); ok {
		resultGauge.Record(ctx, v, metric.WithAttributes(attribute.String("operation", opName)))
	}
}
