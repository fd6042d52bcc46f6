// Package telemetry builds OpenTelemetry meter providers for the benchmark
// and the fake detector.
package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/contrib/instrumentation/host"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	metricsdk "go.opentelemetry.io/otel/sdk/metric"
)

// StopMeterProvider flushes and stops both the meter provider and its
// exporter.
type StopMeterProvider func(context.Context) error

// NewMeterProvider creates a meter provider and its stop function. Without an
// exporter it returns a no-op provider.
func NewMeterProvider(opts ...MeterProviderOption) (metric.MeterProvider, StopMeterProvider, error) {
	cfg := newMeterProviderConfig(opts)

	stop := func(context.Context) error { return nil }

	if cfg.exporter == nil {
		return noopmetric.NewMeterProvider(), stop, nil
	}

	mp := metricsdk.NewMeterProvider(
		metricsdk.WithResource(cfg.resource),
		metricsdk.WithReader(metricsdk.NewPeriodicReader(cfg.exporter)),
	)
	stop = func(ctx context.Context) error {
		// Shutting down the provider shuts down the reader, which shuts
		// down the exporter.
		return mp.Shutdown(ctx)
	}

	if cfg.hostInstrumentation {
		if err := host.Start(host.WithMeterProvider(mp)); err != nil {
			return nil, stop, errors.Join(err, stop(context.Background()))
		}
	}
	if cfg.runtimeInstrumentation {
		runtimeOpts := append(cfg.runtimeInstrumentationOpts, runtime.WithMeterProvider(mp))
		if err := runtime.Start(runtimeOpts...); err != nil {
			return nil, stop, errors.Join(err, stop(context.Background()))
		}
	}

	return mp, stop, nil
}

func SetGlobalMeterProvider(mp metric.MeterProvider) {
	otel.SetMeterProvider(mp)
}
