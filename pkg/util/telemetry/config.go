package telemetry

import (
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	metricsdk "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

type meterProviderConfig struct {
	resource *resource.Resource
	exporter metricsdk.Exporter

	hostInstrumentation bool

	runtimeInstrumentation     bool
	runtimeInstrumentationOpts []runtime.Option
}

func newMeterProviderConfig(opts []MeterProviderOption) meterProviderConfig {
	cfg := meterProviderConfig{
		resource: resource.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// MeterProviderOption configures NewMeterProvider.
type MeterProviderOption func(*meterProviderConfig)

func WithResource(resource *resource.Resource) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.resource = resource
	}
}

// WithExporter sets the exporter read periodically by the meter provider. A
// nil exporter makes NewMeterProvider return a no-op provider.
func WithExporter(exporter metricsdk.Exporter) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.exporter = exporter
	}
}

// WithHostInstrumentation exports host metrics such as CPU and memory usage.
func WithHostInstrumentation() MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.hostInstrumentation = true
	}
}

// WithRuntimeInstrumentation exports Go runtime metrics.
func WithRuntimeInstrumentation(opts ...runtime.Option) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.runtimeInstrumentation = true
		cfg.runtimeInstrumentationOpts = opts
	}
}
