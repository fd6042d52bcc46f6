package benchmark

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/kakao/deadlockbench/internal/benchmark"

const (
	workerKindDetect  = "detect"
	workerKindCleanUp = "cleanup"
)

type metrics struct {
	completed metric.Int64Counter
	deadlocks metric.Int64Counter
	submitted metric.Int64Counter
	duration  metric.Float64Histogram
}

func newMetrics(mp metric.MeterProvider) (*metrics, error) {
	meter := mp.Meter(meterName)
	var (
		m   metrics
		err error
	)
	m.completed, err = meter.Int64Counter(
		"deadlockbench.requests.completed",
		metric.WithDescription("Number of generated requests handled by the detector"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	m.deadlocks, err = meter.Int64Counter(
		"deadlockbench.deadlocks.detected",
		metric.WithDescription("Number of responses received by detect workers"),
		metric.WithUnit("{response}"),
	)
	if err != nil {
		return nil, err
	}
	m.submitted, err = meter.Int64Counter(
		"deadlockbench.requests.submitted",
		metric.WithDescription("Number of requests queued for sending"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	m.duration, err = meter.Float64Histogram(
		"deadlockbench.worker.duration",
		metric.WithDescription("Time taken by a worker from its first request to its last response"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func workerAttributes(kind string, id int) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("worker.kind", kind),
		attribute.Int("worker.id", id),
	)
}

func (m *metrics) recordWorker(ctx context.Context, kind string, id int, elapsed time.Duration, failed bool) {
	attrs := metric.WithAttributes(
		attribute.String("worker.kind", kind),
		attribute.Int("worker.id", id),
		attribute.Bool("worker.failed", failed),
	)
	m.duration.Record(ctx, float64(elapsed.Microseconds())/1000.0, attrs)
}
