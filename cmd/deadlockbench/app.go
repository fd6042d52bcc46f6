package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/kakao/deadlockbench/internal/benchmark"
	"github.com/kakao/deadlockbench/internal/buildinfo"
	"github.com/kakao/deadlockbench/internal/flags"
	"github.com/kakao/deadlockbench/pkg/util/telemetry"
)

const (
	appName     = "deadlockbench"
	logFileName = "deadlockbench.log"
)

func newApp() *cli.App {
	var commonFlags []cli.Flag
	commonFlags = append(commonFlags, flags.LoggerFlags()...)
	commonFlags = append(commonFlags, flags.TelemetryFlags()...)

	return &cli.App{
		Name:    appName,
		Usage:   "load generator for the deadlock detector",
		Version: buildinfo.ReadVersionInfo().String(),
		Flags:   append(flags.BenchmarkFlags(), commonFlags...),
		Action:  runBenchmark,
		Commands: []*cli.Command{
			newCommandServeFake(commonFlags),
		},
	}
}

func runBenchmark(c *cli.Context) error {
	if c.NArg() > 0 {
		return fmt.Errorf("unexpected args: %v", c.Args().Slice())
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := flags.NewLogger(c, logFileName)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	mp, stopMeterProvider, err := newMeterProvider(ctx, c, "bench")
	if err != nil {
		return err
	}
	defer stopMeterProvider(logger)

	opts, err := flags.ParseBenchmarkFlags(c)
	if err != nil {
		return err
	}
	opts = append(opts,
		benchmark.WithLogger(logger),
		benchmark.WithMeterProvider(mp),
		benchmark.WithOutput(c.App.Writer),
	)

	bm, err := benchmark.New(opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := bm.Close(); err != nil {
			logger.Warn("could not close benchmark", zap.Error(err))
		}
	}()

	_, err = bm.Run(ctx)
	return err
}

func newMeterProvider(ctx context.Context, c *cli.Context, instanceID string) (metric.MeterProvider, func(*zap.Logger), error) {
	opts, err := flags.ParseTelemetryFlags(ctx, c, appName, instanceID)
	if err != nil {
		return nil, nil, err
	}
	mp, stop, err := telemetry.NewMeterProvider(opts...)
	if err != nil {
		return nil, nil, err
	}
	telemetry.SetGlobalMeterProvider(mp)

	return mp, func(logger *zap.Logger) {
		ctx, cancel := context.WithTimeout(context.Background(), c.Duration(flags.TelemetryExporterStopTimeout.Name))
		defer cancel()
		if err := stop(ctx); err != nil {
			logger.Warn("could not stop meter provider", zap.Error(err))
		}
	}, nil
}
