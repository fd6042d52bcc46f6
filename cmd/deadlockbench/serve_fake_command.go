package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kakao/deadlockbench/internal/flags"
	"github.com/kakao/deadlockbench/pkg/deadlocktest"
)

func newCommandServeFake(commonFlags []cli.Flag) *cli.Command {
	return &cli.Command{
		Name:   "serve-fake",
		Usage:  "run a fake deadlock detector for dry runs",
		Flags:  append(flags.FakeFlags(), commonFlags...),
		Action: runServeFake,
	}
}

func runServeFake(c *cli.Context) error {
	if c.NArg() > 0 {
		return fmt.Errorf("unexpected args: %v", c.Args().Slice())
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := flags.NewLogger(c, "deadlockbench-fake.log")
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	mp, stopMeterProvider, err := newMeterProvider(ctx, c, "fake")
	if err != nil {
		return err
	}
	defer stopMeterProvider(logger)

	mode, err := deadlocktest.ParseMode(c.String(flags.FakeMode.Name))
	if err != nil {
		return err
	}
	grpcOptions, err := flags.ParseGRPCServerOptionFlags(c)
	if err != nil {
		return err
	}

	opts := []deadlocktest.Option{
		deadlocktest.WithMode(mode),
		deadlocktest.WithLogger(logger),
		deadlocktest.WithMeterProvider(mp),
		deadlocktest.WithGRPCServerOptions(grpcOptions...),
	}
	if c.Bool(flags.StatusHTTP.Name) {
		opts = append(opts, deadlocktest.WithHTTPStatus())
	}
	srv, err := deadlocktest.New(opts...)
	if err != nil {
		return err
	}

	lis, err := net.Listen("tcp", c.String(flags.Listen.Name))
	if err != nil {
		return err
	}

	errC := make(chan error, 1)
	go func() {
		errC <- srv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("caught signal", zap.Error(context.Cause(ctx)))
		srv.Stop()
		return <-errC
	case err := <-errC:
		return err
	}
}
