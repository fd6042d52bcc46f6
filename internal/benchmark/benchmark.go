// Package benchmark drives a deadlock detector with concurrent Detect
// streams and reports how many requests it handled per second.
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kakao/deadlockbench/pkg/rpc"
)

var errAlreadyRun = errors.New("benchmark: already run")

type Benchmark struct {
	config
	manager  *rpc.Manager[int]
	metrics  *metrics
	counters Counters
	running  atomic.Bool
}

func New(opts ...Option) (*Benchmark, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	m, err := newMetrics(cfg.meterProvider)
	if err != nil {
		return nil, err
	}

	manager, err := rpc.NewManager[int](
		rpc.WithDefaultGRPCDialOptions(cfg.grpcDialOptions...),
		rpc.WithConnKeepalive(cfg.keepaliveTime, cfg.keepaliveTimeout),
		rpc.WithLogger(cfg.logger),
	)
	if err != nil {
		return nil, err
	}

	return &Benchmark{
		config:  cfg,
		manager: manager,
		metrics: m,
	}, nil
}

// Run starts the detect workers and, if enabled, the clean-up worker, then
// waits for all of them. A failed worker does not stop the others. The
// summary is written to the output even if some workers failed, and their
// errors are returned together. Run can be called only once.
func (b *Benchmark) Run(ctx context.Context) (Summary, error) {
	if !b.running.CompareAndSwap(false, true) {
		return Summary{}, errAlreadyRun
	}

	b.logger.Info("start",
		zap.String("addr", b.addr),
		zap.Int("workers", b.workers),
		zap.Int("requests", b.requests),
		zap.Uint64("range", b.idRange),
		zap.Stringer("policy", b.policy),
		zap.Bool("cleanup", b.cleanUp),
	)

	start := time.Now()

	progressCtx, stopProgress := context.WithCancel(ctx)
	var progressWg sync.WaitGroup
	if b.reportInterval > 0 {
		progressWg.Add(1)
		go func() {
			defer progressWg.Done()
			b.reportProgress(progressCtx, start)
		}()
	}

	var (
		g      errgroup.Group
		mu     sync.Mutex
		errs   error
		failed int
	)
	goWorker := func(id int, kind string) {
		g.Go(func() error {
			err := b.runWorker(ctx, id, kind)
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s worker %d: %w", kind, id, err))
				failed++
				mu.Unlock()
			}
			return nil
		})
	}
	for id := 0; id < b.workers; id++ {
		goWorker(id, workerKindDetect)
	}
	if b.cleanUp {
		goWorker(b.workers, workerKindCleanUp)
	}
	_ = g.Wait()

	stopProgress()
	progressWg.Wait()

	summary := newSummary(&b.counters, time.Since(start), failed)
	buf, err := b.encoder.Encode(summary)
	if err != nil {
		return summary, multierr.Append(errs, err)
	}
	if _, err := fmt.Fprintln(b.output, string(buf)); err != nil {
		return summary, multierr.Append(errs, err)
	}

	b.logger.Info("finish",
		zap.Int64("requests", summary.Requests),
		zap.Duration("elapsed", summary.Elapsed),
		zap.Int64("deadlocks", summary.Deadlocks),
		zap.Int("failed", failed),
	)
	return summary, errs
}

func (b *Benchmark) runWorker(ctx context.Context, id int, kind string) error {
	w, err := b.newWorker(id, kind)
	if err != nil {
		return err
	}
	return w.run(ctx)
}

// Counters returns the counters shared by the workers.
func (b *Benchmark) Counters() *Counters {
	return &b.counters
}

// Close releases the connections.
func (b *Benchmark) Close() error {
	return b.manager.Close()
}
