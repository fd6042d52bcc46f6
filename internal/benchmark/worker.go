package benchmark

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pingcap/kvproto/pkg/deadlock"
	"go.uber.org/zap"

	"github.com/kakao/deadlockbench/internal/generator"
	"github.com/kakao/deadlockbench/internal/session"
	"github.com/kakao/deadlockbench/proto/deadlockpb"
)

const (
	stopReasonFinished  = "finished"
	stopReasonCleanedUp = "cleaned up"
)

// worker drives one session. A detect worker sends generated Detect requests
// followed by the sentinel pair and waits for the answer to the second
// sentinel. The clean-up worker sends the same kind of stream with every
// request turned into CleanUp, after a delay.
type worker struct {
	*Benchmark
	id     int
	kind   string
	gen    *generator.Generator
	logger *zap.Logger
}

func (b *Benchmark) newWorker(id int, kind string) (*worker, error) {
	opts := []generator.Option{
		generator.WithPolicy(b.policy),
		generator.WithRange(b.idRange),
	}
	if b.seed != 0 {
		opts = append(opts, generator.WithSeed(b.seed+uint64(id)))
	}
	gen, err := generator.New(opts...)
	if err != nil {
		return nil, err
	}
	return &worker{
		Benchmark: b,
		id:        id,
		kind:      kind,
		gen:       gen,
		logger:    b.logger.With(zap.Int("worker", id), zap.String("kind", kind)),
	}, nil
}

func (w *worker) run(ctx context.Context) (err error) {
	conn, err := w.manager.GetOrConnect(ctx, w.id, w.addr)
	if err != nil {
		return fmt.Errorf("%w: %w", session.ErrConnection, err)
	}
	defer func() {
		if cerr := w.manager.CloseClient(w.id); cerr != nil {
			w.logger.Warn("could not close connection", zap.Error(cerr))
		}
	}()

	sess, err := session.NewFromConn(conn,
		session.WithQueueCapacity(w.queueCapacity),
		session.WithLogger(w.logger),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	write, read, err := sess.RegisterHandler(ctx, w.handler(ctx))
	if err != nil {
		cancel()
		_ = sess.Close()
		return err
	}

	var wg sync.WaitGroup
	defer func() {
		cancel()
		_ = sess.Close()
		wg.Wait()
	}()

	start := time.Now()
	w.logger.Info("start", zap.Int("requests", w.requests))
	defer func() {
		elapsed := time.Since(start)
		w.metrics.recordWorker(ctx, w.kind, w.id, elapsed, err != nil)
		w.logger.Info("finish", zap.Int("requests", w.requests), zap.Duration("elapsed", elapsed), zap.Error(err))
	}()

	var delay time.Duration
	if w.kind == workerKindCleanUp {
		delay = w.cleanUpDelay
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.write(ctx, write, delay)
	}()

	if err := w.submit(ctx, sess); err != nil {
		return err
	}

	reason, err := read(ctx)
	if err != nil {
		return err
	}
	w.logger.Debug("stopped", zap.String("reason", reason))
	return nil
}

func (w *worker) write(ctx context.Context, write session.WriteTask, delay time.Duration) {
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
	err := write(ctx)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		w.logger.Debug("write stopped", zap.Error(err))
	default:
		w.logger.Warn("write failed", zap.Error(err))
	}
}

func (w *worker) submit(ctx context.Context, sess *session.Session) error {
	defer sess.CloseSubmit()

	for i := 0; i < w.requests; i++ {
		if w.kind == workerKindDetect && w.uniformPairCleanUp {
			detect, cleanUpWaitFor := w.gen.GeneratePair()
			if err := w.submitOne(ctx, sess, &detect); err != nil {
				return err
			}
			if err := w.submitOne(ctx, sess, &cleanUpWaitFor); err != nil {
				return err
			}
			continue
		}

		req := w.gen.Generate()
		if w.kind == workerKindCleanUp {
			req.Tp = deadlock.DeadlockRequestType_CleanUp
		}
		if err := w.submitOne(ctx, sess, &req); err != nil {
			return err
		}
	}

	first, second := w.gen.DeadlockEntries()
	if err := w.submitOne(ctx, sess, &first); err != nil {
		return err
	}
	return w.submitOne(ctx, sess, &second)
}

func (w *worker) submitOne(ctx context.Context, sess *session.Session, req *deadlock.DeadlockRequest) error {
	if err := sess.SubmitContext(ctx, req); err != nil {
		if errors.Is(err, session.ErrQueueClosed) {
			w.logger.Warn("could not submit", zap.Stringer("request", req), zap.Error(err))
		}
		return err
	}
	w.counters.SubmittedRequests.Add(1)
	w.metrics.submitted.Add(ctx, 1, workerAttributes(w.kind, w.id))
	return nil
}

func (w *worker) handler(ctx context.Context) session.Handler {
	attrs := workerAttributes(w.kind, w.id)
	if w.kind == workerKindCleanUp {
		return func(*deadlock.DeadlockResponse) session.Verdict {
			w.complete(ctx)
			return session.Stop(stopReasonCleanedUp)
		}
	}

	_, second := w.gen.DeadlockEntries()
	return func(rsp *deadlock.DeadlockResponse) session.Verdict {
		w.counters.DetectedDeadlocks.Add(1)
		w.metrics.deadlocks.Add(ctx, 1, attrs)
		if deadlockpb.SameEdge(rsp.Entry, second.Entry) {
			w.complete(ctx)
			return session.Stop(stopReasonFinished)
		}
		return session.Continue()
	}
}

func (w *worker) complete(ctx context.Context) {
	w.counters.CompletedRequests.Add(int64(w.requests))
	w.metrics.completed.Add(ctx, int64(w.requests), workerAttributes(w.kind, w.id))
}
