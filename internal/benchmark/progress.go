package benchmark

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kakao/deadlockbench/pkg/util/units"
)

func (b *Benchmark) reportProgress(ctx context.Context, start time.Time) {
	timer := time.NewTimer(b.reportInterval)
	defer timer.Stop()

	var (
		last          = start
		lastSubmitted int64
	)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-timer.C:
			submitted := b.counters.SubmittedRequests.Load()
			b.logger.Info("progress",
				zap.Int64("submitted", submitted),
				zap.Int64("completed", b.counters.CompletedRequests.Load()),
				zap.Int64("deadlocks", b.counters.DetectedDeadlocks.Load()),
				zap.String("submitRate", units.ToRateString(submitted-lastSubmitted, now.Sub(last), 4)),
				zap.Duration("elapsed", now.Sub(start)),
			)
			last, lastSubmitted = now, submitted
			timer.Reset(b.reportInterval)
		}
	}
}
