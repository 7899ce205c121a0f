package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AsyncRunner runs background work detached from the request that triggered
// it. Failures are logged with the task name and swallowed; a panic in a
// task never takes down the process. This is the availability-over-
// consistency tradeoff for re-linking and telemetry: a block's search and
// recommendation visibility may briefly lag its latest content.
type AsyncRunner struct {
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsyncRunner creates a runner whose tasks get a fresh context bounded
// by timeout.
func NewAsyncRunner(logger *zap.Logger, timeout time.Duration) *AsyncRunner {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &AsyncRunner{logger: logger, timeout: timeout}
}

// Go schedules fn on its own goroutine. The caller returns immediately.
func (r *AsyncRunner) Go(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("background task panicked",
					zap.String("task", name),
					zap.Any("panic", rec),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			r.logger.Warn("background task failed",
				zap.String("task", name),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			return
		}
		r.logger.Debug("background task completed",
			zap.String("task", name),
			zap.Duration("duration", time.Since(start)),
		)
	}()
}

// Wait blocks until all scheduled tasks finish. Used on shutdown and by
// tests that need deterministic completion.
func (r *AsyncRunner) Wait() {
	r.wg.Wait()
}
