package executor

import (
	"context"
	"fmt"
	"time"

	"dca-trade-bot-go/internal/strategy"

	"go.uber.org/zap"
)

// Fixed pause after a failed tick before the loop resumes.
const defaultErrorBackoff = 5 * time.Second

// Executor owns the strategy instance and drives it on a fixed tick
// cadence. Tick-level errors are logged and followed by a backoff
// sleep; they never terminate the loop. Cancelling the run context
// stops the loop between iterations, never mid-tick.
type Executor struct {
	strategy strategy.Strategy
	logger   *zap.Logger
	tick     time.Duration
	backoff  time.Duration
}

// New creates an executor for the given strategy and tick interval.
func New(strat strategy.Strategy, tick time.Duration, logger *zap.Logger) *Executor {
	return &Executor{
		strategy: strat,
		logger:   logger.Named("executor"),
		tick:     tick,
		backoff:  defaultErrorBackoff,
	}
}

// Run starts the strategy and loops until ctx is cancelled, then stops
// the strategy. A strategy start failure is fatal and returned as-is.
func (e *Executor) Run(ctx context.Context) error {
	e.logger.Info("Starting executor loop",
		zap.String("strategy", e.strategy.Name()),
		zap.Duration("tick", e.tick),
	)

	// Shutdown only gates the next iteration: in-flight work (exchange
	// calls, DB writes) always runs to completion, so tickCtx survives
	// cancellation of the run context.
	tickCtx := context.WithoutCancel(ctx)

	if err := e.strategy.Start(tickCtx); err != nil {
		return fmt.Errorf("strategy start failed: %w", err)
	}

	for ctx.Err() == nil {
		if err := e.strategy.OnTick(tickCtx); err != nil {
			e.logger.Error("Tick failed", zap.Error(err))
			if !e.sleep(ctx, e.backoff) {
				break
			}
			continue
		}
		if !e.sleep(ctx, e.tick) {
			break
		}
	}

	e.logger.Info("Stopping executor loop")
	// Shutdown runs to completion even though the run context is gone.
	return e.strategy.Stop(context.Background())
}

// sleep waits for d, returning false if ctx is cancelled first.
func (e *Executor) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
