// Package scheduler drives the evaluator on a fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vietddude/sigwatch/internal/core/domain"
	"github.com/vietddude/sigwatch/internal/monitoring/evaluator"
	"github.com/vietddude/sigwatch/internal/monitoring/metrics"
)

// BlockFetcher returns the latest block seen by the node.
type BlockFetcher interface {
	FetchLatestBlock(ctx context.Context) (*domain.BlockSnapshot, error)
}

// Sleeper waits for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// Loop polls the node, evaluates the block and sleeps, forever. No error
// from an iteration ever leaves the loop.
type Loop struct {
	fetcher   BlockFetcher
	evaluator *evaluator.Evaluator
	interval  time.Duration
	sleep     Sleeper
	running   atomic.Bool
	log       *slog.Logger
}

// New creates a loop polling every interval.
func New(fetcher BlockFetcher, ev *evaluator.Evaluator, interval time.Duration) *Loop {
	return &Loop{
		fetcher:   fetcher,
		evaluator: ev,
		interval:  interval,
		sleep:     SleepContext,
		log:       slog.Default().With("component", "monitor"),
	}
}

// SetSleeper replaces the wait between iterations.
func (l *Loop) SetSleeper(s Sleeper) {
	l.sleep = s
}

// Run starts polling immediately and returns when ctx is cancelled. An
// in-flight iteration is allowed to finish.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return fmt.Errorf("monitor loop already running")
	}
	defer l.running.Store(false)

	l.log.Info("Starting monitor loop", "interval", l.interval)
	for {
		_ = l.RunOnce(ctx)

		if err := l.sleep(ctx, l.interval); err != nil {
			l.log.Info("Monitor loop stopped")
			return nil
		}
	}
}

// RunOnce performs a single health check. The returned error has already
// been counted; callers only need it for reporting. A failure caused by ctx
// being cancelled is not counted.
func (l *Loop) RunOnce(ctx context.Context) error {
	l.log.Debug("Running health checks")

	err := l.check(ctx)
	if err != nil && ctx.Err() != nil {
		// Shutting down: the failure comes from the cancelled context, not
		// from the node.
		l.log.Debug("Health check interrupted", "error", err)
		return err
	}
	if err != nil {
		metrics.PollsTotal.WithLabelValues(string(domain.KindOf(err))).Inc()
		l.evaluator.RecordFailure(ctx, err)
		return err
	}

	metrics.PollsTotal.WithLabelValues("ok").Inc()
	status := l.evaluator.State().Status()
	l.log.Info("Health check complete",
		"height", status.LastHeight,
		"signed", status.LastSigned,
		"consecutive_misses", status.ConsecutiveMisses,
		"consecutive_exceptions", status.ConsecutiveExceptions,
	)
	return nil
}

func (l *Loop) check(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.Errorf(domain.KindEvaluation, "health check", "panic: %v", r)
		}
	}()

	snap, err := l.fetcher.FetchLatestBlock(ctx)
	if err != nil {
		if domain.KindOf(err) == domain.KindUnknown {
			err = domain.NewError(domain.KindFetch, "fetch latest block", err)
		}
		return err
	}
	l.log.Debug("Fetched latest block", "height", snap.Height)

	return l.evaluator.Evaluate(ctx, snap)
}

// Running reports whether Run is active.
func (l *Loop) Running() bool {
	return l.running.Load()
}

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
