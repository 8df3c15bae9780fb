// Package evaluator inspects one block snapshot at a time, keeps the
// consecutive miss/exception counters and requests pages when they cross
// their thresholds.
package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/sigwatch/internal/alerting"
	"github.com/vietddude/sigwatch/internal/core/domain"
	"github.com/vietddude/sigwatch/internal/monitoring/metrics"
)

// DefaultThrottle is used when neither the key nor Config.DefaultThrottle has
// a window.
const DefaultThrottle = 5 * time.Minute

// Pager accepts alert requests. Throttling is the pager's business.
type Pager interface {
	Page(ctx context.Context, alert domain.Alert) bool
}

// Config holds the validator under watch and the paging thresholds.
type Config struct {
	ValidatorAddress         string
	ChainName                string
	MaxBlockAge              time.Duration
	MaxConsecutiveMisses     int
	MaxConsecutiveExceptions int
	Throttles                map[domain.AlertKey]time.Duration
	DefaultThrottle          time.Duration
}

// Evaluator is the health decision logic.
type Evaluator struct {
	cfg   Config
	state *State
	pager Pager
	clock alerting.Clock
	log   *slog.Logger
}

// New creates an evaluator working on state. A nil clock means the system
// clock.
func New(cfg Config, state *State, pager Pager, clock alerting.Clock) *Evaluator {
	if clock == nil {
		clock = alerting.SystemClock{}
	}
	return &Evaluator{
		cfg:   cfg,
		state: state,
		pager: pager,
		clock: clock,
		log:   slog.Default().With("component", "evaluator"),
	}
}

// State returns the counters this evaluator mutates.
func (e *Evaluator) State() *State {
	return e.state
}

// Evaluate checks block freshness and the validator's signature, updates the
// counters and requests pages. Only a malformed snapshot is an error; in that
// case no counter is touched.
func (e *Evaluator) Evaluate(ctx context.Context, snap *domain.BlockSnapshot) error {
	if err := validate(snap); err != nil {
		return err
	}

	now := e.clock.Now()

	// Node lag
	delta := now.Sub(snap.Time)
	if delta < 0 {
		delta = -delta
	}
	metrics.BlockAgeSeconds.Set(delta.Seconds())
	metrics.LatestBlockHeight.Set(float64(snap.Height))

	if delta > e.cfg.MaxBlockAge {
		e.log.Warn("Node is lagging", "height", snap.Height, "block_time", snap.Time, "delta", delta)
		e.page(ctx, domain.AlertNodeLag, "Node is lagging",
			fmt.Sprintf("System Time: %s, Block Time: %s. Is the %s network stalled?",
				now.UTC().Format(time.RFC3339), snap.Time.UTC().Format(time.RFC3339), e.cfg.ChainName))
	}

	// Signature
	signed := snap.SignedBy(e.cfg.ValidatorAddress)
	misses := e.state.recordSignature(signed)
	metrics.ConsecutiveMisses.Set(float64(misses))
	if !signed {
		e.log.Warn("Missed signature", "height", snap.Height, "consecutive_misses", misses)
	}

	// Re-requested every iteration while over threshold; the throttle
	// decides what reaches the pager.
	if misses > e.cfg.MaxConsecutiveMisses {
		e.page(ctx, domain.AlertMissedSignatures, "Missing Signatures",
			fmt.Sprintf("Consecutive misses: %d", misses))
	}

	e.state.recordSuccess(snap.Height, snap.Time, now)
	metrics.ConsecutiveExceptions.Set(0)
	return nil
}

// RecordFailure counts a failed iteration and pages once the count exceeds
// the threshold. Like missed signatures, it re-requests on every failure
// while over threshold.
func (e *Evaluator) RecordFailure(ctx context.Context, err error) {
	count := e.state.recordFailure(err.Error())
	metrics.ConsecutiveExceptions.Set(float64(count))

	e.log.Error("Health check failed", "error", err, "kind", domain.KindOf(err), "consecutive_exceptions", count)

	if count > e.cfg.MaxConsecutiveExceptions {
		e.page(ctx, domain.AlertUnknownError, "Unknown error", err.Error())
	}
}

func (e *Evaluator) page(ctx context.Context, key domain.AlertKey, title, details string) {
	window, ok := e.cfg.Throttles[key]
	if !ok {
		window = e.cfg.DefaultThrottle
		if window == 0 {
			window = DefaultThrottle
		}
	}
	e.pager.Page(ctx, domain.Alert{
		Key:      key,
		Title:    title,
		Details:  details,
		Throttle: window,
		RaisedAt: e.clock.Now(),
	})
}

func validate(snap *domain.BlockSnapshot) error {
	switch {
	case snap == nil:
		return domain.Errorf(domain.KindEvaluation, "evaluate block", "no block snapshot")
	case snap.Time.IsZero():
		return domain.Errorf(domain.KindEvaluation, "evaluate block", "block %d has no header time", snap.Height)
	case snap.Signers == nil:
		return domain.Errorf(domain.KindEvaluation, "evaluate block", "block %d has no last commit signatures", snap.Height)
	}
	return nil
}
