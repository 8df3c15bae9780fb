package alerting

import (
	"context"
	"log/slog"

	"github.com/vietddude/sigwatch/internal/core/domain"
	"github.com/vietddude/sigwatch/internal/monitoring/metrics"
)

// Pager runs alerts through the throttle and hands accepted ones to the
// notifier. Delivery failures, panics included, are logged and never returned.
type Pager struct {
	throttle *Throttle
	notifier Notifier
	log      *slog.Logger
}

// NewPager creates a pager.
func NewPager(throttle *Throttle, notifier Notifier) *Pager {
	return &Pager{
		throttle: throttle,
		notifier: notifier,
		log:      slog.Default().With("component", "pager"),
	}
}

// Page delivers alert unless its key fired within the alert's throttle window.
// It reports whether the alert got past the throttle. The throttle slot is
// spent even when delivery fails.
func (p *Pager) Page(ctx context.Context, alert domain.Alert) bool {
	key := alert.ResolvedKey()
	alert.Key = key
	if alert.RaisedAt.IsZero() {
		alert.RaisedAt = p.throttle.clock.Now()
	}

	if !p.throttle.ShouldAlert(key, alert.Throttle) {
		metrics.AlertsSuppressed.WithLabelValues(string(key)).Inc()
		p.log.Debug("Alert throttled", "key", key, "window", alert.Throttle)
		return false
	}

	p.log.Info("Paging", "title", alert.Title, "key", key)
	metrics.AlertsFired.WithLabelValues(string(key)).Inc()

	if err := p.deliver(ctx, alert); err != nil {
		metrics.NotifyErrors.WithLabelValues(string(key)).Inc()
		p.log.Error("Failed to deliver page", "key", key, "error", err)
	}
	return true
}

// deliver calls the notifier, turning a panic into a notify error.
func (p *Pager) deliver(ctx context.Context, alert domain.Alert) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.Errorf(domain.KindNotify, "notify", "panic: %v", r)
		}
	}()
	return p.notifier.Notify(ctx, alert)
}

// Throttle exposes the underlying throttle for status reporting.
func (p *Pager) Throttle() *Throttle {
	return p.throttle
}
