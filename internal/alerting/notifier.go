package alerting

import (
	"context"
	"log/slog"

	"github.com/vietddude/sigwatch/internal/core/domain"
)

// Notifier delivers an alert to whoever is on call.
type Notifier interface {
	Notify(ctx context.Context, alert domain.Alert) error
}

// LogNotifier only writes the alert to the log. Used for dry runs.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, alert domain.Alert) error {
	slog.Warn("ALERT (dry run)", "key", alert.ResolvedKey(), "title", alert.Title, "details", alert.Details)
	return nil
}
