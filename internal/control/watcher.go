package control

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/sigwatch/internal/alerting"
	"github.com/vietddude/sigwatch/internal/core/config"
	"github.com/vietddude/sigwatch/internal/core/domain"
	"github.com/vietddude/sigwatch/internal/infra/node"
	"github.com/vietddude/sigwatch/internal/infra/pagerduty"
	"github.com/vietddude/sigwatch/internal/monitoring/evaluator"
	"github.com/vietddude/sigwatch/internal/monitoring/health"
	"github.com/vietddude/sigwatch/internal/monitoring/scheduler"
)

// Watcher is the main application struct that manages the monitor lifecycle.
type Watcher struct {
	cfg          *config.AppConfig
	instanceID   string
	loop         *scheduler.Loop
	healthMon    *health.Monitor
	healthServer *health.Server
	log          *slog.Logger

	cancel context.CancelFunc
	group  *errgroup.Group
}

// Options tweak how the watcher is assembled.
type Options struct {
	// DryRun logs alerts instead of creating incidents.
	DryRun bool
	// Fetcher replaces the HTTP node client.
	Fetcher scheduler.BlockFetcher
	// Notifier replaces the PagerDuty client.
	Notifier alerting.Notifier
	// Clock replaces the system clock.
	Clock alerting.Clock
}

// NewWatcher creates a new Watcher instance with all dependencies initialized.
func NewWatcher(cfg *config.AppConfig, opts Options) (*Watcher, error) {
	if cfg == nil {
		return nil, domain.Errorf(domain.KindConfig, "init watcher", "config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	instanceID := uuid.NewString()
	log := slog.Default().With("instance", instanceID)

	// 1. Node client
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = node.NewClient(cfg.Node.URL, cfg.Node.Timeout)
	}

	// 2. Incident notifier
	notifier := opts.Notifier
	switch {
	case notifier != nil:
	case opts.DryRun:
		notifier = alerting.LogNotifier{}
		log.Warn("Dry run: alerts will be logged, not paged")
	default:
		notifier = pagerduty.NewClient(pagerduty.Config{
			BaseURL:    cfg.PagerDuty.URL,
			APIKey:     cfg.PagerDuty.APIKey,
			ServiceID:  cfg.PagerDuty.ServiceID,
			Email:      cfg.PagerDuty.Email,
			Timeout:    cfg.PagerDuty.Timeout,
			InstanceID: instanceID,
		})
	}

	// 3. Throttle + pager
	clock := opts.Clock
	if clock == nil {
		clock = alerting.SystemClock{}
	}
	throttle := alerting.NewThrottle(clock)
	pager := alerting.NewPager(throttle, notifier)

	// 4. Evaluator + loop
	state := evaluator.NewState()
	ev := evaluator.New(evaluator.Config{
		ValidatorAddress:         cfg.Monitor.ValidatorAddress,
		ChainName:                cfg.Monitor.ChainName,
		MaxBlockAge:              cfg.Monitor.MaxBlockAge,
		MaxConsecutiveMisses:     cfg.Monitor.MaxConsecutiveMisses,
		MaxConsecutiveExceptions: cfg.Monitor.MaxConsecutiveExceptions,
		Throttles: map[domain.AlertKey]time.Duration{
			domain.AlertNodeLag:          cfg.ThrottleFor(domain.AlertNodeLag),
			domain.AlertMissedSignatures: cfg.ThrottleFor(domain.AlertMissedSignatures),
			domain.AlertUnknownError:     cfg.ThrottleFor(domain.AlertUnknownError),
		},
		DefaultThrottle: cfg.Alerts.Throttle.Default,
	}, state, pager, clock)
	loop := scheduler.New(fetcher, ev, cfg.Monitor.PollInterval)

	// 5. Health monitor
	healthMon := health.NewMonitor(
		cfg.Monitor.ValidatorAddress,
		cfg.Monitor.ChainName,
		instanceID,
		health.Thresholds{
			MaxBlockAge:              cfg.Monitor.MaxBlockAge,
			MaxConsecutiveMisses:     cfg.Monitor.MaxConsecutiveMisses,
			MaxConsecutiveExceptions: cfg.Monitor.MaxConsecutiveExceptions,
		},
		state,
		throttle,
		loop,
		clock,
	)

	var healthServer *health.Server
	if cfg.Server.Port > 0 {
		healthServer = health.NewServer(healthMon, cfg.Server.Port)
	}

	return &Watcher{
		cfg:          cfg,
		instanceID:   instanceID,
		loop:         loop,
		healthMon:    healthMon,
		healthServer: healthServer,
		log:          log,
	}, nil
}

// Start starts the monitor loop and the health server in the background.
func (w *Watcher) Start(ctx context.Context) error {
	if w.group != nil {
		return fmt.Errorf("watcher already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)
	w.cancel = cancel
	w.group = group

	w.log.Info("Starting watcher",
		"node", w.cfg.Node.URL,
		"validator", w.cfg.Monitor.ValidatorAddress,
		"poll_interval", w.cfg.Monitor.PollInterval,
	)

	group.Go(func() error {
		return w.loop.Run(gctx)
	})

	if w.healthServer != nil {
		w.log.Info("Starting health server", "port", w.cfg.Server.Port)
		group.Go(func() error {
			if err := w.healthServer.Start(); err != nil {
				return fmt.Errorf("health server: %w", err)
			}
			return nil
		})
	}

	return nil
}

// Stop cancels the loop after its current iteration and shuts the health
// server down.
func (w *Watcher) Stop(ctx context.Context) error {
	w.log.Info("Stopping Watcher...")
	if w.group == nil {
		return nil
	}
	w.cancel()

	var stopErr error
	if w.healthServer != nil {
		stopErr = w.healthServer.Stop(ctx)
	}

	done := make(chan error, 1)
	go func() { done <- w.group.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
		return stopErr
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// CheckOnce runs a single iteration and returns the resulting report.
func (w *Watcher) CheckOnce(ctx context.Context) (health.HealthReport, error) {
	err := w.loop.RunOnce(ctx)
	return w.healthMon.CheckHealth(), err
}

// InstanceID identifies this process in logs and incidents.
func (w *Watcher) InstanceID() string {
	return w.instanceID
}
