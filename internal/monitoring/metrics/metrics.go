package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PollsTotal counts monitor iterations by outcome (ok, fetch, evaluation)
	PollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sigwatch_polls_total",
			Help: "Total number of monitor iterations",
		},
		[]string{"outcome"},
	)

	// FetchLatency tracks node API latency
	FetchLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sigwatch_node_fetch_latency_seconds",
			Help:    "Latency of the node block request in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// LatestBlockHeight tracks the height of the last evaluated block
	LatestBlockHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sigwatch_latest_block_height",
			Help: "Height of the last block evaluated",
		},
	)

	// BlockAgeSeconds tracks the distance between local time and block time
	BlockAgeSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sigwatch_block_age_seconds",
			Help: "Absolute difference between system time and latest block time",
		},
	)

	// ConsecutiveMisses mirrors the evaluator's missed signature counter
	ConsecutiveMisses = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sigwatch_consecutive_missed_signatures",
			Help: "Number of consecutive blocks not signed by the validator",
		},
	)

	// ConsecutiveExceptions mirrors the evaluator's error counter
	ConsecutiveExceptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sigwatch_consecutive_exceptions",
			Help: "Number of consecutive failed iterations",
		},
	)

	// AlertsFired counts alerts that passed the throttle
	AlertsFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sigwatch_alerts_fired_total",
			Help: "Total number of alerts handed to the notifier",
		},
		[]string{"key"},
	)

	// AlertsSuppressed counts alerts dropped by the throttle
	AlertsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sigwatch_alerts_suppressed_total",
			Help: "Total number of alerts suppressed by the throttle",
		},
		[]string{"key"},
	)

	// NotifyErrors counts failed deliveries to the incident service
	NotifyErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sigwatch_notify_errors_total",
			Help: "Total number of failed incident deliveries",
		},
		[]string{"key"},
	)
)
