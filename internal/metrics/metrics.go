package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "modbot_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "path"})
)

// Outbound reddit request metrics
var (
	RedditRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_reddit_requests_total",
		Help: "Total number of outbound requests to reddit",
	}, []string{"method", "result"})

	RedditRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "modbot_reddit_request_duration_seconds",
		Help:    "Outbound reddit request duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method"})
)

// Moderation workflow metrics
var (
	ChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_checks_total",
		Help: "Total number of post checks by classification outcome",
	}, []string{"outcome"})

	ApprovalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_approvals_total",
		Help: "Total number of approval attempts by result",
	}, []string{"result"})

	SweepRemovalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_sweep_removals_total",
		Help: "Total number of entries expired by the periodic sweep",
	}, []string{"kind"})
)

// Store gauges (updated periodically by the collector)
var (
	TrackedRequestersTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "modbot_tracked_requesters_total",
		Help: "Number of requester IPs with at least one recorded check",
	})

	LockedSubmittersTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "modbot_locked_submitters_total",
		Help: "Number of submitters currently under an approval lock",
	})

	PendingChecksTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "modbot_pending_checks_total",
		Help: "Number of cached pending check records",
	})

	SubredditsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "modbot_subreddits_loaded",
		Help: "Number of subreddits in the current allow-list",
	})
)

// NormalizePath reduces high-cardinality path labels. The server's route
// surface is small, so everything outside the known set collapses into one
// label.
func NormalizePath(path string) string {
	switch path {
	case "/", "/metrics", "/healthz":
		return path
	}
	return "/other"
}
