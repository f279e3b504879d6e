// Package metrics defines and registers all custom Prometheus metrics for
// the dashboard session subsystem. It is the single source of truth for
// metric names, labels, and help strings.
//
// Metrics use promauto and register with the default registry at package
// load; the edge server exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dashboard_session"

// ── Transport metrics ─────────────────────────────────────────────────────────

// APIRequestsTotal counts outbound API requests by method and final status
// class (after any refresh retry).
// Labels:
//   - method: HTTP method of the originating request
//   - status: final status code class ("2xx", "4xx", ...)
var APIRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Total number of outbound API requests, by method and final status class.",
	},
	[]string{"method", "status"},
)

// APIRequestDuration measures outbound request latency end-to-end,
// including a refresh retry when one happens.
var APIRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Duration of outbound API requests including any transparent retry.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// ── Refresh metrics ───────────────────────────────────────────────────────────

// RefreshAttemptsTotal counts token refresh exchanges.
// Label:
//   - result: "success", "rejected", "expired" (refresh token already
//     expired, no exchange attempted), or "error" (transport failure)
var RefreshAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_attempts_total",
		Help:      "Total number of token refresh attempts, by result.",
	},
	[]string{"result"},
)

// ── Route gate metrics ────────────────────────────────────────────────────────

// GateRedirectsTotal counts redirects issued by the route gate.
// Label:
//   - reason: "unauthenticated" (protected path, no token cookie) or
//     "already_authenticated" (login surface with a token present)
var GateRedirectsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_redirects_total",
		Help:      "Total number of navigations redirected by the route gate, by reason.",
	},
	[]string{"reason"},
)
