// Package metrics defines the Prometheus collectors for the auth API. Every
// collector is registered on the default registry through promauto when the
// package is imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "salinas"

// ── Auth flow metrics ─────────────────────────────────────────────────────────

// AuthAttemptsTotal counts register, login and refresh calls.
// Labels:
//   - operation: "register", "login" or "refresh"
//   - result: "success" or a short failure reason (e.g. "invalid_credentials", "duplicate", "invalid_token")
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// SessionsCreatedTotal counts sessions opened by register and login.
var SessionsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_created_total",
		Help:      "Total number of sessions opened.",
	},
)

// GuardRejectionsTotal counts requests turned away by the auth guard.
// Label:
//   - reason: "no_token", "invalid_token" or "session_invalid"
var GuardRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_rejections_total",
		Help:      "Total number of requests rejected by the authentication guard.",
	},
	[]string{"reason"},
)

// AuthOperationDuration measures how long each auth operation takes,
// dominated by bcrypt on register and login.
var AuthOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "auth_operation_duration_seconds",
		Help:      "Duration of authentication operations.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)
