// Package metrics defines and registers all custom Prometheus metrics for the
// accounts API. It is the single source of truth for metric names, labels,
// and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accounts"

// RegistrationsTotal counts local registrations.
// Label:
//   - outcome: "success", "duplicate_email", or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of local registration attempts, by outcome.",
	},
	[]string{"outcome"},
)

// LoginsTotal counts credential login attempts.
// Label:
//   - outcome: "success", "invalid_credentials", or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of credential login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// OAuthLoginsTotal counts completed OAuth callback flows.
// Labels:
//   - provider: "google" or "github"
//   - outcome: "success", "invalid_state", "exchange_failed", "profile_failed", or "error"
var OAuthLoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "oauth_logins_total",
		Help:      "Total number of OAuth callback flows, by provider and outcome.",
	},
	[]string{"provider", "outcome"},
)

// TokenVerificationsTotal counts session-gate token checks.
// Label:
//   - result: "ok", "missing", "invalid", or "unknown_user"
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of session token verifications, by result.",
	},
	[]string{"result"},
)

// AuthDuration measures the wall time of auth operations.
// Label:
//   - operation: "register", "login", or "oauth_callback"
var AuthDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "auth_duration_seconds",
		Help:      "Duration of auth operations from request to response.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)
