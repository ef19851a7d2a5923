// Package metrics defines and registers all custom Prometheus metrics for the
// storefront client. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry on package init via
// promauto; the view server exposes them at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// ── Remote API metrics ────────────────────────────────────────────────────────

// APIRequestsTotal counts calls to the remote shop API.
// Labels:
//   - operation: collaborator operation (e.g. "create_order", "get_product")
//   - outcome: "ok", or the error kind ("auth", "validation", "not_found", "fetch", "unexpected")
var APIRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Total number of remote API calls, by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

// APIRequestDuration measures remote API round trips.
// Label:
//   - operation: collaborator operation
var APIRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Duration of remote API calls, including body decoding.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionEventsTotal counts session store transitions.
// Label:
//   - event: "restore", "login", "register", "logout", "login_failed", "register_failed"
var SessionEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_events_total",
		Help:      "Total number of session store transitions, by event.",
	},
	[]string{"event"},
)

// GateDecisionsTotal counts credential gate outcomes.
// Label:
//   - outcome: "render", "redirect_login", "redirect_home", "wait"
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Total number of credential gate decisions, by outcome.",
	},
	[]string{"outcome"},
)

// ── Order workflow metrics ────────────────────────────────────────────────────

// OrderSubmissionsTotal counts order submission attempts from the product view.
// Label:
//   - result: "created", "failed", "rejected_locally", "suppressed"
var OrderSubmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_submissions_total",
		Help:      "Total number of order submission attempts, by result.",
	},
	[]string{"result"},
)

// StaleResponsesTotal counts responses discarded because the view that
// issued them was superseded or torn down.
// Label:
//   - view: "product_detail", "order_list", "order_detail"
var StaleResponsesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stale_responses_total",
		Help:      "Total number of discarded stale responses, by view.",
	},
	[]string{"view"},
)
