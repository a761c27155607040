// Package metrics defines and registers all custom Prometheus metrics for the
// tracking API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry at package init
// through promauto and exposed on GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every collector this service registers.
const Namespace = "tracking"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts register/login attempts.
// Labels:
//   - operation: "register" or "login"
//   - result: "success", "invalid", "duplicate", "invalid_credentials" or "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of register and login attempts, by outcome.",
	},
	[]string{"operation", "result"},
)

// AuthRejectionsTotal counts requests short-circuited by the auth gate.
// Label:
//   - reason: "missing_header", "malformed_header", "invalid_token" or "revoked"
var AuthRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "auth_rejections_total",
		Help:      "Total number of requests rejected by the auth gate.",
	},
	[]string{"reason"},
)

// ── Location metrics ──────────────────────────────────────────────────────────

// LocationUpdatesTotal counts accepted location writes.
// Label:
//   - source: "rest" or "realtime"
var LocationUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "location_updates_total",
		Help:      "Total number of location updates persisted, by source.",
	},
	[]string{"source"},
)

// LocationUpdateDuration measures the persistence round-trip of a location write.
var LocationUpdateDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "location_update_duration_seconds",
		Help:      "Duration of the location store write.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"source"},
)

// ── Realtime metrics ──────────────────────────────────────────────────────────

// RealtimeConnections tracks the current number of live websocket connections.
var RealtimeConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "realtime_connections",
		Help:      "Current number of live realtime connections.",
	},
)

// RealtimeEventsDroppedTotal counts inbound realtime events that were discarded.
// Label:
//   - reason: "malformed", "unknown_event", "identity_mismatch", "user_not_found" or "store_error"
var RealtimeEventsDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "realtime_events_dropped_total",
		Help:      "Total number of inbound realtime events dropped without a broadcast.",
	},
	[]string{"reason"},
)

// RealtimeBroadcastsTotal counts newLocation messages queued for delivery.
// Label:
//   - result: "queued" or "evicted" (receiver stalled past the write deadline)
var RealtimeBroadcastsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "realtime_broadcasts_total",
		Help:      "Total number of per-connection broadcast deliveries, by result.",
	},
	[]string{"result"},
)

// DispatcherQueueDepth tracks the number of realtime events pending per worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var DispatcherQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "dispatcher_queue_depth",
		Help:      "Current number of realtime events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
