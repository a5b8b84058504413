// Package metrics defines and registers all custom Prometheus metrics for the
// shipping admin service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry on package init via
// promauto; /metrics serves them through the echoprometheus handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shipping"

// ── Courier metrics ───────────────────────────────────────────────────────────

// CourierRequestsTotal counts courier API calls.
// Labels:
//   - operation: e.g. "create_shipment", "track", "estimate_cost"
//   - outcome: "ok" or the gateway error kind ("unavailable", "auth", …)
var CourierRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "courier_requests_total",
		Help:      "Total number of courier API calls, by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

// CourierRequestDuration measures courier API latency.
var CourierRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "courier_request_duration_seconds",
		Help:      "Duration of courier API calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// CourierFallbacksTotal counts estimates served from the static tables.
// Label:
//   - estimate: "cost" or "tat"
var CourierFallbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "courier_fallbacks_total",
		Help:      "Total number of estimates that fell back to the static tables.",
	},
	[]string{"estimate"},
)

// ── Shipment metrics ──────────────────────────────────────────────────────────

// ShipmentsCreatedTotal counts newly created shipments.
// Label:
//   - shipping_mode: "Surface" or "Express"
var ShipmentsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shipments_created_total",
		Help:      "Total number of shipments created, by shipping mode.",
	},
	[]string{"shipping_mode"},
)

// BookingsTotal counts approval attempts.
// Label:
//   - result: "booked" or "rolled_back"
var BookingsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_total",
		Help:      "Total number of courier booking attempts, by result.",
	},
	[]string{"result"},
)

// StatusTransitionsTotal counts shipment status changes.
// Labels:
//   - status: the new shipment status
//   - source: "admin", "sync" or "webhook"
var StatusTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_transitions_total",
		Help:      "Total number of shipment status transitions.",
	},
	[]string{"status", "source"},
)

// ── Reconciliation metrics ────────────────────────────────────────────────────

// SyncRunsTotal counts reconciliation sweeps.
// Label:
//   - result: "completed", "skipped" (lock held) or "error"
var SyncRunsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_runs_total",
		Help:      "Total number of reconciliation sweeps, by result.",
	},
	[]string{"result"},
)

// SyncShipmentsTotal counts per-shipment sync outcomes.
// Label:
//   - result: "synced" or "failed"
var SyncShipmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_shipments_total",
		Help:      "Total number of shipments reconciled, by result.",
	},
	[]string{"result"},
)

// SyncDuration measures a whole sweep.
var SyncDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sync_duration_seconds",
		Help:      "Duration of a full reconciliation sweep.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	},
)

// ── Webhook metrics ───────────────────────────────────────────────────────────

// WebhookEventsTotal counts pushed scans.
// Label:
//   - result: "accepted", "duplicate", "invalid" or "failed"
var WebhookEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_events_total",
		Help:      "Total number of courier webhook scans, by result.",
	},
	[]string{"result"},
)

// WebhookQueueDepth tracks the number of scans waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var WebhookQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "webhook_queue_depth",
		Help:      "Current number of scans pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Pickup and edit metrics ───────────────────────────────────────────────────

// PickupsTotal counts pickup reservations.
// Label:
//   - result: "created", "reused" or "failed"
var PickupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pickups_total",
		Help:      "Total number of pickup reservations, by result.",
	},
	[]string{"result"},
)

// EditsRateLimitedTotal counts edit requests refused by the per-admin limiter.
var EditsRateLimitedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "edits_rate_limited_total",
		Help:      "Total number of shipment edits refused by the rate limiter.",
	},
)
