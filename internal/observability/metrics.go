// Package observability holds the Prometheus collectors and OpenTelemetry
// setup shared across packages.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// EdgeMutations counts committed relationship changes.
	EdgeMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_edge_mutations_total",
		Help: "Committed follow/like/repost edge mutations",
	}, []string{"kind", "op"})

	// EdgeConflicts counts edge writes rejected by the uniqueness constraint.
	EdgeConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_edge_conflicts_total",
		Help: "Edge creations that lost to an existing edge",
	}, []string{"kind"})

	// NotificationsEmitted counts persisted notifications by kind.
	NotificationsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_notifications_emitted_total",
		Help: "Notifications persisted by kind",
	}, []string{"kind"})

	// NotificationsSkipped counts fanout calls that produced no notification.
	NotificationsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_notifications_skipped_total",
		Help: "Notification fanout calls skipped, by reason",
	}, []string{"reason"})

	// DeliveryFailures counts swallowed realtime and push delivery errors.
	DeliveryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_notification_delivery_failures_total",
		Help: "Realtime or push delivery errors that were logged and dropped",
	}, []string{"channel"})

	// FeedAssemblyLatency records feed assembly time by pagination mode.
	FeedAssemblyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chirp_feed_assembly_seconds",
		Help:    "Time to assemble one feed page",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	// WebSocketConnections is the gauge of open realtime connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chirp_websocket_connections",
		Help: "Number of open realtime notification connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to slow clients.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})
)

// ObserveSince records the elapsed time since start into h.
func ObserveSince(h prometheus.Observer, start time.Time) {
	h.Observe(time.Since(start).Seconds())
}
