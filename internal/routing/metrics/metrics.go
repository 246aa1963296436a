package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EntriesPolled tracks new entries surfaced by the source
	EntriesPolled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedrouter_entries_polled_total",
			Help: "Total number of new entries surfaced by the feed source",
		},
	)

	// FetchErrors tracks failed feed fetches
	FetchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedrouter_fetch_errors_total",
			Help: "Total number of failed feed fetches",
		},
	)

	// PollsSkipped tracks ticks dropped because a poll was still running
	PollsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedrouter_polls_skipped_total",
			Help: "Total number of poll ticks skipped due to an in-flight poll",
		},
	)

	// PollDuration tracks how long one poll (fetch + dispatch) takes
	PollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedrouter_poll_duration_seconds",
			Help:    "Poll duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// EntriesRouted tracks entries enqueued per category
	EntriesRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedrouter_entries_routed_total",
			Help: "Total number of entries routed to a category channel",
		},
		[]string{"category"},
	)

	// RoutingFallbacks tracks entries sent to the unclassified channel
	RoutingFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedrouter_routing_fallbacks_total",
			Help: "Total number of entries routed to the fallback category",
		},
		[]string{"reason"},
	)

	// QueueDepth tracks buffered messages per category channel
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feedrouter_queue_depth",
			Help: "Number of messages waiting in a category channel",
		},
		[]string{"category"},
	)

	// Deliveries tracks sink deliveries by outcome
	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedrouter_deliveries_total",
			Help: "Total number of sink deliveries",
		},
		[]string{"category", "sink", "result"},
	)

	// DeliveryLatency tracks sink delivery latency
	DeliveryLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedrouter_delivery_latency_seconds",
			Help:    "Sink delivery latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"category", "sink"},
	)

	// FailedDeliveriesPruned tracks failed-delivery records removed by retention
	FailedDeliveriesPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedrouter_failed_deliveries_pruned_total",
			Help: "Total number of failed delivery records pruned",
		},
	)

	// DBConnectionPoolUsage tracks database connection pool usage percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedrouter_db_connection_pool_usage_percent",
			Help: "Database connection pool usage percentage",
		},
	)
)
