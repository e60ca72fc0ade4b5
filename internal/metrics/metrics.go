package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// engine operations
	SwapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swaps_total",
			Help: "Total successful swap operations",
		},
		[]string{"action"}, // request|accept|reject|complete|cancel
	)
	RedemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemptions_total",
			Help: "Total successful redemption operations",
		},
		[]string{"action"}, // request|approve|reject|complete
	)
	LedgerEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_entries_total",
			Help: "Total committed ledger entries",
		},
		[]string{"kind"}, // earned|redeemed|bonus|penalty
	)
	ConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_conflicts_total",
			Help: "Engine operations aborted by contention or stale state",
		},
	)

	// notifications
	NotificationsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Notifications delivered to the emitter",
		},
	)
	NotificationsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Notification deliveries that failed (best-effort, not retried)",
		},
	)

	// worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(SwapsTotal)
	prometheus.MustRegister(RedemptionsTotal)
	prometheus.MustRegister(LedgerEntriesTotal)
	prometheus.MustRegister(ConflictsTotal)
	prometheus.MustRegister(NotificationsSent)
	prometheus.MustRegister(NotificationsFailed)
	prometheus.MustRegister(WorkerQueueDepth)
}
