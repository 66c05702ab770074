package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tracker 호출 실패 (빈 결과로 degrade 된 건수)
	TrackerFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketbot_tracker_failures_total",
			Help: "Tracker API calls that failed and were degraded to an empty result",
		},
		[]string{"call"},
	)

	// result: indexed | failed
	IngestedTicketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketbot_ingested_tickets_total",
			Help: "Tickets processed by the ingestion pipeline",
		},
		[]string{"result"},
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ticketbot_ingest_duration_seconds",
			Help:    "Duration of a full ticket sync",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~17min
		},
	)

	RetrievalDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ticketbot_retrieval_duration_seconds",
			Help:    "Embedding plus nearest-neighbour lookup duration",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
	)

	// status: success | error | preview
	ChatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketbot_chat_requests_total",
			Help: "Conversational turns handled",
		},
		[]string{"status"},
	)

	ChatModelDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ticketbot_chat_model_duration_seconds",
			Help:    "Chat model call duration including retries",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1min
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticketbot_active_sessions",
			Help: "Chat sessions currently held in memory",
		},
	)
)
