package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsIngested counts audit records accepted by the ingestion endpoint.
	RecordsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minddump_audit_records_ingested_total",
			Help: "Total number of audit records ingested",
		},
		[]string{"action", "entity_type"},
	)

	// RecordsRejected counts ingestion requests rejected during validation.
	RecordsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minddump_audit_records_rejected_total",
			Help: "Total number of audit records rejected by validation",
		},
		[]string{"code"},
	)

	// RecordsDeleted counts audit records removed by the deletion endpoint.
	RecordsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "minddump_audit_records_deleted_total",
			Help: "Total number of audit records deleted",
		},
	)

	// RecordsPurged counts audit records removed by retention cleanup.
	RecordsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "minddump_audit_records_purged_total",
			Help: "Total number of audit records purged by retention cleanup",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "minddump_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
