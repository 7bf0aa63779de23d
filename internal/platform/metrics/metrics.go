package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Ingestion metrics
	EventsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulse_events_submitted_total",
		Help: "Total events submitted to the ingestion writer, duplicates included",
	})
	IngestBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_ingest_batches_total",
		Help: "Ingestion batches by outcome",
	}, []string{"outcome"})

	// Replica sync metrics
	SyncCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_sync_cycles_total",
		Help: "Replica synchronization cycles by outcome",
	}, []string{"outcome"})
	ReplicaRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pulse_replica_rows",
		Help: "Row count of the analytical replica after the last successful sync",
	})

	// Analytics metrics
	AnalyticsQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_analytics_queries_total",
		Help: "Analytical queries by kind",
	}, []string{"kind"})
)

// RegisterTempPoolGauge exposes the manager's live temporary-pool count.
func RegisterTempPoolGauge(count func() float64) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "pulse_db_temp_pools",
		Help: "Live temporary connection pools",
	}, count)
}

// Handler serves the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
