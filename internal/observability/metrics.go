package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fuelplan"

// Metrics holds the Prometheus counters and gauges for one pipeline run.
// Each instance owns a private registry so runs and tests never collide on
// registration.
type Metrics struct {
	registry *prometheus.Registry

	RowsRead       prometheus.Counter
	RowsKept       prometheus.Counter
	RowsDropped    *prometheus.CounterVec // labels: reason={missing_date,region,status}
	RecordsEmitted *prometheus.GaugeVec   // labels: artifact={today,pending,future,feed}
	SourceLoads    *prometheus.CounterVec // labels: origin={remote,cache}
	SourceFailures prometheus.Counter

	// ColumnResolution is 1 for the kind each role resolved to, 0 otherwise.
	ColumnResolution *prometheus.GaugeVec // labels: role, kind={bound,synthesized,absent}

	RunDuration prometheus.Gauge
	LastSuccess prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge

	// Feed publishing metrics.
	FeedPublished     prometheus.Counter
	FeedPublishErrors prometheus.Counter
}

// NewMetrics creates all run metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Data rows read from the sheet snapshot.",
		}),
		RowsKept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_kept_total",
			Help:      "Rows that passed the filter.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Rows rejected by the filter, by first failing check.",
		}, []string{"reason"}),
		RecordsEmitted: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_emitted",
			Help:      "Records in each artifact of the last run.",
		}, []string{"artifact"}),
		SourceLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_loads_total",
			Help:      "Snapshot loads by origin.",
		}, []string{"origin"}),
		SourceFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Runs where neither the remote export nor the cache was readable.",
		}),
		ColumnResolution: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "column_resolution",
			Help:      "1 for the resolution kind of each semantic role.",
		}, []string{"role", "kind"}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that wrote its artifacts.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when geocoding enrichment is enabled, 0 otherwise.",
		}),
		FeedPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_published_total",
			Help:      "Feed entries published to Kafka.",
		}),
		FeedPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_publish_errors_total",
			Help:      "Failed feed publish attempts.",
		}),
	}

	m.registry.MustRegister(
		m.RowsRead,
		m.RowsKept,
		m.RowsDropped,
		m.RecordsEmitted,
		m.SourceLoads,
		m.SourceFailures,
		m.ColumnResolution,
		m.RunDuration,
		m.LastSuccess,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.FeedPublished,
		m.FeedPublishErrors,
	)

	return m
}

// Registry exposes the underlying registry, e.g. for a pushgateway.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics in the node-exporter textfile format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
