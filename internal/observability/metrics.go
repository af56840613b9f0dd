package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// catalog service.
type Metrics struct {
	CatalogRebuilds prometheus.Counter
	RebuildFailures prometheus.Counter
	RebuildDuration prometheus.Histogram

	// Last-build composition gauges.
	EventsWithMechanism    prometheus.Gauge
	EventsWithoutMechanism prometheus.Gauge
	EventsSkipped          prometheus.Gauge

	// Rendering metrics.
	RenderFailures prometheus.Counter
	RenderCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Live feed metrics.
	FeedRecordsAdded    prometheus.Counter
	FeedMessagesDropped prometheus.Counter
	FeedRunning         prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		CatalogRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_kml",
			Name:      "catalog_rebuilds_total",
			Help:      "Total successful document rebuilds.",
		}),
		RebuildFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_kml",
			Name:      "rebuild_failures_total",
			Help:      "Total rebuild attempts that failed before publishing a snapshot.",
		}),
		RebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_kml",
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of a complete parse-classify-render-serialize rebuild.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		EventsWithMechanism: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_kml",
			Name:      "events_with_mechanism",
			Help:      "Events with a rendered focal mechanism in the last build.",
		}),
		EventsWithoutMechanism: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_kml",
			Name:      "events_without_mechanism",
			Help:      "Events placed with the fallback marker in the last build.",
		}),
		EventsSkipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_kml",
			Name:      "events_skipped",
			Help:      "Malformed records dropped in the last build.",
		}),
		RenderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_kml",
			Name:      "render_failures_total",
			Help:      "Beachball renders that failed and degraded to the fallback marker.",
		}),
		RenderCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_kml",
			Name:      "render_cache_total",
			Help:      "Beachball render cache lookups by result.",
		}, []string{"result"}),
		FeedRecordsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_kml",
			Name:      "feed_records_added_total",
			Help:      "NDK records accepted from the feed topic.",
		}),
		FeedMessagesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_kml",
			Name:      "feed_messages_dropped_total",
			Help:      "Feed messages committed without yielding any usable record.",
		}),
		FeedRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_kml",
			Name:      "feed_running",
			Help:      "1 when the feed consumer is active, 0 when shut down.",
		}),
	}

	prometheus.MustRegister(
		m.CatalogRebuilds,
		m.RebuildFailures,
		m.RebuildDuration,
		m.EventsWithMechanism,
		m.EventsWithoutMechanism,
		m.EventsSkipped,
		m.RenderFailures,
		m.RenderCache,
		m.FeedRecordsAdded,
		m.FeedMessagesDropped,
		m.FeedRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		CatalogRebuilds:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_kml", Name: "catalog_rebuilds_total"}),
		RebuildFailures:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_kml", Name: "rebuild_failures_total"}),
		RebuildDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "quake_kml", Name: "rebuild_duration_seconds"}),
		EventsWithMechanism:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "quake_kml", Name: "events_with_mechanism"}),
		EventsWithoutMechanism: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "quake_kml", Name: "events_without_mechanism"}),
		EventsSkipped:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "quake_kml", Name: "events_skipped"}),
		RenderFailures:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_kml", Name: "render_failures_total"}),
		RenderCache:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_kml", Name: "render_cache_total"}, []string{"result"}),
		FeedRecordsAdded:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_kml", Name: "feed_records_added_total"}),
		FeedMessagesDropped:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_kml", Name: "feed_messages_dropped_total"}),
		FeedRunning:            prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "quake_kml", Name: "feed_running"}),
	}
}
