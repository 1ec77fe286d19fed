package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// discovery service.
type Metrics struct {
	SessionsStarted    prometheus.Counter
	SessionsSuperseded prometheus.Counter
	DiscoveryRunning   prometheus.Gauge
	DiscoveryProgress  prometheus.Gauge
	DiscoveryDuration  prometheus.Histogram
	StationsRanked     prometheus.Histogram

	// Upstream retrieval metrics.
	CatalogFetches      *prometheus.CounterVec   // labels: outcome={success,error,empty}
	SensorFetches       *prometheus.CounterVec   // labels: kind, outcome={ok,empty,failed}
	SensorFetchDuration *prometheus.HistogramVec // labels: kind
	CacheLookups        *prometheus.CounterVec   // labels: result={hit,miss}

	// Overview sink metrics.
	OverviewsPublished prometheus.Counter
	SinkErrors         prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scan_discovery",
			Name:      "sessions_started_total",
			Help:      "Total discovery sessions started.",
		}),
		SessionsSuperseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scan_discovery",
			Name:      "sessions_superseded_total",
			Help:      "Total sessions canceled by a newer query.",
		}),
		DiscoveryRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scan_discovery",
			Name:      "discovery_running",
			Help:      "1 while a discovery session is fetching, 0 otherwise.",
		}),
		DiscoveryProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scan_discovery",
			Name:      "discovery_progress_ratio",
			Help:      "Completed fraction of the active session, 0 to 1.",
		}),
		DiscoveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scan_discovery",
			Name:      "discovery_duration_seconds",
			Help:      "Wall time of a complete discovery session.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		StationsRanked: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scan_discovery",
			Name:      "stations_ranked",
			Help:      "Number of stations selected per discovery session.",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10},
		}),
		CatalogFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scan_discovery",
			Name:      "catalog_fetches_total",
			Help:      "Station catalog requests by outcome.",
		}, []string{"outcome"}),
		SensorFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scan_discovery",
			Name:      "sensor_fetches_total",
			Help:      "Per-sensor data requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		SensorFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scan_discovery",
			Name:      "sensor_fetch_duration_seconds",
			Help:      "Upstream data request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"kind"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scan_discovery",
			Name:      "cache_lookups_total",
			Help:      "Session cache lookups by result.",
		}, []string{"result"}),
		OverviewsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scan_discovery",
			Name:      "overviews_published_total",
			Help:      "Overview rows published to the sink topic.",
		}),
		SinkErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scan_discovery",
			Name:      "sink_errors_total",
			Help:      "Failed sink publishes.",
		}),
	}

	prometheus.MustRegister(
		m.SessionsStarted,
		m.SessionsSuperseded,
		m.DiscoveryRunning,
		m.DiscoveryProgress,
		m.DiscoveryDuration,
		m.StationsRanked,
		m.CatalogFetches,
		m.SensorFetches,
		m.SensorFetchDuration,
		m.CacheLookups,
		m.OverviewsPublished,
		m.SinkErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		SessionsStarted:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "scan_discovery", Name: "sessions_started_total"}),
		SessionsSuperseded:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "scan_discovery", Name: "sessions_superseded_total"}),
		DiscoveryRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "scan_discovery", Name: "discovery_running"}),
		DiscoveryProgress:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "scan_discovery", Name: "discovery_progress_ratio"}),
		DiscoveryDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "scan_discovery", Name: "discovery_duration_seconds"}),
		StationsRanked:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "scan_discovery", Name: "stations_ranked"}),
		CatalogFetches:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "scan_discovery", Name: "catalog_fetches_total"}, []string{"outcome"}),
		SensorFetches:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "scan_discovery", Name: "sensor_fetches_total"}, []string{"kind", "outcome"}),
		SensorFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "scan_discovery", Name: "sensor_fetch_duration_seconds"}, []string{"kind"}),
		CacheLookups:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "scan_discovery", Name: "cache_lookups_total"}, []string{"result"}),
		OverviewsPublished:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "scan_discovery", Name: "overviews_published_total"}),
		SinkErrors:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "scan_discovery", Name: "sink_errors_total"}),
	}
}
