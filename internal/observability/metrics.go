package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "surfcast"

// Metrics holds the Prometheus collectors for upstream calls, geocode caching
// and spot refreshes.
type Metrics struct {
	// Upstream provider metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: source={marine,weather,geocoding}, outcome={success,error,rejected}
	UpstreamDuration *prometheus.HistogramVec // labels: source

	GeocodeCache *prometheus.CounterVec // labels: result={hit,miss}

	SpotFetches  *prometheus.CounterVec // labels: outcome={success,error}
	VisibleSpots prometheus.Gauge
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.GeocodeCache,
		m.SpotFetches,
		m.VisibleSpots,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build as many
// as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream provider requests by source and outcome.",
		}, []string{"source", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		SpotFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spot_fetch_total",
			Help:      "Per-spot series aggregations by outcome.",
		}, []string{"outcome"}),
		VisibleSpots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "visible_spots",
			Help:      "Number of spots currently visible in the registry.",
		}),
	}
}
