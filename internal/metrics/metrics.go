// Package metrics exposes Prometheus collectors for adapter loading, native
// calls, the platform cache and discovery.
//
// A nil *Metrics is valid and records nothing, so components can take one
// unconditionally.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "synadapt"

// Metrics holds the collectors registered for one registry.
type Metrics struct {
	adaptersLoaded    *prometheus.CounterVec
	nativeCalls       *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
	discoveryDuration prometheus.Histogram
	platforms         prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		adaptersLoaded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adapters_loaded_total",
			Help:      "Adapters connected during backend enumeration, by backend.",
		}, []string{"backend"}),
		nativeCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "native_calls_total",
			Help:      "Calls routed through adapter dispatch tables, by entry point and result.",
		}, []string{"api", "result"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "platform_cache_lookups_total",
			Help:      "Platform cache find-or-create lookups, by outcome.",
		}, []string{"outcome"}),
		discoveryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "discovery_duration_seconds",
			Help:      "Time spent assembling the platform list.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		platforms: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "platforms",
			Help:      "Platforms returned by the last discovery.",
		}),
	}
}

// AdapterLoaded counts an adapter connected for backend.
func (m *Metrics) AdapterLoaded(backend string) {
	if m == nil {
		return
	}
	m.adaptersLoaded.WithLabelValues(backend).Inc()
}

// NativeCall counts one call of api that finished with result.
func (m *Metrics) NativeCall(api, result string) {
	if m == nil {
		return
	}
	m.nativeCalls.WithLabelValues(api, result).Inc()
}

// CacheLookup counts a platform cache lookup.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookups.WithLabelValues(outcome).Inc()
}

// Discovery records one discovery pass.
func (m *Metrics) Discovery(d time.Duration, platforms int) {
	if m == nil {
		return
	}
	m.discoveryDuration.Observe(d.Seconds())
	m.platforms.Set(float64(platforms))
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
