// Package metrics exposes Prometheus instrumentation for the catalog,
// bookmarks and HTTP layers. All recording methods are safe on a nil *Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "midloop"

type Metrics struct {
	registry        *prometheus.Registry
	cacheLookups    *prometheus.CounterVec
	loads           *prometheus.CounterVec
	loadDuration    *prometheus.HistogramVec
	items           *prometheus.GaugeVec
	bookmarkToggles *prometheus.CounterVec
	searches        prometheus.Counter
}

// New registers every collector on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Category cache lookups by result.",
		}, []string{"result"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "category_loads_total",
			Help:      "Category data loads by category and result.",
		}, []string{"category", "result"}),
		loadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "category_load_duration_seconds",
			Help:      "Time spent fetching and normalizing a category.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"category"}),
		items: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "category_items",
			Help:      "Items held for a category after the last load.",
		}, []string{"category"}),
		bookmarkToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookmark_toggles_total",
			Help:      "Bookmark additions and removals.",
		}, []string{"action"}),
		searches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Search queries served.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.cacheLookups,
		m.loads,
		m.loadDuration,
		m.items,
		m.bookmarkToggles,
		m.searches,
	)
	return m
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// LoadFinished records one category load.
func (m *Metrics) LoadFinished(category string, count int, err error, took time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.loads.WithLabelValues(category, result).Inc()
	m.loadDuration.WithLabelValues(category).Observe(took.Seconds())
	m.items.WithLabelValues(category).Set(float64(count))
}

func (m *Metrics) BookmarkToggled(added bool) {
	if m == nil {
		return
	}
	action := "remove"
	if added {
		action = "add"
	}
	m.bookmarkToggles.WithLabelValues(action).Inc()
}

func (m *Metrics) Searched() {
	if m == nil {
		return
	}
	m.searches.Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
