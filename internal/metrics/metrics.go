// Package metrics holds the Prometheus collectors for the storefront service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for catalog views and writes.
type Metrics struct {
	Registry        *prometheus.Registry
	ViewsTotal      *prometheus.CounterVec
	ViewCacheTotal  *prometheus.CounterVec
	ViewDuration    prometheus.Histogram
	ItemWritesTotal *prometheus.CounterVec
	EventsTotal     *prometheus.CounterVec
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	views := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_catalog_views_total",
			Help: "Catalog view requests by collection.",
		},
		[]string{"collection"},
	)
	viewCache := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_view_cache_total",
			Help: "View cache lookups by result.",
		},
		[]string{"result"},
	)
	viewDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storefront_view_duration_seconds",
			Help:    "Time spent computing a catalog view on a cache miss.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)
	writes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_item_writes_total",
			Help: "Catalog item writes by operation.",
		},
		[]string{"op"},
	)
	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_catalog_events_total",
			Help: "Catalog change events by direction and outcome.",
		},
		[]string{"direction", "outcome"},
	)

	registry.MustRegister(views, viewCache, viewDuration, writes, events)

	return &Metrics{
		Registry:        registry,
		ViewsTotal:      views,
		ViewCacheTotal:  viewCache,
		ViewDuration:    viewDuration,
		ItemWritesTotal: writes,
		EventsTotal:     events,
	}
}

// IncView counts a view request.
func (m *Metrics) IncView(collection string) {
	if m == nil {
		return
	}
	m.ViewsTotal.WithLabelValues(collection).Inc()
}

// IncCache counts a cache hit or miss.
func (m *Metrics) IncCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ViewCacheTotal.WithLabelValues(result).Inc()
}

// ObserveView records how long a view took to compute.
func (m *Metrics) ObserveView(d time.Duration) {
	if m == nil {
		return
	}
	m.ViewDuration.Observe(d.Seconds())
}

// IncWrite counts an item create, update or delete.
func (m *Metrics) IncWrite(op string) {
	if m == nil {
		return
	}
	m.ItemWritesTotal.WithLabelValues(op).Inc()
}

// IncEvent counts a published or consumed catalog event.
func (m *Metrics) IncEvent(direction, outcome string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(direction, outcome).Inc()
}
