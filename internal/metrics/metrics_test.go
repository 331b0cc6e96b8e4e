package metrics_test

import (
	"testing"
	"time"

	"storefront/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := metrics.New()
	m.IncView("products")
	m.IncView("products")
	m.IncCache(true)
	m.IncCache(false)
	m.IncCache(false)
	m.IncWrite("create")
	m.IncEvent("published", "ok")
	m.ObserveView(time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ViewsTotal.WithLabelValues("products")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ViewCacheTotal.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ViewCacheTotal.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ItemWritesTotal.WithLabelValues("create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("published", "ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ViewDuration))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.IncView("products")
		m.IncCache(true)
		m.ObserveView(time.Second)
		m.IncWrite("delete")
		m.IncEvent("consumed", "error")
	})
}
