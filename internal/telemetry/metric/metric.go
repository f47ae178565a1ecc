// Package metric provides Prometheus metrics for varmesh.
//
// It exposes metrics in Prometheus format for monitoring request
// rates, snapshot flush behaviour, and store size.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all application metrics, backed by a dedicated
// Prometheus registry so parallel test instances never collide.
type Registry struct {
	reg *prometheus.Registry

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Snapshot metrics
	SnapshotFlushes       prometheus.Counter
	SnapshotFlushFailures prometheus.Counter
	SnapshotFlushDuration prometheus.Histogram
	SnapshotSizeBytes     prometheus.Gauge

	// Store metrics
	StoreEntries prometheus.Gauge

	// Server metrics
	ActiveConnections prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all collectors registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "varmesh",
			Name:      "requests_total",
			Help:      "Total protocol requests by method and status.",
		}, []string{"method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "varmesh",
			Name:      "request_duration_seconds",
			Help:      "Request dispatch latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		SnapshotFlushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "varmesh",
			Name:      "snapshot_flushes_total",
			Help:      "Total snapshot flushes performed.",
		}),
		SnapshotFlushFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "varmesh",
			Name:      "snapshot_flush_failures_total",
			Help:      "Total snapshot flushes that failed.",
		}),
		SnapshotFlushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "varmesh",
			Name:      "snapshot_flush_duration_seconds",
			Help:      "Time spent materializing and persisting a snapshot.",
			Buckets:   prometheus.DefBuckets,
		}),
		SnapshotSizeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "varmesh",
			Name:      "snapshot_size_bytes",
			Help:      "Size of the last written snapshot.",
		}),
		StoreEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "varmesh",
			Name:      "store_entries",
			Help:      "Number of top-level entries in the variable store.",
		}),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "varmesh",
			Name:      "active_connections",
			Help:      "Currently open protocol connections.",
		}),
	}

	reg.MustRegister(
		r.RequestsTotal,
		r.RequestDuration,
		r.SnapshotFlushes,
		r.SnapshotFlushFailures,
		r.SnapshotFlushDuration,
		r.SnapshotSizeBytes,
		r.StoreEntries,
		r.ActiveConnections,
	)

	return r
}

// Handler returns an HTTP handler serving this registry in Prometheus
// exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
