package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application.
// A nil *Registry is valid and records nothing.
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Legend Metrics
	LegendBuildsTotal        *prometheus.CounterVec
	LegendBuildDuration      prometheus.Histogram
	LegendLocations          prometheus.Gauge
	LegendUnlocatedAddresses prometheus.Gauge

	// Router Metrics
	GraphNodes          prometheus.Gauge
	GraphEdges          prometheus.Gauge
	RouterQueriesTotal  *prometheus.CounterVec
	RouterQueryDuration *prometheus.HistogramVec
	RouterCyclesTotal   prometheus.Counter

	// Cache Metrics
	CacheHitsTotal      prometheus.Counter
	CacheMissesTotal    prometheus.Counter
	CacheEvictionsTotal *prometheus.CounterVec
	CacheEntries        prometheus.Gauge

	// Store Metrics
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec
	StoreBytesWritten      *prometheus.CounterVec

	// Event Metrics
	EventsPublishedTotal *prometheus.CounterVec
	EventsDroppedTotal   *prometheus.CounterVec

	// System Metrics
	UptimeSeconds prometheus.Gauge
	GoRoutines    prometheus.Gauge

	startTime time.Time
	registry  *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry:  prometheus.NewRegistry(),
		startTime: time.Now(),
	}

	r.initHTTPMetrics()
	r.initLegendMetrics()
	r.initRouterMetrics()
	r.initCacheMetrics()
	r.initStoreMetrics()
	r.initEventMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
