package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, statusCode string, duration time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordLegendBuild records a legend rebuild
func (r *Registry) RecordLegendBuild(err error, duration time.Duration, located, total int) {
	if r == nil {
		return
	}
	r.LegendBuildsTotal.WithLabelValues(status(err)).Inc()
	if err != nil {
		return
	}
	r.LegendBuildDuration.Observe(duration.Seconds())
	r.LegendLocations.Set(float64(located))
	r.LegendUnlocatedAddresses.Set(float64(total - located))
}

// UpdateGraphSize records the size of the current dependency graph
func (r *Registry) UpdateGraphSize(nodes, edges int) {
	if r == nil {
		return
	}
	r.GraphNodes.Set(float64(nodes))
	r.GraphEdges.Set(float64(edges))
}

// RecordRouterQuery records a router operation. found=false counts as a
// miss rather than an error.
func (r *Registry) RecordRouterQuery(operation string, found bool, err error, duration time.Duration) {
	if r == nil {
		return
	}
	s := status(err)
	if err == nil && !found {
		s = "not_found"
	}
	r.RouterQueriesTotal.WithLabelValues(operation, s).Inc()
	r.RouterQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCycle counts an execution order rejected for a cycle
func (r *Registry) RecordCycle() {
	if r == nil {
		return
	}
	r.RouterCyclesTotal.Inc()
}

// RecordCacheLookup records a cache hit or miss
func (r *Registry) RecordCacheLookup(hit bool) {
	if r == nil {
		return
	}
	if hit {
		r.CacheHitsTotal.Inc()
	} else {
		r.CacheMissesTotal.Inc()
	}
}

// RecordCacheEviction records entries evicted for a category
func (r *Registry) RecordCacheEviction(category string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.CacheEvictionsTotal.WithLabelValues(category).Add(float64(n))
}

// SetCacheEntries records the current cache size
func (r *Registry) SetCacheEntries(n int) {
	if r == nil {
		return
	}
	r.CacheEntries.Set(float64(n))
}

// RecordStoreOperation records a legend store call
func (r *Registry) RecordStoreOperation(backend, operation string, err error, duration time.Duration, bytes int) {
	if r == nil {
		return
	}
	r.StoreOperationsTotal.WithLabelValues(backend, operation, status(err)).Inc()
	r.StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err == nil && bytes > 0 {
		r.StoreBytesWritten.WithLabelValues(backend).Add(float64(bytes))
	}
}

// RecordEvent records a published or dropped event
func (r *Registry) RecordEvent(topic string, delivered bool) {
	if r == nil {
		return
	}
	if delivered {
		r.EventsPublishedTotal.WithLabelValues(topic).Inc()
	} else {
		r.EventsDroppedTotal.WithLabelValues(topic).Inc()
	}
}

// UpdateSystemMetrics refreshes uptime and goroutine gauges
func (r *Registry) UpdateSystemMetrics() {
	if r == nil {
		return
	}
	r.UptimeSeconds.Set(time.Since(r.startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
}

// Handler returns an HTTP handler exposing this registry
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
