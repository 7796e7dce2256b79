package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initCacheMetrics() {
	r.CacheHitsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "cyberdna_cache_hits_total",
			Help: "Result cache hits",
		},
	)

	r.CacheMissesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "cyberdna_cache_misses_total",
			Help: "Result cache misses",
		},
	)

	r.CacheEvictionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cyberdna_cache_evictions_total",
			Help: "Result cache entries evicted, by category",
		},
		[]string{"category"},
	)

	r.CacheEntries = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "cyberdna_cache_entries",
			Help: "Current number of cached results",
		},
	)
}
