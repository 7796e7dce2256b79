package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initLegendMetrics() {
	r.LegendBuildsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cyberdna_legend_builds_total",
			Help: "Total number of legend generations",
		},
		[]string{"status"},
	)

	r.LegendBuildDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cyberdna_legend_build_duration_seconds",
			Help:    "Legend plus dependency graph rebuild duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	r.LegendLocations = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "cyberdna_legend_locations",
			Help: "Number of addresses with a location in the current legend",
		},
	)

	r.LegendUnlocatedAddresses = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "cyberdna_legend_unlocated_addresses",
			Help: "Addresses skipped because the coordinate sequence was shorter than the map",
		},
	)
}
