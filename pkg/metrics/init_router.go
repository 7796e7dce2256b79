package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRouterMetrics() {
	r.GraphNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "cyberdna_graph_nodes",
			Help: "Number of nodes in the dependency graph",
		},
	)

	r.GraphEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "cyberdna_graph_edges",
			Help: "Number of depends_on edges in the dependency graph",
		},
	)

	r.RouterQueriesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cyberdna_router_queries_total",
			Help: "Total number of router queries",
		},
		[]string{"operation", "status"},
	)

	r.RouterQueryDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cyberdna_router_query_duration_seconds",
			Help:    "Router query duration in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		},
		[]string{"operation"},
	)

	r.RouterCyclesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "cyberdna_router_cycles_total",
			Help: "Execution-order requests rejected because of a dependency cycle",
		},
	)
}
