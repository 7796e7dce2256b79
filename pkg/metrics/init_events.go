package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initEventMetrics() {
	r.EventsPublishedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cyberdna_events_published_total",
			Help: "Events published, by topic",
		},
		[]string{"topic"},
	)

	r.EventsDroppedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cyberdna_events_dropped_total",
			Help: "Events dropped because a subscriber or transport could not accept them",
		},
		[]string{"topic"},
	)
}
