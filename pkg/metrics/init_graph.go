package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphVertices = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "linkdist_graph_vertices",
			Help: "Vertices touched by at least one edge in the last graph",
		},
	)

	r.GraphEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "linkdist_graph_edges",
			Help: "Distinct edges in the last graph",
		},
	)

	r.MaxBetweenness = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "linkdist_max_raw_betweenness",
			Help: "Largest raw edge betweenness in the last run",
		},
	)

	r.CentralityWorker = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "linkdist_centrality_workers",
			Help: "Workers used by the last centrality computation",
		},
	)
}
