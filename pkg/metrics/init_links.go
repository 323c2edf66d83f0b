package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initLinkMetrics() {
	r.LinksIngested = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "linkdist_links_ingested",
			Help: "Links handed to the last run",
		},
	)

	r.LinksRetained = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "linkdist_links_retained",
			Help: "Links left after the ramp filter in the last run",
		},
	)

	r.LinksAllocated = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "linkdist_links_allocated",
			Help: "Sample size allocated per category in the last run",
		},
		[]string{"category"},
	)

	r.LinksSelected = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "linkdist_links_selected",
			Help: "Links selected per category in the last run",
		},
		[]string{"category"},
	)
}
