package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRunMetrics() {
	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkdist_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"status"},
	)

	r.StageDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linkdist_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"stage"},
	)

	r.LastRunTimestamp = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "linkdist_last_run_timestamp_seconds",
			Help: "Unix time at which the last run finished",
		},
	)

	r.LastRunDuration = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "linkdist_last_run_duration_seconds",
			Help: "Wall time of the last run in seconds",
		},
	)

	r.WarningsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkdist_warnings_total",
			Help: "Data warnings raised during runs, by kind",
		},
		[]string{"kind"},
	)

	r.LinksRejectedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkdist_links_rejected_total",
			Help: "Input features rejected during ingestion, by reason",
		},
		[]string{"reason"},
	)
}
