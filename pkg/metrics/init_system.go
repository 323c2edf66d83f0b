package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// initSystemMetrics registers the Go runtime and process collectors and a
// peak heap gauge, which the runtime collector only reports as a current value.
func (r *Registry) initSystemMetrics() {
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: "linkdist"}),
	)

	r.PeakHeapBytes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "linkdist_peak_heap_inuse_bytes",
			Help: "Largest heap in use sampled during the run",
		},
	)
}
