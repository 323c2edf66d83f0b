package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RecordStage records the duration of one pipeline stage
func (r *Registry) RecordStage(stage string, duration time.Duration) {
	r.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordRun records a finished run. status is "success" or "error".
func (r *Registry) RecordRun(status string, duration time.Duration) {
	r.RunsTotal.WithLabelValues(status).Inc()
	r.LastRunTimestamp.Set(float64(time.Now().Unix()))
	r.LastRunDuration.Set(duration.Seconds())
}

// RecordWarning counts one data warning of the given kind
func (r *Registry) RecordWarning(kind string) {
	r.WarningsTotal.WithLabelValues(kind).Inc()
}

// RecordRejected counts n ingestion rejections for reason
func (r *Registry) RecordRejected(reason string, n int) {
	r.LinksRejectedTotal.WithLabelValues(reason).Add(float64(n))
}

// SetLinkCounts sets the ingested and retained link gauges
func (r *Registry) SetLinkCounts(ingested, retained int) {
	r.LinksIngested.Set(float64(ingested))
	r.LinksRetained.Set(float64(retained))
}

// SetCategoryCounts replaces the per-category allocation and selection gauges
func (r *Registry) SetCategoryCounts(allocated, selected map[string]int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.LinksAllocated.Reset()
	r.LinksSelected.Reset()
	for c, n := range allocated {
		r.LinksAllocated.WithLabelValues(c).Set(float64(n))
	}
	for c, n := range selected {
		r.LinksSelected.WithLabelValues(c).Set(float64(n))
	}
}

// UpdateGraphMetrics records the shape of the built graph and the
// centrality computation run over it
func (r *Registry) UpdateGraphMetrics(vertices, edges, workers int, maxRaw float64) {
	r.GraphVertices.Set(float64(vertices))
	r.GraphEdges.Set(float64(edges))
	r.CentralityWorker.Set(float64(workers))
	r.MaxBetweenness.Set(maxRaw)
}

// UpdateSystemMetrics samples the heap and raises the peak gauge when it grew.
// The pipeline calls it after the centrality stage, where memory peaks.
func (r *Registry) UpdateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.mu.Lock()
	defer r.mu.Unlock()
	if m.HeapInuse > r.peakHeap {
		r.peakHeap = m.HeapInuse
		r.PeakHeapBytes.Set(float64(m.HeapInuse))
	}
}

// WriteTextfile writes every metric in the Prometheus text format to path,
// suitable for the node_exporter textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	r.UpdateSystemMetrics()
	return prometheus.WriteToTextfile(path, r.registry)
}
