package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every metric of one process. Each run of the CLI creates
// its own and writes it out as a textfile.
type Registry struct {
	// Run Metrics
	RunsTotal          *prometheus.CounterVec
	StageDuration      *prometheus.HistogramVec
	LastRunTimestamp   prometheus.Gauge
	LastRunDuration    prometheus.Gauge
	WarningsTotal      *prometheus.CounterVec
	LinksRejectedTotal *prometheus.CounterVec

	// Link Metrics
	LinksIngested  prometheus.Gauge
	LinksRetained  prometheus.Gauge
	LinksAllocated *prometheus.GaugeVec
	LinksSelected  *prometheus.GaugeVec

	// Graph Metrics
	GraphVertices    prometheus.Gauge
	GraphEdges       prometheus.Gauge
	MaxBetweenness   prometheus.Gauge
	CentralityWorker prometheus.Gauge

	// System Metrics
	PeakHeapBytes prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.Mutex
	peakHeap uint64 // protected by mu
}

// NewRegistry creates a registry with every metric registered.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.initRunMetrics()
	r.initLinkMetrics()
	r.initGraphMetrics()
	r.initSystemMetrics()

	return r
}

// Gatherer exposes the underlying registry, e.g. for promhttp or testutil.
func (r *Registry) Gatherer() *prometheus.Registry {
	return r.registry
}
