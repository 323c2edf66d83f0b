package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var metric dto.Metric
	if err := g.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Gauge.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.RunsTotal == nil || r.StageDuration == nil || r.LinksSelected == nil || r.GraphEdges == nil {
		t.Error("metrics not initialized")
	}
	if r.Gatherer() == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestUpdateSystemMetrics_KeepsPeak(t *testing.T) {
	r := NewRegistry()
	r.UpdateSystemMetrics()
	first := gaugeValue(t, r.PeakHeapBytes)
	if first <= 0 {
		t.Fatalf("peak heap = %v, want > 0", first)
	}

	r.UpdateSystemMetrics()
	if got := gaugeValue(t, r.PeakHeapBytes); got < first {
		t.Errorf("peak heap dropped from %v to %v", first, got)
	}
}

func TestRecordRun(t *testing.T) {
	r := NewRegistry()

	r.RecordRun("success", 2*time.Second)
	r.RecordRun("success", time.Second)
	r.RecordRun("error", time.Millisecond)

	if got := counterValue(t, r.RunsTotal.WithLabelValues("success")); got != 2 {
		t.Errorf("success runs = %v, want 2", got)
	}
	if got := counterValue(t, r.RunsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("error runs = %v, want 1", got)
	}
	if got := gaugeValue(t, r.LastRunDuration); got != 0.001 {
		t.Errorf("last run duration = %v, want 0.001", got)
	}
	if gaugeValue(t, r.LastRunTimestamp) <= 0 {
		t.Error("last run timestamp not set")
	}
}

func TestRecordStage(t *testing.T) {
	r := NewRegistry()

	r.RecordStage("centrality", 200*time.Millisecond)
	r.RecordStage("centrality", 300*time.Millisecond)

	observer, err := r.StageDuration.GetMetricWithLabelValues("centrality")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	var metric dto.Metric
	if err := observer.(prometheus.Histogram).Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 2 {
		t.Errorf("sample count = %v, want 2", metric.Histogram.GetSampleCount())
	}
	if sum := metric.Histogram.GetSampleSum(); sum < 0.49 || sum > 0.51 {
		t.Errorf("sample sum = %v, want 0.5", sum)
	}
}

func TestWarningsAndRejections(t *testing.T) {
	r := NewRegistry()

	r.RecordWarning("self_loop")
	r.RecordWarning("self_loop")
	r.RecordWarning("invalid_rmse")
	r.RecordRejected("bad_type", 3)

	if got := counterValue(t, r.WarningsTotal.WithLabelValues("self_loop")); got != 2 {
		t.Errorf("self_loop warnings = %v, want 2", got)
	}
	if got := counterValue(t, r.LinksRejectedTotal.WithLabelValues("bad_type")); got != 3 {
		t.Errorf("bad_type rejections = %v, want 3", got)
	}
}

func TestSetCategoryCounts(t *testing.T) {
	r := NewRegistry()

	r.SetCategoryCounts(map[string]int{"Group1": 4, "Group2": 1}, map[string]int{"Group1": 3})
	r.SetCategoryCounts(map[string]int{"Group3": 2}, map[string]int{"Group3": 2})

	if got := gaugeValue(t, r.LinksAllocated.WithLabelValues("Group3")); got != 2 {
		t.Errorf("Group3 allocated = %v, want 2", got)
	}

	// The second call replaces the first, so Group1 must be gone.
	families, err := r.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "linkdist_links_selected" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == "Group1" {
					t.Error("stale Group1 selection gauge survived Reset")
				}
			}
		}
	}
}

func TestGaugeMetrics(t *testing.T) {
	r := NewRegistry()

	r.SetLinkCounts(10, 8)
	r.UpdateGraphMetrics(9, 7, 4, 12.5)

	tests := []struct {
		name     string
		gauge    prometheus.Gauge
		expected float64
	}{
		{"LinksIngested", r.LinksIngested, 10},
		{"LinksRetained", r.LinksRetained, 8},
		{"GraphVertices", r.GraphVertices, 9},
		{"GraphEdges", r.GraphEdges, 7},
		{"CentralityWorker", r.CentralityWorker, 4},
		{"MaxBetweenness", r.MaxBetweenness, 12.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gaugeValue(t, tt.gauge); got != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.expected)
			}
		})
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRegistry()
	r.RecordRun("success", time.Second)
	r.SetLinkCounts(5, 5)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	output := string(data)
	for _, want := range []string{
		`linkdist_runs_total{status="success"} 1`,
		"linkdist_links_ingested 5",
		"linkdist_peak_heap_inuse_bytes",
		"go_goroutines",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("metrics file missing %q", want)
		}
	}
}
