package pipeline

import (
	"time"

	"github.com/dd0wney/linkdistributor/pkg/algorithms"
	"github.com/dd0wney/linkdistributor/pkg/category"
	"github.com/dd0wney/linkdistributor/pkg/network"
	"github.com/dd0wney/linkdistributor/pkg/sampling"
)

// Diagnostic kinds.
const (
	KindMalformedLink  = "malformed_link"
	KindDuplicateID    = "duplicate_id"
	KindSelfLoop       = "self_loop"
	KindParallelLink   = "parallel_link"
	KindShortGeometry  = "short_geometry"
	KindNoEdges        = "no_edges"
	KindInvalidRMSE    = "invalid_rmse"
	KindUnconfigured   = "unconfigured_rmse"
	KindDefaultRMSE    = "default_rmse"
	KindNoneRetained   = "no_links_retained"
	KindOverBudget     = "over_budget"
	KindNoSampleWeight = "no_sample_weight"
)

// Diagnostic is one recoverable problem observed during a run. Every
// diagnostic is also logged at WARN.
type Diagnostic struct {
	Kind     string            `json:"kind" yaml:"kind"`
	Stage    string            `json:"stage" yaml:"stage"`
	LinkID   string            `json:"link_id,omitempty" yaml:"link_id,omitempty"`
	Category category.Category `json:"category,omitempty" yaml:"category,omitempty"`
	Message  string            `json:"message" yaml:"message"`
}

// Summary holds run-level totals.
type Summary struct {
	RunID                string                   `json:"run_id" yaml:"run_id"`
	StartedAt            time.Time                `json:"started_at" yaml:"started_at"`
	Duration             time.Duration            `json:"duration" yaml:"duration"`
	TotalIngested        int                      `json:"total_ingested" yaml:"total_ingested"`
	TotalRetained        int                      `json:"total_retained" yaml:"total_retained"`
	RampFiltered         int                      `json:"ramp_filtered" yaml:"ramp_filtered"`
	TotalSelected        int                      `json:"total_selected" yaml:"total_selected"`
	TotalRepresentatives int                      `json:"total_representatives" yaml:"total_representatives"`
	GraphVertices        int                      `json:"graph_vertices" yaml:"graph_vertices"`
	GraphEdges           int                      `json:"graph_edges" yaml:"graph_edges"`
	GraphComponents      int                      `json:"graph_components" yaml:"graph_components"`
	MaxRawCentrality     float64                  `json:"max_raw_centrality" yaml:"max_raw_centrality"`
	UsedDefaultRMSE      bool                     `json:"used_default_rmse" yaml:"used_default_rmse"`
	Budget               *sampling.BudgetEstimate `json:"budget,omitempty" yaml:"budget,omitempty"`
}

// Result is everything a sink needs from one run.
type Result struct {
	Summary Summary
	// Retained are the links left after validation and the ramp filter,
	// in input order, with category and centrality set.
	Retained []*network.Link
	// CentralityLinks are the links that entered the graph, in input order.
	CentralityLinks []*network.Link
	Allocation      *sampling.Allocation
	// Table is the per-category info ordered by category.
	Table     []network.CategorySampleInfo
	Selection *sampling.Selection
	// Representatives is nil unless paired links were consolidated.
	Representatives []*network.Link
	TopEdges        []algorithms.RankedEdge
	// RMSE is the table actually used for allocation.
	RMSE        map[category.Category]float64
	Diagnostics []Diagnostic
}

// Selected returns the selected links flattened in category order.
func (r *Result) Selected() []*network.Link {
	if r.Selection == nil {
		return nil
	}
	return r.Selection.Links()
}

// DiagnosticsOf returns the diagnostics of one kind.
func (r *Result) DiagnosticsOf(kind string) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}
