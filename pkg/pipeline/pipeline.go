// Package pipeline sequences one link distribution run: categorise, filter,
// build the graph, score centrality, allocate, select and consolidate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/linkdistributor/pkg/algorithms"
	"github.com/dd0wney/linkdistributor/pkg/category"
	"github.com/dd0wney/linkdistributor/pkg/graph"
	"github.com/dd0wney/linkdistributor/pkg/logging"
	"github.com/dd0wney/linkdistributor/pkg/metrics"
	"github.com/dd0wney/linkdistributor/pkg/network"
	"github.com/dd0wney/linkdistributor/pkg/parallel"
	"github.com/dd0wney/linkdistributor/pkg/sampling"
)

// Stage names used in logs, metrics and StageError.
const (
	StageValidate    = "validate"
	StageCategorize  = "categorize"
	StageRampFilter  = "ramp_filter"
	StageGraph       = "graph"
	StageCentrality  = "centrality"
	StageAllocate    = "allocate"
	StageSelect      = "select"
	StageConsolidate = "consolidate"
	StageBudget      = "budget"
)

type run struct {
	opts    Options
	logger  logging.Logger
	metrics *metrics.Registry
	result  *Result
}

// Run executes every stage in order over links and returns the selection and
// its statistics. Links are mutated in place; fields written by a previous
// run are reset first, so repeated runs over the same slice agree.
//
// The context is checked between stages only.
func Run(ctx context.Context, links []*network.Link, opts Options) (*Result, error) {
	start := time.Now()

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	r := &run{
		opts:    opts,
		logger:  logging.OrDefault(opts.Logger).With(logging.RunID(runID)),
		metrics: opts.Metrics,
		result: &Result{
			Summary: Summary{RunID: runID, StartedAt: start, TotalIngested: len(links)},
		},
	}

	err := r.execute(ctx, links)
	r.result.Summary.Duration = time.Since(start)

	if r.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		r.metrics.RecordRun(status, r.result.Summary.Duration)
	}
	if err != nil {
		r.logger.Error("run failed", logging.Error(err))
		return nil, err
	}

	r.logger.Info("run completed",
		logging.Int("ingested", r.result.Summary.TotalIngested),
		logging.Int("retained", r.result.Summary.TotalRetained),
		logging.Int("selected", r.result.Summary.TotalSelected),
		logging.Int("warnings", len(r.result.Diagnostics)),
		logging.Latency(r.result.Summary.Duration),
	)
	return r.result, nil
}

func (r *run) execute(ctx context.Context, links []*network.Link) error {
	stages := []struct {
		name string
		fn   func() error
	}{
		{StageValidate, func() error { return r.validate(links) }},
		{StageCategorize, r.categorize},
		{StageRampFilter, r.rampFilter},
		{StageCentrality, r.centrality},
		{StageAllocate, r.allocate},
		{StageSelect, r.selectLinks},
		{StageConsolidate, r.consolidate},
		{StageBudget, r.budget},
	}

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return canceledErr(st.name, err)
		}

		timer := logging.StartStage(r.logger, st.name)
		if err := st.fn(); err != nil {
			timer.EndError(err)
			var se *StageError
			if !errors.As(err, &se) {
				err = stageErr(st.name, err)
			}
			return err
		}
		elapsed := timer.End()
		if r.metrics != nil {
			r.metrics.RecordStage(st.name, elapsed)
		}
	}
	return nil
}

func (r *run) warn(d Diagnostic) {
	r.result.Diagnostics = append(r.result.Diagnostics, d)
	if r.metrics != nil {
		r.metrics.RecordWarning(d.Kind)
	}

	fields := []logging.Field{logging.Kind(d.Kind), logging.Stage(d.Stage)}
	if d.LinkID != "" {
		fields = append(fields, logging.LinkID(d.LinkID))
	}
	if d.Category != "" {
		fields = append(fields, logging.Category(d.Category.String()))
	}
	r.logger.Warn(d.Message, fields...)
}

// validate drops records the ingestion contract forbids and resets the
// fields later stages write. Link ids must be unique; later duplicates are
// dropped.
func (r *run) validate(links []*network.Link) error {
	kept := make([]*network.Link, 0, len(links))
	seen := make(map[string]struct{}, len(links))
	for _, l := range links {
		if l == nil {
			continue
		}
		switch {
		case l.Type == "":
			r.warn(Diagnostic{Kind: KindMalformedLink, Stage: StageValidate, LinkID: l.ID, Message: "link has no type code"})
			continue
		case len(l.Geometry) < 2:
			r.warn(Diagnostic{Kind: KindMalformedLink, Stage: StageValidate, LinkID: l.ID, Message: "link geometry has fewer than two coordinates"})
			continue
		}
		if _, dup := seen[l.ID]; dup {
			r.warn(Diagnostic{Kind: KindDuplicateID, Stage: StageValidate, LinkID: l.ID, Message: "duplicate link id, keeping the first"})
			continue
		}
		seen[l.ID] = struct{}{}

		l.Centrality = 0
		l.FromNode = network.NoNode
		l.ToNode = network.NoNode
		l.OtherSideIDs = ""
		kept = append(kept, l)
	}

	if len(kept) == 0 {
		return stageErr(StageValidate, ErrNoLinks)
	}
	r.result.Retained = kept
	return nil
}

func (r *run) categorize() error {
	for _, l := range r.result.Retained {
		l.Category = category.Assign(l.Type)
	}
	return nil
}

func (r *run) rampFilter() error {
	before := len(r.result.Retained)
	if r.opts.RampFilter.Enabled && len(r.opts.RampFilter.Values) > 0 {
		ramps := make(map[int]struct{}, len(r.opts.RampFilter.Values))
		for _, v := range r.opts.RampFilter.Values {
			ramps[v] = struct{}{}
		}

		kept := make([]*network.Link, 0, before)
		for _, l := range r.result.Retained {
			if _, ramp := ramps[int(l.ReliabilityValue)]; ramp {
				continue
			}
			kept = append(kept, l)
		}
		r.result.Retained = kept
	}

	s := &r.result.Summary
	s.TotalRetained = len(r.result.Retained)
	s.RampFiltered = before - s.TotalRetained
	if r.metrics != nil {
		r.metrics.SetLinkCounts(s.TotalIngested, s.TotalRetained)
	}
	r.logger.Info("ramp filter applied",
		logging.Bool("enabled", r.opts.RampFilter.Enabled),
		logging.Int("removed", s.RampFiltered),
		logging.Int("retained", s.TotalRetained),
	)

	if s.TotalRetained == 0 {
		r.warn(Diagnostic{Kind: KindNoneRetained, Stage: StageRampFilter, Message: "ramp filter removed every link"})
	}
	return nil
}

func (r *run) centrality() error {
	types := newTypeSet(r.opts.CentralityTypes)
	eligible := make([]*network.Link, 0, len(r.result.Retained))
	for _, l := range r.result.Retained {
		if types.contains(l.Type) {
			eligible = append(eligible, l)
		}
	}

	g := graph.Build(eligible, r.opts.snapPrecision())

	for _, l := range g.Skipped {
		r.warn(Diagnostic{Kind: KindShortGeometry, Stage: StageGraph, LinkID: l.ID, Category: l.Category,
			Message: "link skipped by graph builder: fewer than two coordinates"})
	}
	for _, l := range g.SelfLoops {
		r.warn(Diagnostic{Kind: KindSelfLoop, Stage: StageGraph, LinkID: l.ID, Category: l.Category,
			Message: "self-loop excluded from graph: endpoints snap to the same node"})
	}
	for _, l := range g.Parallel {
		r.warn(Diagnostic{Kind: KindParallelLink, Stage: StageGraph, LinkID: l.ID, Category: l.Category,
			Message: fmt.Sprintf("parallel link collapsed onto edge %s, keeps centrality 0", graph.NewEdgeKey(l.FromNode, l.ToNode))})
	}

	excluded := make(map[*network.Link]struct{}, len(g.SelfLoops)+len(g.Skipped))
	for _, l := range g.SelfLoops {
		excluded[l] = struct{}{}
	}
	for _, l := range g.Skipped {
		excluded[l] = struct{}{}
	}
	r.result.CentralityLinks = make([]*network.Link, 0, len(eligible))
	for _, l := range eligible {
		if _, skip := excluded[l]; !skip {
			r.result.CentralityLinks = append(r.result.CentralityLinks, l)
		}
	}

	s := &r.result.Summary
	s.GraphVertices = g.VertexCount()
	s.GraphEdges = g.EdgeCount()
	components := algorithms.ConnectedComponents(g)
	s.GraphComponents = len(components.Components)
	r.logger.Info("graph built",
		logging.Int("eligible", len(eligible)),
		logging.Int("vertices", s.GraphVertices),
		logging.Int("edges", s.GraphEdges),
		logging.Int("components", s.GraphComponents),
		logging.Int("self_loops", len(g.SelfLoops)),
		logging.Int("parallel", len(g.Parallel)),
	)

	if g.EdgeCount() == 0 {
		r.warn(Diagnostic{Kind: KindNoEdges, Stage: StageCentrality, Message: "graph has no edges, centrality skipped"})
		if r.metrics != nil {
			r.metrics.UpdateGraphMetrics(s.GraphVertices, 0, 0, 0)
		}
		return nil
	}

	workers := r.opts.Workers
	if workers < 0 {
		workers = parallel.DefaultWorkers()
	}
	eb, err := algorithms.EdgeBetweenness(g, algorithms.Options{Workers: workers, TopN: r.opts.TopN})
	if err != nil {
		return stageErr(StageCentrality, err)
	}
	updated := algorithms.Apply(g, eb)

	s.MaxRawCentrality = eb.MaxRaw
	r.result.TopEdges = eb.TopEdges
	if r.metrics != nil {
		r.metrics.UpdateGraphMetrics(s.GraphVertices, s.GraphEdges, workers, eb.MaxRaw)
		r.metrics.UpdateSystemMetrics()
	}
	r.logger.Info("centrality computed",
		logging.Int("scored", updated),
		logging.Float64("max_raw", eb.MaxRaw),
		logging.Int("workers", workers),
	)
	for i, e := range eb.TopEdges {
		r.logger.Info("top edge",
			logging.Int("rank", i+1),
			logging.LinkID(e.LinkID),
			logging.String("edge", e.Key.String()),
			logging.Float64("score", e.Score),
		)
	}

	if r.logger.Enabled(logging.DebugLevel) {
		limit := r.opts.DebugPrintLimit
		for i, e := range g.Edges() {
			if limit > 0 && i >= limit {
				break
			}
			r.logger.Debug("edge centrality",
				logging.LinkID(e.Link.ID),
				logging.String("edge", e.Key.String()),
				logging.Float64("raw", eb.Raw[i]),
				logging.Float64("normalized", eb.Normalized[i]),
			)
		}
	}
	return nil
}

func (r *run) allocate() error {
	rmse, usedDefaults := sampling.ResolveRMSE(r.opts.RMSE)
	r.result.RMSE = rmse
	r.result.Summary.UsedDefaultRMSE = usedDefaults
	if usedDefaults {
		r.warn(Diagnostic{Kind: KindDefaultRMSE, Stage: StageAllocate,
			Message: fmt.Sprintf("no positive RMSE configured, using %.2f for every category", sampling.DefaultRMSEValue)})
	}

	alloc := sampling.AllocateSamples(r.result.Retained, rmse)
	for _, c := range alloc.InvalidRMSE {
		r.warn(Diagnostic{Kind: KindInvalidRMSE, Stage: StageAllocate, Category: c,
			Message: fmt.Sprintf("rmse %.4f is not positive, category receives no samples", rmse[c])})
	}
	for _, c := range alloc.Unconfigured {
		r.warn(Diagnostic{Kind: KindUnconfigured, Stage: StageAllocate, Category: c,
			Message: "category has no rmse configured, receives no samples"})
	}
	if alloc.TotalWeight == 0 && len(r.result.Retained) > 0 {
		r.warn(Diagnostic{Kind: KindNoSampleWeight, Stage: StageAllocate, Message: "total sample weight is zero"})
	}

	r.result.Allocation = alloc
	r.result.Table = alloc.Table()
	for _, info := range r.result.Table {
		r.logger.Info("category allocated",
			logging.Category(info.Category.String()),
			logging.Int("population", info.PopulationCount),
			logging.Float64("rmse", info.RMSE),
			logging.Float64("weight", info.Weight),
			logging.Int("allocated", info.AllocatedCount),
		)
	}
	return nil
}

func (r *run) selectLinks() error {
	sel := sampling.SelectTop(sampling.RankByCentrality(r.result.Retained), r.result.Allocation)
	r.result.Selection = sel
	r.result.Summary.TotalSelected = sel.Len()

	if r.metrics != nil {
		allocated := make(map[string]int, len(r.result.Table))
		for _, info := range r.result.Table {
			allocated[info.Category.String()] = info.AllocatedCount
		}
		selected := make(map[string]int, len(sel.Categories))
		for _, c := range sel.Categories {
			selected[c.String()] = len(sel.ByCategory[c])
		}
		r.metrics.SetCategoryCounts(allocated, selected)
	}
	return nil
}

func (r *run) consolidate() error {
	if !r.opts.CombinePaired {
		return nil
	}
	reps := sampling.ConsolidatePaired(r.result.Selection.Links())
	r.result.Representatives = reps
	r.result.Summary.TotalRepresentatives = len(reps)
	return nil
}

func (r *run) budget() error {
	if len(r.opts.Networks) == 0 {
		return nil
	}
	est := sampling.EstimateBudget(r.opts.Networks)
	r.result.Summary.Budget = &est
	r.logger.Info("survey budget estimated",
		logging.Float64("total_cost", est.TotalCost),
		logging.Int("total_quota", est.TotalQuota),
	)
	for _, name := range est.OverBudget {
		r.warn(Diagnostic{Kind: KindOverBudget, Stage: StageBudget,
			Message: fmt.Sprintf("network %s exceeds its budget", name)})
	}
	return nil
}
