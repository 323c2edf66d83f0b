package algorithms

import (
	"container/heap"
	"sort"

	"github.com/dd0wney/linkdistributor/pkg/graph"
	"github.com/dd0wney/linkdistributor/pkg/parallel"
)

// predEdge tracks a predecessor node and the edge used to reach it during BFS.
// This allows the back-propagation phase to accumulate flow onto specific edges.
type predEdge struct {
	nodeID int
	edgeID int
}

// Options controls the edge betweenness computation.
type Options struct {
	// Workers splits the per-source passes across goroutines. Values below 2
	// run sequentially. Results for a fixed worker count are reproducible.
	Workers int
	// TopN is the number of highest scoring edges reported in TopEdges.
	TopN int
}

// RankedEdge holds a ranked edge with its normalised score.
type RankedEdge struct {
	Edge   int           `json:"edge"`
	Key    graph.EdgeKey `json:"key"`
	LinkID string        `json:"link_id"`
	Score  float64       `json:"score"`
}

// EdgeBetweennessResult holds raw and normalised scores indexed by edge.
type EdgeBetweennessResult struct {
	Raw        []float64
	Normalized []float64
	MaxRaw     float64
	TopEdges   []RankedEdge
}

// EdgeBetweenness computes edge betweenness for every edge of g using
// Brandes' algorithm with unit weights, then divides every score by the
// maximum raw score.
//
// A pair of nodes contributes only when its shortest paths are at least two
// edges long, so an edge is credited for the paths it carries between other
// node pairs and not for the pair it directly joins. Ties among shortest
// paths split the credit evenly.
func EdgeBetweenness(g *graph.Graph, opts Options) (*EdgeBetweennessResult, error) {
	raw, err := rawEdgeBetweenness(g, opts.Workers)
	if err != nil {
		return nil, err
	}

	normalized, maxRaw := Normalize(raw)
	return &EdgeBetweennessResult{
		Raw:        raw,
		Normalized: normalized,
		MaxRaw:     maxRaw,
		TopEdges:   findTopEdges(g, normalized, opts.TopN),
	}, nil
}

// Normalize divides every score by the maximum. A zero maximum yields all zeros.
func Normalize(raw []float64) ([]float64, float64) {
	out := make([]float64, len(raw))
	maxVal := 0.0
	for _, v := range raw {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		return out, 0
	}
	for i, v := range raw {
		out[i] = v / maxVal
	}
	return out, maxVal
}

// Apply copies normalised scores onto the representative link of each edge
// and returns the number of links updated.
func Apply(g *graph.Graph, result *EdgeBetweennessResult) int {
	updated := 0
	for i, e := range g.Edges() {
		if i >= len(result.Normalized) {
			break
		}
		e.Link.Centrality = result.Normalized[i]
		updated++
	}
	return updated
}

func rawEdgeBetweenness(g *graph.Graph, workers int) ([]float64, error) {
	sources := g.Vertices()
	edgeCount := g.EdgeCount()

	if workers < 2 || len(sources) < 2 {
		acc := make([]float64, edgeCount)
		state := newBrandesState(g.NodeCount())
		for _, s := range sources {
			state.accumulate(g, s, acc)
		}
		return halve(acc), nil
	}

	// One accumulator per range, summed in range order afterwards so the
	// floating point result does not depend on goroutine scheduling.
	ranges := parallel.Split(len(sources), workers)
	partials := make([][]float64, len(ranges))

	err := parallel.ForEachRange(len(sources), workers, func(part int, r parallel.Range) {
		acc := make([]float64, edgeCount)
		state := newBrandesState(g.NodeCount())
		for _, s := range sources[r.Lo:r.Hi] {
			state.accumulate(g, s, acc)
		}
		partials[part] = acc
	})
	if err != nil {
		return nil, err
	}

	total := make([]float64, edgeCount)
	for _, acc := range partials {
		for i, v := range acc {
			total[i] += v
		}
	}
	return halve(total), nil
}

// halve removes the double count of undirected pairs (s,t) and (t,s).
func halve(acc []float64) []float64 {
	for i := range acc {
		acc[i] /= 2
	}
	return acc
}

// brandesState is the per-source scratch space, reused across sources.
type brandesState struct {
	sigma        []float64
	distance     []int
	delta        []float64
	predecessors [][]predEdge
	stack        []int
	queue        []int
}

func newBrandesState(n int) *brandesState {
	s := &brandesState{
		sigma:        make([]float64, n),
		distance:     make([]int, n),
		delta:        make([]float64, n),
		predecessors: make([][]predEdge, n),
		stack:        make([]int, 0, n),
		queue:        make([]int, 0, n),
	}
	for i := range s.distance {
		s.distance[i] = -1
	}
	return s
}

// accumulate runs one BFS from source and adds its edge dependencies to acc.
func (s *brandesState) accumulate(g *graph.Graph, source int, acc []float64) {
	s.sigma[source] = 1
	s.distance[source] = 0
	s.queue = append(s.queue[:0], source)
	s.stack = s.stack[:0]

	for head := 0; head < len(s.queue); head++ {
		v := s.queue[head]
		s.stack = append(s.stack, v)

		for _, adj := range g.Neighbors(v) {
			w := adj.Node

			if s.distance[w] < 0 {
				s.queue = append(s.queue, w)
				s.distance[w] = s.distance[v] + 1
			}

			if s.distance[w] == s.distance[v]+1 {
				s.sigma[w] += s.sigma[v]
				s.predecessors[w] = append(s.predecessors[w], predEdge{
					nodeID: v,
					edgeID: adj.Edge,
				})
			}
		}
	}

	// Back-propagation. A target w adds its own pair only when it is two or
	// more hops from the source.
	for i := len(s.stack) - 1; i >= 0; i-- {
		w := s.stack[i]
		target := 0.0
		if s.distance[w] >= 2 {
			target = 1
		}
		for _, pred := range s.predecessors[w] {
			contribution := (s.sigma[pred.nodeID] / s.sigma[w]) * (target + s.delta[w])
			s.delta[pred.nodeID] += contribution
			acc[pred.edgeID] += contribution
		}
	}

	// Reset only what this source touched.
	for _, v := range s.stack {
		s.sigma[v] = 0
		s.distance[v] = -1
		s.delta[v] = 0
		s.predecessors[v] = s.predecessors[v][:0]
	}
}

// rankedEdgeHeap implements a min-heap for RankedEdge by score.
type rankedEdgeHeap []RankedEdge

func (h rankedEdgeHeap) Len() int           { return len(h) }
func (h rankedEdgeHeap) Less(i, j int) bool { return h[i].Score < h[j].Score }
func (h rankedEdgeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *rankedEdgeHeap) Push(x any) {
	*h = append(*h, x.(RankedEdge))
}

func (h *rankedEdgeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// findTopEdges returns the top n edges by score using a min-heap.
func findTopEdges(g *graph.Graph, scores []float64, n int) []RankedEdge {
	if n <= 0 {
		return nil
	}

	h := make(rankedEdgeHeap, 0, n)
	heap.Init(&h)

	for idx, score := range scores {
		e := g.Edge(idx)
		re := RankedEdge{
			Edge:   idx,
			Key:    e.Key,
			LinkID: e.Link.ID,
			Score:  score,
		}

		if h.Len() < n {
			heap.Push(&h, re)
		} else if score > h[0].Score {
			heap.Pop(&h)
			heap.Push(&h, re)
		}
	}

	result := make([]RankedEdge, h.Len())
	for i := h.Len() - 1; i >= 0; i-- {
		result[i] = heap.Pop(&h).(RankedEdge)
	}

	// Stable sort by score descending, then edge index ascending for determinism
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].Edge < result[j].Edge
	})

	return result
}
