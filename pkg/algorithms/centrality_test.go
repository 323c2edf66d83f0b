package algorithms

import (
	"fmt"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/paulmach/orb"

	"github.com/dd0wney/linkdistributor/pkg/graph"
	"github.com/dd0wney/linkdistributor/pkg/network"
)

const tolerance = 1e-9

// buildTestGraph connects numbered nodes placed at (i, 0).
func buildTestGraph(t testing.TB, pairs ...[2]int) (*graph.Graph, []*network.Link) {
	t.Helper()

	links := make([]*network.Link, 0, len(pairs))
	for i, p := range pairs {
		geom := orb.LineString{{float64(p[0]), 0}, {float64(p[1]), 0}}
		links = append(links, network.NewLink(fmt.Sprintf("L%d", i), "1", geom, 0, false, ""))
	}
	return graph.Build(links, 2), links
}

func scoreOf(t *testing.T, result *EdgeBetweennessResult, links []*network.Link, id string) float64 {
	t.Helper()
	for i, l := range links {
		if l.ID == id {
			return result.Normalized[i]
		}
	}
	t.Fatalf("link %s not found", id)
	return 0
}

// TestEdgeBetweenness_SingleEdge tests that one isolated edge carries no paths
func TestEdgeBetweenness_SingleEdge(t *testing.T) {
	g, links := buildTestGraph(t, [2]int{0, 1})

	result, err := EdgeBetweenness(g, Options{})
	if err != nil {
		t.Fatalf("EdgeBetweenness failed: %v", err)
	}

	if result.MaxRaw != 0 {
		t.Errorf("Expected max raw 0, got %f", result.MaxRaw)
	}
	Apply(g, result)
	if links[0].Centrality != 0 {
		t.Errorf("Expected centrality 0 for single edge, got %f", links[0].Centrality)
	}
}

// TestEdgeBetweenness_Triangle tests that a graph of direct neighbours scores zero
func TestEdgeBetweenness_Triangle(t *testing.T) {
	g, _ := buildTestGraph(t, [2]int{0, 1}, [2]int{1, 2}, [2]int{2, 0})

	result, err := EdgeBetweenness(g, Options{})
	if err != nil {
		t.Fatalf("EdgeBetweenness failed: %v", err)
	}

	for i, v := range result.Normalized {
		if v != 0 {
			t.Errorf("edge %d: expected 0, got %f", i, v)
		}
	}
}

// TestEdgeBetweenness_Path tests A-B-C-D where the middle edge carries most paths
func TestEdgeBetweenness_Path(t *testing.T) {
	g, links := buildTestGraph(t, [2]int{0, 1}, [2]int{1, 2}, [2]int{2, 3})

	result, err := EdgeBetweenness(g, Options{})
	if err != nil {
		t.Fatalf("EdgeBetweenness failed: %v", err)
	}

	// Pairs at distance >= 2: (0,2), (0,3), (1,3)
	if math.Abs(result.Raw[0]-2) > tolerance || math.Abs(result.Raw[1]-3) > tolerance || math.Abs(result.Raw[2]-2) > tolerance {
		t.Errorf("Raw scores = %v, want [2 3 2]", result.Raw)
	}

	if got := scoreOf(t, result, links, "L1"); math.Abs(got-1) > tolerance {
		t.Errorf("Middle edge normalised = %f, want 1", got)
	}
	if got := scoreOf(t, result, links, "L0"); math.Abs(got-2.0/3.0) > tolerance {
		t.Errorf("End edge normalised = %f, want 2/3", got)
	}
}

// TestEdgeBetweenness_SquareSplitsTies tests equal credit on a 4-cycle
func TestEdgeBetweenness_SquareSplitsTies(t *testing.T) {
	g, _ := buildTestGraph(t, [2]int{0, 1}, [2]int{1, 2}, [2]int{2, 3}, [2]int{3, 0})

	result, err := EdgeBetweenness(g, Options{})
	if err != nil {
		t.Fatalf("EdgeBetweenness failed: %v", err)
	}

	for i, v := range result.Raw {
		if math.Abs(v-1) > tolerance {
			t.Errorf("edge %d raw = %f, want 1 (two pairs, half credit each)", i, v)
		}
	}
}

// TestEdgeBetweenness_Bridge tests that the bridge between two triangles ranks first
func TestEdgeBetweenness_Bridge(t *testing.T) {
	g, links := buildTestGraph(t,
		[2]int{0, 1}, [2]int{1, 2}, [2]int{2, 0},
		[2]int{2, 3},
		[2]int{3, 4}, [2]int{4, 5}, [2]int{5, 3},
	)

	result, err := EdgeBetweenness(g, Options{TopN: 3})
	if err != nil {
		t.Fatalf("EdgeBetweenness failed: %v", err)
	}

	if got := scoreOf(t, result, links, "L3"); math.Abs(got-1) > tolerance {
		t.Errorf("Bridge normalised = %f, want 1", got)
	}
	if len(result.TopEdges) != 3 {
		t.Fatalf("Expected 3 top edges, got %d", len(result.TopEdges))
	}
	if result.TopEdges[0].LinkID != "L3" {
		t.Errorf("Top edge = %s, want L3", result.TopEdges[0].LinkID)
	}
}

func TestEdgeBetweenness_EmptyGraph(t *testing.T) {
	g := graph.Build(nil, 2)

	result, err := EdgeBetweenness(g, Options{Workers: 4})
	if err != nil {
		t.Fatalf("EdgeBetweenness failed: %v", err)
	}
	if len(result.Raw) != 0 || len(result.Normalized) != 0 {
		t.Errorf("Expected no scores, got %v", result.Raw)
	}
}

func TestEdgeBetweenness_WorkersMatchSequential(t *testing.T) {
	pairs := gridPairs(6, 5)
	g, _ := buildTestGraph(t, pairs...)

	seq, err := EdgeBetweenness(g, Options{Workers: 1})
	if err != nil {
		t.Fatalf("sequential run failed: %v", err)
	}

	for _, workers := range []int{2, 3, 8} {
		par, err := EdgeBetweenness(g, Options{Workers: workers})
		if err != nil {
			t.Fatalf("parallel run (%d) failed: %v", workers, err)
		}
		for i := range seq.Raw {
			if math.Abs(seq.Raw[i]-par.Raw[i]) > 1e-6 {
				t.Errorf("workers=%d edge %d: %f != %f", workers, i, par.Raw[i], seq.Raw[i])
			}
		}

		again, _ := EdgeBetweenness(g, Options{Workers: workers})
		for i := range par.Raw {
			if par.Raw[i] != again.Raw[i] {
				t.Errorf("workers=%d edge %d not reproducible: %v vs %v", workers, i, par.Raw[i], again.Raw[i])
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	out, maxVal := Normalize([]float64{0, 2, 4, 1})
	if maxVal != 4 {
		t.Errorf("max = %f, want 4", maxVal)
	}
	want := []float64{0, 0.5, 1, 0.25}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %f, want %f", i, out[i], want[i])
		}
	}

	zeros, maxVal := Normalize([]float64{0, 0})
	if maxVal != 0 || zeros[0] != 0 || zeros[1] != 0 {
		t.Errorf("Normalize of zeros = %v (max %f)", zeros, maxVal)
	}
}

func TestApply_LeavesParallelAndSelfLoopsAtZero(t *testing.T) {
	links := []*network.Link{
		network.NewLink("a", "1", orb.LineString{{0, 0}, {1, 0}}, 0, false, ""),
		network.NewLink("b", "1", orb.LineString{{1, 0}, {2, 0}}, 0, false, ""),
		network.NewLink("dup", "1", orb.LineString{{2, 0}, {1, 0}}, 0, false, ""),
		network.NewLink("loop", "1", orb.LineString{{2, 0}, {3, 3}, {2, 0}}, 0, false, ""),
	}
	g := graph.Build(links, 2)

	result, err := EdgeBetweenness(g, Options{})
	if err != nil {
		t.Fatalf("EdgeBetweenness failed: %v", err)
	}
	if n := Apply(g, result); n != 2 {
		t.Errorf("Apply updated %d links, want 2", n)
	}

	if links[0].Centrality != 1 || links[1].Centrality != 1 {
		t.Errorf("path edges = %f, %f, want 1, 1", links[0].Centrality, links[1].Centrality)
	}
	if links[2].Centrality != 0 {
		t.Errorf("parallel link centrality = %f, want 0", links[2].Centrality)
	}
	if links[3].Centrality != 0 {
		t.Errorf("self-loop centrality = %f, want 0", links[3].Centrality)
	}
}

// TestEdgeBetweennessInvariants uses property-based testing on random graphs
func TestEdgeBetweennessInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("normalised scores lie in [0,1] and the maximum is 1", prop.ForAll(
		func(raw []int) bool {
			pairs := make([][2]int, 0, len(raw)/2)
			for i := 0; i+1 < len(raw); i += 2 {
				pairs = append(pairs, [2]int{raw[i], raw[i+1]})
			}
			g, _ := buildTestGraph(t, pairs...)

			result, err := EdgeBetweenness(g, Options{})
			if err != nil {
				return false
			}

			hasPositive := false
			maxVal := 0.0
			for _, v := range result.Normalized {
				if v < 0 || v > 1+tolerance {
					return false
				}
				if v > 0 {
					hasPositive = true
				}
				maxVal = math.Max(maxVal, v)
			}
			if hasPositive {
				return math.Abs(maxVal-1) <= tolerance
			}
			return result.MaxRaw == 0
		},
		gen.SliceOf(gen.IntRange(0, 12)),
	))

	properties.TestingRun(t)
}

func gridPairs(w, h int) [][2]int {
	id := func(x, y int) int { return y*w + x }
	pairs := make([][2]int, 0, 2*w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x+1 < w {
				pairs = append(pairs, [2]int{id(x, y), id(x+1, y)})
			}
			if y+1 < h {
				pairs = append(pairs, [2]int{id(x, y), id(x, y+1)})
			}
		}
	}
	return pairs
}

func BenchmarkEdgeBetweenness(b *testing.B) {
	g, _ := buildTestGraph(b, gridPairs(30, 30)...)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := EdgeBetweenness(g, Options{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEdgeBetweennessParallel(b *testing.B) {
	g, _ := buildTestGraph(b, gridPairs(30, 30)...)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := EdgeBetweenness(g, Options{Workers: 4}); err != nil {
			b.Fatal(err)
		}
	}
}
