package graph

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/linkdistributor/pkg/network"
)

func line(id string, pts ...orb.Point) *network.Link {
	return network.NewLink(id, "1", orb.LineString(pts), 0, false, "")
}

func TestNodeIndex_SnapsNearbyPoints(t *testing.T) {
	idx := NewNodeIndex(2)

	a := idx.NodeID(orb.Point{1.001, 2.002})
	b := idx.NodeID(orb.Point{1.004, 1.998})
	c := idx.NodeID(orb.Point{1.02, 2.0})

	assert.Equal(t, 0, a)
	assert.Equal(t, a, b, "points within rounding tolerance should share a node")
	assert.Equal(t, 1, c)
	assert.Equal(t, 2, idx.Len())
}

func TestNodeIndex_RoundsHalfUp(t *testing.T) {
	idx := NewNodeIndex(0)

	a := idx.NodeID(orb.Point{0.5, 0})
	b := idx.NodeID(orb.Point{1.0, 0})
	c := idx.NodeID(orb.Point{-0.5, 0})
	d := idx.NodeID(orb.Point{0, 0})

	assert.Equal(t, a, b)
	assert.Equal(t, c, d)
	assert.NotEqual(t, a, d)
}

func TestNodeIndex_Lookup(t *testing.T) {
	idx := NewNodeIndex(1)
	id := idx.NodeID(orb.Point{3.14, 2.71})

	got, ok := idx.Lookup(orb.Point{3.1, 2.7})
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = idx.Lookup(orb.Point{9, 9})
	assert.False(t, ok)
	assert.Equal(t, 1, idx.Len(), "lookup must not allocate ids")
}

func TestNodeIndex_NegativePrecisionUsesDefault(t *testing.T) {
	idx := NewNodeIndex(-3)
	a := idx.NodeID(orb.Point{1.001, 1})
	b := idx.NodeID(orb.Point{1.002, 1})
	assert.Equal(t, a, b)
}

func TestBuild_Path(t *testing.T) {
	links := []*network.Link{
		line("a", orb.Point{0, 0}, orb.Point{1, 0}),
		line("b", orb.Point{1, 0}, orb.Point{1.5, 0.5}, orb.Point{2, 0}),
	}

	g := Build(links, 2)

	assert.Equal(t, 3, g.VertexCount())
	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, []int{0, 1, 2}, g.Vertices())
	assert.Equal(t, 0, links[0].FromNode)
	assert.Equal(t, 1, links[0].ToNode)
	assert.Equal(t, 1, links[1].FromNode)
	assert.Equal(t, 2, links[1].ToNode)

	e, ok := g.EdgeByKey(NewEdgeKey(2, 1))
	require.True(t, ok)
	assert.Same(t, links[1], e.Link)
	assert.Len(t, g.Neighbors(1), 2)
}

func TestBuild_SelfLoopExcluded(t *testing.T) {
	loop := line("loop", orb.Point{0, 0}, orb.Point{5, 5}, orb.Point{0.001, 0.001})
	links := []*network.Link{
		line("a", orb.Point{0, 0}, orb.Point{1, 0}),
		loop,
	}

	g := Build(links, 2)

	require.Len(t, g.SelfLoops, 1)
	assert.Same(t, loop, g.SelfLoops[0])
	assert.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, network.NoNode, loop.FromNode)
	assert.Equal(t, network.NoNode, loop.ToNode)
}

func TestBuild_ParallelCollapsesToFirst(t *testing.T) {
	first := line("first", orb.Point{0, 0}, orb.Point{1, 0})
	reverse := line("reverse", orb.Point{1, 0}, orb.Point{0, 0})
	detour := line("detour", orb.Point{0, 0}, orb.Point{0.5, 3}, orb.Point{1, 0})

	g := Build([]*network.Link{first, reverse, detour}, 2)

	assert.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, 2, g.VertexCount())
	assert.Equal(t, []*network.Link{reverse, detour}, g.Parallel)

	e, ok := g.EdgeByKey(NewEdgeKey(0, 1))
	require.True(t, ok)
	assert.Same(t, first, e.Link)
	assert.Equal(t, 1, reverse.FromNode, "parallel links still get endpoints")
}

func TestBuild_SkipsShortGeometry(t *testing.T) {
	short := line("short", orb.Point{0, 0})
	g := Build([]*network.Link{short}, 2)

	assert.Equal(t, 0, g.EdgeCount())
	assert.Equal(t, 0, g.NodeCount())
	assert.Len(t, g.Skipped, 1)
}

func TestGraph_LinksOrderedByKey(t *testing.T) {
	links := []*network.Link{
		line("c", orb.Point{5, 5}, orb.Point{6, 6}),
		line("a", orb.Point{0, 0}, orb.Point{5, 5}),
	}
	g := Build(links, 2)

	got := g.Links()
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, "1-2", NewEdgeKey(2, 1).String())
}
