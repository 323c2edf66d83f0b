// Package graph builds the undirected topology used for centrality scoring.
//
// Nodes are snapped link endpoints (see NodeIndex). The graph is simple: a
// self-loop link never enters it, and when several links join the same pair
// of nodes only the first one discovered becomes the edge. Later parallel
// links are recorded in Parallel and never receive a score of their own.
package graph

import (
	"fmt"
	"sort"

	"github.com/dd0wney/linkdistributor/pkg/network"
)

// EdgeKey identifies an undirected node pair. U is always the smaller id.
type EdgeKey struct {
	U int
	V int
}

// NewEdgeKey orders the endpoints.
func NewEdgeKey(a, b int) EdgeKey {
	if a > b {
		a, b = b, a
	}
	return EdgeKey{U: a, V: b}
}

// String renders the key as "u-v".
func (k EdgeKey) String() string {
	return fmt.Sprintf("%d-%d", k.U, k.V)
}

// Edge is a graph edge and the link it represents.
type Edge struct {
	Key  EdgeKey
	Link *network.Link
}

// Adjacent is one entry of a node's adjacency list.
type Adjacent struct {
	Node int
	Edge int
}

// Graph is an undirected simple graph over snapped node ids.
type Graph struct {
	nodes     *NodeIndex
	edges     []Edge
	byKey     map[EdgeKey]int
	adjacency [][]Adjacent
	inGraph   []bool
	vertices  int

	// SelfLoops holds links whose endpoints snapped to the same node.
	SelfLoops []*network.Link
	// Parallel holds links that duplicated an existing node pair.
	Parallel []*network.Link
	// Skipped holds links with fewer than two coordinates.
	Skipped []*network.Link
}

// Build resolves endpoints for every link and assembles the graph.
// FromNode/ToNode are written back to each link that enters the graph or
// collapses onto an existing edge.
func Build(links []*network.Link, precision int) *Graph {
	g := &Graph{
		nodes: NewNodeIndex(precision),
		byKey: make(map[EdgeKey]int),
	}

	for _, link := range links {
		if len(link.Geometry) < 2 {
			g.Skipped = append(g.Skipped, link)
			continue
		}

		from := g.nodes.NodeID(link.Start())
		to := g.nodes.NodeID(link.End())
		g.grow()

		if from == to {
			g.SelfLoops = append(g.SelfLoops, link)
			continue
		}

		link.FromNode = from
		link.ToNode = to
		g.addVertex(from)
		g.addVertex(to)

		key := NewEdgeKey(from, to)
		if _, exists := g.byKey[key]; exists {
			g.Parallel = append(g.Parallel, link)
			continue
		}

		idx := len(g.edges)
		g.edges = append(g.edges, Edge{Key: key, Link: link})
		g.byKey[key] = idx
		g.adjacency[from] = append(g.adjacency[from], Adjacent{Node: to, Edge: idx})
		g.adjacency[to] = append(g.adjacency[to], Adjacent{Node: from, Edge: idx})
	}

	return g
}

// grow keeps the per-node slices sized to the node index.
func (g *Graph) grow() {
	for len(g.adjacency) < g.nodes.Len() {
		g.adjacency = append(g.adjacency, nil)
		g.inGraph = append(g.inGraph, false)
	}
}

func (g *Graph) addVertex(id int) {
	if !g.inGraph[id] {
		g.inGraph[id] = true
		g.vertices++
	}
}

// NodeCount returns the number of ids allocated by the node index, including
// nodes that only appeared on self-loops.
func (g *Graph) NodeCount() int {
	return len(g.adjacency)
}

// VertexCount returns the number of nodes that are part of the graph.
func (g *Graph) VertexCount() int {
	return g.vertices
}

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Vertices returns graph node ids in ascending order.
func (g *Graph) Vertices() []int {
	out := make([]int, 0, g.vertices)
	for id, ok := range g.inGraph {
		if ok {
			out = append(out, id)
		}
	}
	return out
}

// HasVertex reports whether id is part of the graph.
func (g *Graph) HasVertex(id int) bool {
	return id >= 0 && id < len(g.inGraph) && g.inGraph[id]
}

// Edges returns the edges in discovery order.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// Edge returns the edge at idx.
func (g *Graph) Edge(idx int) Edge {
	return g.edges[idx]
}

// EdgeByKey returns the representative edge for a node pair.
func (g *Graph) EdgeByKey(key EdgeKey) (Edge, bool) {
	idx, ok := g.byKey[key]
	if !ok {
		return Edge{}, false
	}
	return g.edges[idx], true
}

// Neighbors returns the adjacency list of a node.
func (g *Graph) Neighbors(id int) []Adjacent {
	if id < 0 || id >= len(g.adjacency) {
		return nil
	}
	return g.adjacency[id]
}

// Links returns the representative link of every edge, ordered by edge key.
func (g *Graph) Links() []*network.Link {
	keys := make([]EdgeKey, 0, len(g.byKey))
	for k := range g.byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].U != keys[j].U {
			return keys[i].U < keys[j].U
		}
		return keys[i].V < keys[j].V
	})
	out := make([]*network.Link, len(keys))
	for i, k := range keys {
		out[i] = g.edges[g.byKey[k]].Link
	}
	return out
}
