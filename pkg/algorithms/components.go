package algorithms

import (
	"container/list"

	"github.com/dd0wney/linkdistributor/pkg/graph"
)

// Component is one connected part of the link network.
type Component struct {
	ID       int
	Vertices []int
	Edges    int
}

// ComponentsResult is returned by ConnectedComponents.
type ComponentsResult struct {
	// Components are ordered by their lowest vertex id.
	Components []*Component
	// VertexComponent maps a vertex to the index of its component.
	VertexComponent map[int]int
}

// Largest returns the component with the most vertices, or nil for an
// empty graph. Ties go to the earlier component.
func (r *ComponentsResult) Largest() *Component {
	var best *Component
	for _, c := range r.Components {
		if best == nil || len(c.Vertices) > len(best.Vertices) {
			best = c
		}
	}
	return best
}

// ConnectedComponents finds the connected components of g with a BFS from
// each unvisited vertex.
func ConnectedComponents(g *graph.Graph) *ComponentsResult {
	result := &ComponentsResult{
		Components:      make([]*Component, 0),
		VertexComponent: make(map[int]int, g.VertexCount()),
	}

	for _, start := range g.Vertices() {
		if _, seen := result.VertexComponent[start]; seen {
			continue
		}

		component := &Component{ID: len(result.Components)}
		queue := list.New()
		queue.PushBack(start)
		result.VertexComponent[start] = component.ID

		for queue.Len() > 0 {
			v, ok := queue.Remove(queue.Front()).(int)
			if !ok {
				continue
			}
			component.Vertices = append(component.Vertices, v)

			for _, adj := range g.Neighbors(v) {
				// each undirected edge is seen from both ends
				if v < adj.Node {
					component.Edges++
				}
				if _, seen := result.VertexComponent[adj.Node]; !seen {
					result.VertexComponent[adj.Node] = component.ID
					queue.PushBack(adj.Node)
				}
			}
		}

		result.Components = append(result.Components, component)
	}

	return result
}
