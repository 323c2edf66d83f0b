package algorithms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/linkdistributor/pkg/graph"
)

func TestConnectedComponents(t *testing.T) {
	// 0-1-2 and 5-6, with 3 and 4 unused
	g, _ := buildTestGraph(t, [2]int{0, 1}, [2]int{1, 2}, [2]int{5, 6})

	result := ConnectedComponents(g)

	require.Len(t, result.Components, 2)
	assert.Len(t, result.Components[0].Vertices, 3)
	assert.Equal(t, 2, result.Components[0].Edges)
	assert.Len(t, result.Components[1].Vertices, 2)
	assert.Equal(t, 1, result.Components[1].Edges)
	assert.Len(t, result.VertexComponent, g.VertexCount())
	assert.Same(t, result.Components[0], result.Largest())
}

func TestConnectedComponents_Cycle(t *testing.T) {
	g, _ := buildTestGraph(t, [2]int{0, 1}, [2]int{1, 2}, [2]int{2, 3}, [2]int{3, 0})

	result := ConnectedComponents(g)

	require.Len(t, result.Components, 1)
	assert.Equal(t, 4, result.Components[0].Edges)
}

func TestConnectedComponents_Empty(t *testing.T) {
	result := ConnectedComponents(graph.Build(nil, 2))

	assert.Empty(t, result.Components)
	assert.Nil(t, result.Largest())
}
