package graph

import (
	"math"

	"github.com/paulmach/orb"
)

// DefaultSnapPrecision is the number of decimals endpoints are rounded to.
const DefaultSnapPrecision = 2

// snapKey is a rounded coordinate scaled to integers so map lookups never
// compare floats.
type snapKey struct {
	x int64
	y int64
}

// NodeIndex assigns stable integer ids to snapped endpoint coordinates.
// Ids start at 0 and increase by one for every new snapped coordinate.
type NodeIndex struct {
	scale float64
	ids   map[snapKey]int
	next  int
}

// NewNodeIndex creates an index that snaps to the given number of decimals.
// Negative precision falls back to DefaultSnapPrecision.
func NewNodeIndex(precision int) *NodeIndex {
	if precision < 0 {
		precision = DefaultSnapPrecision
	}
	return &NodeIndex{
		scale: math.Pow(10, float64(precision)),
		ids:   make(map[snapKey]int),
	}
}

// NodeID returns the id for p, creating one on first sight.
func (idx *NodeIndex) NodeID(p orb.Point) int {
	key := idx.snap(p)
	if id, ok := idx.ids[key]; ok {
		return id
	}
	id := idx.next
	idx.ids[key] = id
	idx.next++
	return id
}

// Lookup returns the id for p without creating one.
func (idx *NodeIndex) Lookup(p orb.Point) (int, bool) {
	id, ok := idx.ids[idx.snap(p)]
	return id, ok
}

// Len returns the number of distinct snapped coordinates seen.
func (idx *NodeIndex) Len() int {
	return idx.next
}

// snap rounds half up, matching floor(v*scale + 0.5).
func (idx *NodeIndex) snap(p orb.Point) snapKey {
	return snapKey{
		x: int64(math.Floor(p[0]*idx.scale + 0.5)),
		y: int64(math.Floor(p[1]*idx.scale + 0.5)),
	}
}
