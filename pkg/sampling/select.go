package sampling

import (
	"sort"

	"github.com/dd0wney/linkdistributor/pkg/category"
	"github.com/dd0wney/linkdistributor/pkg/network"
)

// RankByCentrality groups links by category and sorts each group by
// descending centrality. Equal scores keep their input order.
func RankByCentrality(links []*network.Link) map[category.Category][]*network.Link {
	groups := GroupByCategory(links)
	for _, members := range groups {
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Centrality > members[j].Centrality
		})
	}
	return groups
}

// Selection is the per-category sample.
type Selection struct {
	ByCategory map[category.Category][]*network.Link
	// Categories lists every ranked category in label order, including those
	// that selected nothing.
	Categories []category.Category
}

// SelectTop takes the first AllocatedCount links of each ranked group,
// or the whole group when it is smaller.
func SelectTop(ranked map[category.Category][]*network.Link, alloc *Allocation) *Selection {
	sel := &Selection{
		ByCategory: make(map[category.Category][]*network.Link, len(ranked)),
		Categories: make([]category.Category, 0, len(ranked)),
	}

	for c, members := range ranked {
		sel.Categories = append(sel.Categories, c)

		n := 0
		if info, ok := alloc.Infos[c]; ok {
			n = info.AllocatedCount
		}
		if n > len(members) {
			n = len(members)
		}
		if n <= 0 {
			sel.ByCategory[c] = []*network.Link{}
			continue
		}

		picked := make([]*network.Link, n)
		copy(picked, members[:n])
		sel.ByCategory[c] = picked
	}
	sortCategories(sel.Categories)

	return sel
}

// Links flattens the selection in category label order.
func (s *Selection) Links() []*network.Link {
	out := make([]*network.Link, 0, s.Len())
	for _, c := range s.Categories {
		out = append(out, s.ByCategory[c]...)
	}
	return out
}

// Len returns the total number of selected links.
func (s *Selection) Len() int {
	n := 0
	for _, members := range s.ByCategory {
		n += len(members)
	}
	return n
}
