package sampling

import (
	"strings"

	"github.com/dd0wney/linkdistributor/pkg/network"
)

// OtherSideSeparator joins the ids of merged siblings.
const OtherSideSeparator = ";"

// ConsolidatePaired builds one representative per pair id from the paired
// links in links. Unpaired links are ignored.
//
// The first member of a group (in input order) represents it, carrying the
// mean centrality of the group and the ids of the other members in
// OtherSideIDs. Representatives are copies, so the per-direction records in
// the primary selection keep their own scores.
func ConsolidatePaired(links []*network.Link) []*network.Link {
	order := make([]string, 0)
	groups := make(map[string][]*network.Link)
	for _, l := range links {
		if !l.IsPaired {
			continue
		}
		if _, seen := groups[l.PairID]; !seen {
			order = append(order, l.PairID)
		}
		groups[l.PairID] = append(groups[l.PairID], l)
	}

	reps := make([]*network.Link, 0, len(order))
	for _, pairID := range order {
		members := groups[pairID]
		rep := members[0].Clone()

		if len(members) > 1 {
			sum := 0.0
			others := make([]string, 0, len(members)-1)
			for i, m := range members {
				sum += m.Centrality
				if i > 0 {
					others = append(others, m.ID)
				}
			}
			rep.Centrality = sum / float64(len(members))
			rep.OtherSideIDs = strings.Join(others, OtherSideSeparator)
		}

		reps = append(reps, rep)
	}
	return reps
}
