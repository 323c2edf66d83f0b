// Package sampling turns centrality-scored links into a stratified sample:
// inverse-variance allocation per category, ranking, truncation, and the
// two-sided consolidation view.
package sampling

import (
	"math"
	"sort"

	"github.com/dd0wney/linkdistributor/pkg/category"
	"github.com/dd0wney/linkdistributor/pkg/network"
)

// DefaultRMSEValue is substituted for every category when no usable RMSE
// configuration is supplied.
const DefaultRMSEValue = 0.1

// DefaultRMSE returns the uniform fallback RMSE table.
func DefaultRMSE() map[category.Category]float64 {
	out := make(map[category.Category]float64, len(category.All))
	for _, c := range category.All {
		out[c] = DefaultRMSEValue
	}
	return out
}

// ResolveRMSE returns rmse unchanged unless it is empty or has no positive
// value, in which case the defaults are returned and usedDefaults is true.
func ResolveRMSE(rmse map[category.Category]float64) (resolved map[category.Category]float64, usedDefaults bool) {
	for _, v := range rmse {
		if v > 0 {
			out := make(map[category.Category]float64, len(rmse))
			for c, r := range rmse {
				out[c] = r
			}
			return out, false
		}
	}
	return DefaultRMSE(), true
}

// Allocation is the result of AllocateSamples.
type Allocation struct {
	// Infos has one entry per category present in the links.
	Infos map[category.Category]*network.CategorySampleInfo
	// TotalWeight is the sum of 1/rmse² over every configured category with rmse > 0.
	TotalWeight float64
	// InvalidRMSE lists configured categories whose rmse is <= 0, sorted.
	InvalidRMSE []category.Category
	// Unconfigured lists populated categories with no rmse entry, sorted.
	Unconfigured []category.Category
	// TotalLinks is the number of links allocated over.
	TotalLinks int
}

// AllocateSamples computes the per-category sample size
//
//	n_c = round(N_c · w_c / Σw),  w_c = 1 / rmse_c²
//
// Categories with rmse <= 0 get zero weight and zero allocation. n_c is not
// clamped to N_c; selection clamps.
func AllocateSamples(links []*network.Link, rmse map[category.Category]float64) *Allocation {
	alloc := &Allocation{
		Infos:      make(map[category.Category]*network.CategorySampleInfo),
		TotalLinks: len(links),
	}

	weights := make(map[category.Category]float64, len(rmse))
	for c, r := range rmse {
		if r <= 0 {
			alloc.InvalidRMSE = append(alloc.InvalidRMSE, c)
			continue
		}
		w := 1.0 / (r * r)
		weights[c] = w
		alloc.TotalWeight += w
	}
	sortCategories(alloc.InvalidRMSE)

	groups := GroupByCategory(links)
	for c, members := range groups {
		info := &network.CategorySampleInfo{
			Category:        c,
			PopulationCount: len(members),
			RMSE:            rmse[c],
			Weight:          weights[c],
		}
		if _, ok := rmse[c]; !ok {
			alloc.Unconfigured = append(alloc.Unconfigured, c)
		}

		if info.Weight != 0 && alloc.TotalWeight != 0 {
			info.AllocatedCount = int(math.Round(float64(info.PopulationCount) * info.Weight / alloc.TotalWeight))
		}

		info.AvgCentrality, info.MaxCentrality, info.MinCentrality = centralityStats(members)
		if len(links) > 0 {
			info.PercentageOfTotal = float64(info.PopulationCount) * 100.0 / float64(len(links))
		}
		alloc.Infos[c] = info
	}
	sortCategories(alloc.Unconfigured)

	return alloc
}

// Table returns the infos ordered by category label.
func (a *Allocation) Table() []network.CategorySampleInfo {
	cats := make([]category.Category, 0, len(a.Infos))
	for c := range a.Infos {
		cats = append(cats, c)
	}
	sortCategories(cats)

	out := make([]network.CategorySampleInfo, len(cats))
	for i, c := range cats {
		out[i] = *a.Infos[c]
	}
	return out
}

// TotalAllocated sums AllocatedCount over every category.
func (a *Allocation) TotalAllocated() int {
	total := 0
	for _, info := range a.Infos {
		total += info.AllocatedCount
	}
	return total
}

// GroupByCategory groups links by category, keeping input order within each group.
func GroupByCategory(links []*network.Link) map[category.Category][]*network.Link {
	groups := make(map[category.Category][]*network.Link)
	for _, l := range links {
		groups[l.Category] = append(groups[l.Category], l)
	}
	return groups
}

func centralityStats(links []*network.Link) (avg, maxVal, minVal float64) {
	if len(links) == 0 {
		return 0, 0, 0
	}
	sum := 0.0
	maxVal = math.Inf(-1)
	minVal = math.Inf(1)
	for _, l := range links {
		sum += l.Centrality
		maxVal = math.Max(maxVal, l.Centrality)
		minVal = math.Min(minVal, l.Centrality)
	}
	return sum / float64(len(links)), maxVal, minVal
}

func sortCategories(cats []category.Category) {
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
}
