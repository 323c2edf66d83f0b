// Package network holds the link records that flow through a distribution run
// and the per-category tables produced for them.
package network

import (
	"github.com/paulmach/orb"

	"github.com/dd0wney/linkdistributor/pkg/category"
)

// NoNode marks a link endpoint that has not been resolved by the graph builder.
const NoNode = -1

// Link is one network edge candidate.
//
// Stages mutate Category, Centrality, FromNode/ToNode and OtherSideIDs in place,
// so links are always passed around as *Link.
type Link struct {
	ID               string
	Type             string
	Category         category.Category
	Centrality       float64
	ReliabilityValue float64
	IsPaired         bool
	PairID           string
	Geometry         orb.LineString
	FromNode         int
	ToNode           int
	OtherSideIDs     string
}

// NewLink creates a link with unresolved endpoints.
// An empty pairID defaults to the link id.
func NewLink(id, typeCode string, geometry orb.LineString, reliability float64, paired bool, pairID string) *Link {
	if pairID == "" {
		pairID = id
	}
	return &Link{
		ID:               id,
		Type:             typeCode,
		ReliabilityValue: reliability,
		IsPaired:         paired,
		PairID:           pairID,
		Geometry:         geometry,
		FromNode:         NoNode,
		ToNode:           NoNode,
	}
}

// Start returns the first coordinate of the geometry.
func (l *Link) Start() orb.Point {
	return l.Geometry[0]
}

// End returns the last coordinate of the geometry.
func (l *Link) End() orb.Point {
	return l.Geometry[len(l.Geometry)-1]
}

// Clone returns a copy of the link. The geometry slice is shared.
func (l *Link) Clone() *Link {
	c := *l
	return &c
}

// CategorySampleInfo is one row of the per-category allocation table.
type CategorySampleInfo struct {
	Category          category.Category `json:"category" yaml:"category"`
	PopulationCount   int               `json:"population_count" yaml:"population_count"`
	RMSE              float64           `json:"rmse" yaml:"rmse"`
	Weight            float64           `json:"weight" yaml:"weight"`
	AllocatedCount    int               `json:"allocated_count" yaml:"allocated_count"`
	AvgCentrality     float64           `json:"avg_centrality" yaml:"avg_centrality"`
	MaxCentrality     float64           `json:"max_centrality" yaml:"max_centrality"`
	MinCentrality     float64           `json:"min_centrality" yaml:"min_centrality"`
	PercentageOfTotal float64           `json:"percentage_of_total" yaml:"percentage_of_total"`
}
