// Package ingest reads link records from geospatial sources.
package ingest

import (
	"context"
	"errors"
	"sort"

	"github.com/dd0wney/linkdistributor/pkg/network"
)

// ErrNoFeatures is returned when a source holds no usable link.
var ErrNoFeatures = errors.New("no usable features in input")

// Rejection reasons.
const (
	ReasonMissingType         = "missing_type"
	ReasonBadType             = "bad_type"
	ReasonNoGeometry          = "no_geometry"
	ReasonUnsupportedGeometry = "unsupported_geometry"
	ReasonShortGeometry       = "short_geometry"
	ReasonBadData1            = "bad_data1"
	ReasonDuplicateID         = "duplicate_id"
)

// Source yields the links of one run.
type Source interface {
	Load(ctx context.Context) ([]*network.Link, Report, error)
}

// Issue is one feature problem found while reading.
type Issue struct {
	Index  int    `json:"index"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// Report describes what a Load accepted and what it dropped.
type Report struct {
	Features int
	Accepted int
	// Rejected features never reach the pipeline.
	Rejected []Issue
	// Warnings are accepted features with a defaulted attribute.
	Warnings []Issue
}

// ByReason counts rejections per reason.
func (r Report) ByReason() map[string]int {
	out := make(map[string]int)
	for _, is := range r.Rejected {
		out[is.Reason]++
	}
	return out
}

// Reasons lists the rejection reasons present, sorted.
func (r Report) Reasons() []string {
	counts := r.ByReason()
	out := make([]string, 0, len(counts))
	for reason := range counts {
		out = append(out, reason)
	}
	sort.Strings(out)
	return out
}
