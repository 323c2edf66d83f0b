package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"

	"github.com/dd0wney/linkdistributor/pkg/network"
	"github.com/dd0wney/linkdistributor/pkg/pipeline"
)

// GeoJSON layer names.
const (
	SelectedGeoJSON       = "selected.geojson"
	CentralityGeoJSON     = "centrality.geojson"
	RepresentativeGeoJSON = "representative.geojson"
)

// GeoJSONSink writes the selection, the scored graph links and, when
// consolidation ran, the representatives as FeatureCollections.
type GeoJSONSink struct {
	Dir string
}

// NewGeoJSONSink creates a GeoJSON sink writing into dir.
func NewGeoJSONSink(dir string) *GeoJSONSink {
	return &GeoJSONSink{Dir: dir}
}

// Name implements Sink.
func (s *GeoJSONSink) Name() string { return "geojson" }

// Write implements Sink.
func (s *GeoJSONSink) Write(ctx context.Context, result *pipeline.Result) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	layers := []layer{
		{SelectedGeoJSON, result.Selected(), func(l *network.Link) geojson.Properties { return selectionProps(result, l) }},
		{CentralityGeoJSON, result.CentralityLinks, centralityProps},
	}
	if result.Representatives != nil {
		layers = append(layers, layer{RepresentativeGeoJSON, result.Representatives, func(l *network.Link) geojson.Properties {
			p := selectionProps(result, l)
			p["OTHERSIDE"] = l.OtherSideIDs
			return p
		}})
	}

	for _, ly := range layers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ly.write(s.Dir); err != nil {
			return err
		}
	}
	return nil
}

func selectionProps(result *pipeline.Result, l *network.Link) geojson.Properties {
	return geojson.Properties{
		"ID":         l.ID,
		"TYPE":       l.Type,
		"GROUP":      l.Category.String(),
		"CENTRALITY": l.Centrality,
		"RMSE":       rmseOf(result, l),
		"DATA1":      l.ReliabilityValue,
		"isTwoSided": l.IsPaired,
		"combinedId": l.PairID,
	}
}

func centralityProps(l *network.Link) geojson.Properties {
	return geojson.Properties{
		"ID":         l.ID,
		"TYPE":       l.Type,
		"GROUP":      l.Category.String(),
		"CENTRALITY": l.Centrality,
		"FROM_NODE":  l.FromNode,
		"TO_NODE":    l.ToNode,
	}
}

type layer struct {
	name  string
	links []*network.Link
	props func(*network.Link) geojson.Properties
}

func (ly layer) write(dir string) error {
	path := filepath.Join(dir, ly.name)
	fc := geojson.NewFeatureCollection()
	for _, l := range ly.links {
		f := geojson.NewFeature(l.Geometry)
		f.ID = l.ID
		f.Properties = ly.props(l)
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
