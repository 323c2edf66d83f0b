// Package export writes pipeline results to disk: CSV tables, GeoJSON
// layers, a SQLite database and the run parameters.
package export

import (
	"context"
	"fmt"
	"strconv"

	"github.com/paulmach/orb/planar"

	"github.com/dd0wney/linkdistributor/pkg/config"
	"github.com/dd0wney/linkdistributor/pkg/network"
	"github.com/dd0wney/linkdistributor/pkg/pipeline"
)

// Sink accepts the result of one run.
type Sink interface {
	Name() string
	Write(ctx context.Context, result *pipeline.Result) error
}

// ForFormats builds one sink per output format, all writing into dir.
func ForFormats(dir string, formats []string) ([]Sink, error) {
	sinks := make([]Sink, 0, len(formats))
	for _, f := range formats {
		switch f {
		case config.FormatCSV:
			sinks = append(sinks, NewCSVSink(dir))
		case config.FormatGeoJSON:
			sinks = append(sinks, NewGeoJSONSink(dir))
		case config.FormatSQLite:
			sinks = append(sinks, NewSQLiteSink(dir))
		default:
			return nil, fmt.Errorf("unknown output format %q", f)
		}
	}
	return sinks, nil
}

// WriteAll runs every sink in order and stops at the first failure.
func WriteAll(ctx context.Context, result *pipeline.Result, sinks ...Sink) error {
	for _, s := range sinks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Write(ctx, result); err != nil {
			return fmt.Errorf("%s sink: %w", s.Name(), err)
		}
	}
	return nil
}

// Length is the planar length of the link geometry in source units.
func Length(l *network.Link) float64 {
	return planar.Length(l.Geometry)
}

func rmseOf(result *pipeline.Result, l *network.Link) float64 {
	return result.RMSE[l.Category]
}

func fixed4(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
