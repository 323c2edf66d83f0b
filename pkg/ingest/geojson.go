package ingest

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/dd0wney/linkdistributor/pkg/logging"
	"github.com/dd0wney/linkdistributor/pkg/network"
)

// Feature property names.
const (
	PropID         = "ID"
	PropType       = "TYPE"
	PropData1      = "DATA1"
	PropTwoSided   = "isTwoSided"
	PropCombinedID = "combinedId"
)

// DefaultData1 is used when DATA1 is absent or unreadable.
const DefaultData1 = -1.0

// GeoJSONSource reads a FeatureCollection of LineString or MultiLineString
// features.
type GeoJSONSource struct {
	Path   string
	Logger logging.Logger
}

// NewGeoJSONSource creates a source for path.
func NewGeoJSONSource(path string, logger logging.Logger) *GeoJSONSource {
	return &GeoJSONSource{Path: path, Logger: logger}
}

// Load reads and decodes the file.
func (s *GeoJSONSource) Load(ctx context.Context) ([]*network.Link, Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, Report{}, err
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, Report{}, fmt.Errorf("failed to read %s: %w", s.Path, err)
	}

	logger := logging.OrDefault(s.Logger).With(logging.Path(s.Path))
	links, report, err := Decode(ctx, data, logger)
	if err != nil {
		return nil, report, fmt.Errorf("%s: %w", s.Path, err)
	}
	return links, report, nil
}

// Decode converts a GeoJSON FeatureCollection into links. Features that
// break the link contract are reported and skipped.
func Decode(ctx context.Context, data []byte, logger logging.Logger) ([]*network.Link, Report, error) {
	logger = logging.OrDefault(logger)

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, Report{}, fmt.Errorf("failed to decode feature collection: %w", err)
	}

	report := Report{Features: len(fc.Features)}
	links := make([]*network.Link, 0, len(fc.Features))
	seen := make(map[string]int, len(fc.Features))

	for i, f := range fc.Features {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, report, err
			}
		}

		link, issue, warnings := decodeFeature(i, f)
		if issue == nil {
			// ids key every output table, so the first feature keeps the id
			if first, dup := seen[link.ID]; dup {
				issue = &Issue{Index: i, ID: link.ID, Reason: ReasonDuplicateID,
					Detail: fmt.Sprintf("id already used by feature %d", first)}
				warnings = nil
			} else {
				seen[link.ID] = i
			}
		}
		for _, w := range warnings {
			report.Warnings = append(report.Warnings, w)
			logger.Warn("feature attribute defaulted",
				logging.LinkID(w.ID), logging.String("reason", w.Reason), logging.String("detail", w.Detail))
		}
		if issue != nil {
			report.Rejected = append(report.Rejected, *issue)
			logger.Warn("feature rejected",
				logging.LinkID(issue.ID), logging.Int("index", i),
				logging.String("reason", issue.Reason), logging.String("detail", issue.Detail))
			continue
		}
		links = append(links, link)
	}

	report.Accepted = len(links)
	logger.Info("features loaded",
		logging.Int("features", report.Features),
		logging.Int("accepted", report.Accepted),
		logging.Int("rejected", len(report.Rejected)),
	)

	if len(links) == 0 {
		return nil, report, ErrNoFeatures
	}
	return links, report, nil
}

func decodeFeature(index int, f *geojson.Feature) (*network.Link, *Issue, []Issue) {
	id := featureID(index, f)
	reject := func(reason, detail string) (*network.Link, *Issue, []Issue) {
		return nil, &Issue{Index: index, ID: id, Reason: reason, Detail: detail}, nil
	}

	typeCode, ok := scalarString(f.Properties[PropType])
	if !ok || strings.TrimSpace(typeCode) == "" {
		return reject(ReasonMissingType, "")
	}
	if _, err := strconv.Atoi(strings.TrimSpace(typeCode)); err != nil {
		return reject(ReasonBadType, fmt.Sprintf("TYPE %q is not an integer", typeCode))
	}

	if f.Geometry == nil {
		return reject(ReasonNoGeometry, "")
	}
	var line orb.LineString
	switch g := f.Geometry.(type) {
	case orb.LineString:
		line = g
	case orb.MultiLineString:
		for _, part := range g {
			line = append(line, part...)
		}
	default:
		return reject(ReasonUnsupportedGeometry, f.Geometry.GeoJSONType())
	}
	if len(line) < 2 {
		return reject(ReasonShortGeometry, fmt.Sprintf("%d coordinates", len(line)))
	}

	var warnings []Issue
	data1 := DefaultData1
	if raw, present := f.Properties[PropData1]; present && raw != nil {
		v, ok := scalarFloat(raw)
		if ok {
			data1 = v
		} else {
			warnings = append(warnings, Issue{Index: index, ID: id, Reason: ReasonBadData1, Detail: fmt.Sprintf("DATA1 %v", raw)})
		}
	}

	paired := scalarBool(f.Properties[PropTwoSided])
	combined, _ := scalarString(f.Properties[PropCombinedID])

	return network.NewLink(id, strings.TrimSpace(typeCode), line, data1, paired, strings.TrimSpace(combined)), nil, warnings
}

func featureID(index int, f *geojson.Feature) string {
	if id, ok := scalarString(f.Properties[PropID]); ok && id != "" {
		return id
	}
	if id, ok := scalarString(f.ID); ok && id != "" {
		return id
	}
	return "feature." + strconv.Itoa(index)
}

// scalarString renders JSON strings and numbers as text.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10), true
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	}
	return "", false
}

func scalarFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

func scalarBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return err == nil && b
	case float64:
		return t != 0
	}
	return false
}
