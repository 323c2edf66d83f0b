package pipeline

import (
	"strconv"
	"strings"

	"github.com/dd0wney/linkdistributor/pkg/category"
	"github.com/dd0wney/linkdistributor/pkg/graph"
	"github.com/dd0wney/linkdistributor/pkg/logging"
	"github.com/dd0wney/linkdistributor/pkg/metrics"
	"github.com/dd0wney/linkdistributor/pkg/sampling"
)

// DefaultRampValues are the reliability codes that mark ramps.
var DefaultRampValues = []int{13, 14, 15}

// DefaultDebugPrintLimit caps per-link debug lines.
const DefaultDebugPrintLimit = 100

// RampFilter drops links whose truncated reliability value is listed in
// Values before any analysis happens.
type RampFilter struct {
	Enabled bool
	Values  []int
}

// Options configures one run. The zero value runs without a ramp filter,
// with centrality over every type, the default RMSE table and endpoints
// snapped to graph.DefaultSnapPrecision decimals.
type Options struct {
	RampFilter RampFilter
	// CentralityTypes restricts the graph to links with these type codes.
	// Empty means every type.
	CentralityTypes []string
	RMSE            map[category.Category]float64
	// SnapPrecision is the number of decimals kept when snapping endpoints.
	// nil or negative selects graph.DefaultSnapPrecision; use Precision(0)
	// to snap to whole units.
	SnapPrecision *int
	CombinePaired bool
	// Workers for the centrality engine. 0 or 1 runs sequentially,
	// negative uses one worker per CPU.
	Workers  int
	Networks []sampling.SurveyNetwork
	// RunID tags logs and results. Generated when empty.
	RunID string
	// TopN edges kept in the result for reporting.
	TopN            int
	DebugPrintLimit int

	Logger  logging.Logger
	Metrics *metrics.Registry
}

// Precision returns a pointer to n for Options.SnapPrecision.
func Precision(n int) *int {
	return &n
}

// snapPrecision resolves the configured precision.
func (o Options) snapPrecision() int {
	if o.SnapPrecision == nil || *o.SnapPrecision < 0 {
		return graph.DefaultSnapPrecision
	}
	return *o.SnapPrecision
}

// DefaultOptions mirrors the defaults of a fresh configuration file.
func DefaultOptions() Options {
	return Options{
		RampFilter:      RampFilter{Enabled: true, Values: append([]int(nil), DefaultRampValues...)},
		SnapPrecision:   Precision(graph.DefaultSnapPrecision),
		CombinePaired:   true,
		TopN:            10,
		DebugPrintLimit: DefaultDebugPrintLimit,
	}
}

// normalizeType makes "07" and "7" the same type code.
func normalizeType(code string) string {
	code = strings.TrimSpace(code)
	if n, err := strconv.Atoi(code); err == nil {
		return strconv.Itoa(n)
	}
	return code
}

type typeSet map[string]struct{}

func newTypeSet(codes []string) typeSet {
	if len(codes) == 0 {
		return nil
	}
	set := make(typeSet, len(codes))
	for _, c := range codes {
		set[normalizeType(c)] = struct{}{}
	}
	return set
}

// contains treats a nil set as "every type".
func (s typeSet) contains(code string) bool {
	if s == nil {
		return true
	}
	_, ok := s[normalizeType(code)]
	return ok
}
