package export

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/linkdistributor/pkg/category"
	"github.com/dd0wney/linkdistributor/pkg/config"
	"github.com/dd0wney/linkdistributor/pkg/logging"
	"github.com/dd0wney/linkdistributor/pkg/network"
	"github.com/dd0wney/linkdistributor/pkg/pipeline"
)

// runFixture scores a five-link path plus a reverse twin of the middle link.
func runFixture(t *testing.T) *pipeline.Result {
	t.Helper()

	links := make([]*network.Link, 0, 6)
	for i := 0; i < 5; i++ {
		typeCode := "1"
		if i >= 3 {
			typeCode = "2"
		}
		geom := orb.LineString{{float64(i), 0}, {float64(i + 1), 0}}
		links = append(links, network.NewLink(fmt.Sprintf("L%d", i), typeCode, geom, float64(i), false, ""))
	}
	links[2].IsPaired = true
	links[2].PairID = "mid"
	links = append(links, network.NewLink("L2r", "1", orb.LineString{{3, 0}, {2, 0}}, 2, true, "mid"))

	opts := pipeline.DefaultOptions()
	opts.RunID = "run-42"
	opts.Logger = logging.NewNopLogger()
	// Only Group1 is weighted, so all four of its links are selected and the
	// pair (L2, L2r) is consolidated.
	opts.RMSE = map[category.Category]float64{category.Group1: 0.1}

	result, err := pipeline.Run(context.Background(), links, opts)
	require.NoError(t, err)
	return result
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVSink(t *testing.T) {
	result := runFixture(t)
	dir := t.TempDir()

	require.NoError(t, NewCSVSink(dir).Write(context.Background(), result))

	rows := readCSV(t, filepath.Join(dir, ResultsCSV))
	require.Len(t, rows, result.Summary.TotalSelected+1)
	assert.Equal(t, linkHeader, rows[0])
	// Middle link of the path carries the maximum score.
	assert.Equal(t, []string{"L2", "1", "Group1", "1.0000", "0.1000", "2", "true", "mid", "1.0000"}, rows[1])

	reps := readCSV(t, filepath.Join(dir, RepresentativesCSV))
	assert.Equal(t, "OTHERSIDE", reps[0][len(reps[0])-1])
	var mid []string
	for _, r := range reps[1:] {
		if r[0] == "L2" {
			mid = r
		}
	}
	require.NotNil(t, mid, "representative for pair mid")
	assert.Equal(t, "L2r", mid[9])
	assert.Equal(t, "0.5000", mid[3])

	summary := readCSV(t, filepath.Join(dir, SummaryCSV))
	assert.Equal(t, []string{"Run ID", "run-42"}, summary[0])
	assert.Equal(t, []string{"Total Links in Network", "First-Stage Sampled Links", "Selected Links"}, summary[4])
	assert.Equal(t, []string{"6", "6", fmt.Sprint(result.Summary.TotalSelected)}, summary[5])
	assert.Equal(t, groupHeader, summary[6])
	require.Len(t, summary, 9)
	assert.Equal(t, "Group1", summary[7][0])
	assert.Equal(t, "4", summary[7][1])
	assert.Equal(t, "Group2", summary[8][0])
}

func TestCSVSink_NoRepresentatives(t *testing.T) {
	result := runFixture(t)
	result.Representatives = nil
	dir := t.TempDir()

	require.NoError(t, NewCSVSink(dir).Write(context.Background(), result))
	_, err := os.Stat(filepath.Join(dir, RepresentativesCSV))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestGeoJSONSink(t *testing.T) {
	result := runFixture(t)
	dir := t.TempDir()

	require.NoError(t, NewGeoJSONSink(dir).Write(context.Background(), result))

	load := func(name string) *geojson.FeatureCollection {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		fc, err := geojson.UnmarshalFeatureCollection(data)
		require.NoError(t, err)
		return fc
	}

	selected := load(SelectedGeoJSON)
	require.Len(t, selected.Features, result.Summary.TotalSelected)
	first := selected.Features[0]
	assert.Equal(t, "L2", first.Properties.MustString("ID"))
	assert.Equal(t, "Group1", first.Properties.MustString("GROUP"))
	assert.Equal(t, 1.0, first.Properties.MustFloat64("CENTRALITY"))
	assert.Equal(t, orb.LineString{{2, 0}, {3, 0}}, first.Geometry)

	scored := load(CentralityGeoJSON)
	assert.Len(t, scored.Features, len(result.CentralityLinks))

	reps := load(RepresentativeGeoJSON)
	assert.Len(t, reps.Features, len(result.Representatives))
	found := false
	for _, f := range reps.Features {
		if f.Properties.MustString("ID") == "L2" {
			found = true
			assert.Equal(t, "L2r", f.Properties.MustString("OTHERSIDE"))
		}
	}
	assert.True(t, found)
}

func TestSQLiteSink(t *testing.T) {
	result := runFixture(t)
	sink := NewSQLiteSink(t.TempDir())

	require.NoError(t, sink.Write(context.Background(), result))
	// Writing the same run twice replaces its rows.
	require.NoError(t, sink.Write(context.Background(), result))

	db, err := sql.Open("sqlite", sink.Path())
	require.NoError(t, err)
	defer db.Close()

	count := func(query string, args ...any) int {
		var n int
		require.NoError(t, db.QueryRow(query, args...).Scan(&n))
		return n
	}

	assert.Equal(t, 1, count(`SELECT COUNT(*) FROM run WHERE run_id = ?`, "run-42"))
	assert.Equal(t, len(result.Retained), count(`SELECT COUNT(*) FROM links`))
	assert.Equal(t, result.Summary.TotalSelected, count(`SELECT COUNT(*) FROM selected`))
	assert.Equal(t, len(result.Table), count(`SELECT COUNT(*) FROM category_summary`))
	assert.Equal(t, len(result.Representatives), count(`SELECT COUNT(*) FROM representatives`))
	assert.Equal(t, len(result.Diagnostics), count(`SELECT COUNT(*) FROM diagnostics`))

	var topID string
	require.NoError(t, db.QueryRow(
		`SELECT link_id FROM selected WHERE category = 'Group1' AND rank = 1`).Scan(&topID))
	assert.Equal(t, "L2", topID)

	var paired int
	require.NoError(t, db.QueryRow(`SELECT is_paired FROM links WHERE id = 'L2r'`).Scan(&paired))
	assert.Equal(t, 1, paired)
}

func TestWriteParameters(t *testing.T) {
	result := runFixture(t)
	cfg := config.Default()
	dir := t.TempDir()

	path, err := WriteParameters(dir, cfg, "run-42", result)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ParametersFile), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, "run-42", back["run_id"])
	assert.Contains(t, back, "config")
	assert.Equal(t, []any{"Group1", "Group2"}, back["categories"])

	var params Parameters
	require.NoError(t, yaml.Unmarshal(data, &params))
	require.NotEmpty(t, params.TopEdges)
	assert.Equal(t, TopEdge{Rank: 1, LinkID: "L2", Edge: result.TopEdges[0].Key.String(), Score: 1}, params.TopEdges[0])

	_, err = WriteParameters(t.TempDir(), cfg, "failed-run", nil)
	assert.NoError(t, err)
}

type failingSink struct{ calls *int }

func (f failingSink) Name() string { return "failing" }

func (f failingSink) Write(context.Context, *pipeline.Result) error {
	*f.calls++
	return errors.New("disk full")
}

func TestWriteAll(t *testing.T) {
	result := runFixture(t)
	calls := 0

	err := WriteAll(context.Background(), result, failingSink{&calls}, failingSink{&calls})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing sink: disk full")
	assert.Equal(t, 1, calls)
}

func TestForFormats(t *testing.T) {
	sinks, err := ForFormats("out", []string{config.FormatCSV, config.FormatSQLite, config.FormatGeoJSON})
	require.NoError(t, err)
	require.Len(t, sinks, 3)
	assert.Equal(t, "csv", sinks[0].Name())
	assert.Equal(t, "sqlite", sinks[1].Name())

	_, err = ForFormats("out", []string{"shapefile"})
	assert.Error(t, err)
}

func TestLoadRun(t *testing.T) {
	result := runFixture(t)
	sink := NewSQLiteSink(t.TempDir())
	require.NoError(t, sink.Write(context.Background(), result))

	stored, err := LoadRun(context.Background(), sink.Path(), "")
	require.NoError(t, err)
	assert.Equal(t, "run-42", stored.Summary.RunID)
	assert.Equal(t, result.Summary.TotalSelected, stored.Summary.TotalSelected)
	assert.Equal(t, result.Summary.GraphEdges, stored.Summary.GraphEdges)
	assert.Equal(t, 1, stored.Summary.GraphComponents)
	require.Len(t, stored.Table, len(result.Table))
	assert.Equal(t, result.Table[0].Category, stored.Table[0].Category)
	assert.Equal(t, result.Table[0].AllocatedCount, stored.Table[0].AllocatedCount)

	_, err = LoadRun(context.Background(), sink.Path(), "other")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = LoadRun(context.Background(), filepath.Join(t.TempDir(), "none.db"), "")
	assert.Error(t, err)
}

func TestSQLiteSink_DuplicateInputIDs(t *testing.T) {
	links := []*network.Link{
		network.NewLink("A", "1", orb.LineString{{0, 0}, {1, 0}}, 0, false, ""),
		network.NewLink("B", "1", orb.LineString{{1, 0}, {2, 0}}, 0, false, ""),
		network.NewLink("A", "1", orb.LineString{{2, 0}, {3, 0}}, 0, false, ""),
	}
	opts := pipeline.DefaultOptions()
	opts.RunID = "dup-run"
	opts.Logger = logging.NewNopLogger()

	result, err := pipeline.Run(context.Background(), links, opts)
	require.NoError(t, err)

	sink := NewSQLiteSink(t.TempDir())
	require.NoError(t, sink.Write(context.Background(), result))

	db, err := sql.Open("sqlite", sink.Path())
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM links WHERE run_id = ?`, "dup-run").Scan(&n))
	assert.Equal(t, 2, n)
}
