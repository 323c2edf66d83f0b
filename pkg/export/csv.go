package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dd0wney/linkdistributor/pkg/network"
	"github.com/dd0wney/linkdistributor/pkg/pipeline"
)

// CSV file names.
const (
	ResultsCSV         = "results.csv"
	SummaryCSV         = "summary.csv"
	RepresentativesCSV = "representatives.csv"
)

var linkHeader = []string{"ID", "TYPE", "GROUP", "CENTRALITY", "RMSE", "DATA1", "isTwoSided", "COMBINED_ID", "LENGTH"}

var groupHeader = []string{"Group", "N_g", "RMSE", "w_g", "n_g", "AvgCentrality", "MaxCentrality", "MinCentrality", "Percentage"}

// CSVSink writes the selection, the representatives and the summary table.
type CSVSink struct {
	Dir string
}

// NewCSVSink creates a CSV sink writing into dir.
func NewCSVSink(dir string) *CSVSink {
	return &CSVSink{Dir: dir}
}

// Name implements Sink.
func (s *CSVSink) Name() string { return "csv" }

// Write implements Sink.
func (s *CSVSink) Write(ctx context.Context, result *pipeline.Result) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := writeCSV(filepath.Join(s.Dir, ResultsCSV), linkRecords(result, result.Selected(), false)); err != nil {
		return err
	}
	if result.Representatives != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeCSV(filepath.Join(s.Dir, RepresentativesCSV), linkRecords(result, result.Representatives, true)); err != nil {
			return err
		}
	}
	return writeCSV(filepath.Join(s.Dir, SummaryCSV), summaryRecords(result))
}

func linkRecords(result *pipeline.Result, links []*network.Link, withOtherSide bool) [][]string {
	header := linkHeader
	if withOtherSide {
		header = append(append([]string{}, linkHeader...), "OTHERSIDE")
	}

	records := make([][]string, 0, len(links)+1)
	records = append(records, header)
	for _, l := range links {
		rec := []string{
			l.ID,
			l.Type,
			l.Category.String(),
			fixed4(l.Centrality),
			fixed4(rmseOf(result, l)),
			plain(l.ReliabilityValue),
			strconv.FormatBool(l.IsPaired),
			l.PairID,
			fixed4(Length(l)),
		}
		if withOtherSide {
			rec = append(rec, l.OtherSideIDs)
		}
		records = append(records, rec)
	}
	return records
}

func summaryRecords(result *pipeline.Result) [][]string {
	s := result.Summary
	records := [][]string{
		{"Run ID", s.RunID},
		{"Date", s.StartedAt.Format("2006-01-02")},
		{"Time", s.StartedAt.Format("15:04:05")},
		{"Duration (ms)", strconv.FormatInt(s.Duration.Milliseconds(), 10)},
		{},
		{"Total Links in Network", "First-Stage Sampled Links", "Selected Links"},
		{strconv.Itoa(s.TotalIngested), strconv.Itoa(s.TotalRetained), strconv.Itoa(s.TotalSelected)},
		{},
		groupHeader,
	}
	for _, info := range result.Table {
		records = append(records, []string{
			info.Category.String(),
			strconv.Itoa(info.PopulationCount),
			fixed4(info.RMSE),
			fixed4(info.Weight),
			strconv.Itoa(info.AllocatedCount),
			fixed4(info.AvgCentrality),
			fixed4(info.MaxCentrality),
			fixed4(info.MinCentrality),
			fixed4(info.PercentageOfTotal),
		})
	}
	if s.Budget != nil {
		records = append(records,
			[]string{},
			[]string{"Total Cost", "Total Quota"},
			[]string{fixed4(s.Budget.TotalCost), strconv.Itoa(s.Budget.TotalQuota)},
		)
	}
	return records
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
