package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dd0wney/linkdistributor/pkg/category"
	"github.com/dd0wney/linkdistributor/pkg/network"
	"github.com/dd0wney/linkdistributor/pkg/pipeline"
)

// SQLiteFile is the database written into the sink directory.
const SQLiteFile = "results.db"

// ErrRunNotFound is returned by LoadRun when no run matches.
var ErrRunNotFound = errors.New("run not found")

const schema = `
	PRAGMA synchronous = NORMAL;
	PRAGMA temp_store = MEMORY;

	CREATE TABLE IF NOT EXISTS run (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		total_ingested INTEGER NOT NULL,
		total_retained INTEGER NOT NULL,
		ramp_filtered INTEGER NOT NULL,
		total_selected INTEGER NOT NULL,
		graph_vertices INTEGER NOT NULL,
		graph_edges INTEGER NOT NULL,
		graph_components INTEGER NOT NULL,
		max_raw_centrality REAL NOT NULL,
		used_default_rmse INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS links (
		run_id TEXT NOT NULL,
		id TEXT NOT NULL,
		type TEXT NOT NULL,
		category TEXT NOT NULL,
		centrality REAL NOT NULL,
		data1 REAL NOT NULL,
		is_paired INTEGER NOT NULL,
		pair_id TEXT NOT NULL,
		from_node INTEGER NOT NULL,
		to_node INTEGER NOT NULL,
		length REAL NOT NULL,
		PRIMARY KEY (run_id, id)
	);
	CREATE TABLE IF NOT EXISTS selected (
		run_id TEXT NOT NULL,
		category TEXT NOT NULL,
		rank INTEGER NOT NULL,
		link_id TEXT NOT NULL,
		PRIMARY KEY (run_id, category, rank)
	);
	CREATE TABLE IF NOT EXISTS representatives (
		run_id TEXT NOT NULL,
		link_id TEXT NOT NULL,
		centrality REAL NOT NULL,
		other_side_ids TEXT NOT NULL,
		PRIMARY KEY (run_id, link_id)
	);
	CREATE TABLE IF NOT EXISTS category_summary (
		run_id TEXT NOT NULL,
		category TEXT NOT NULL,
		population INTEGER NOT NULL,
		rmse REAL NOT NULL,
		weight REAL NOT NULL,
		allocated INTEGER NOT NULL,
		avg_centrality REAL NOT NULL,
		max_centrality REAL NOT NULL,
		min_centrality REAL NOT NULL,
		percentage REAL NOT NULL,
		PRIMARY KEY (run_id, category)
	);
	CREATE TABLE IF NOT EXISTS diagnostics (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		kind TEXT NOT NULL,
		stage TEXT NOT NULL,
		link_id TEXT NOT NULL,
		category TEXT NOT NULL,
		message TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_links_category ON links(run_id, category);
`

// SQLiteSink stores every table of a run in one SQLite database.
type SQLiteSink struct {
	Dir string
}

// NewSQLiteSink creates a SQLite sink writing into dir.
func NewSQLiteSink(dir string) *SQLiteSink {
	return &SQLiteSink{Dir: dir}
}

// Name implements Sink.
func (s *SQLiteSink) Name() string { return "sqlite" }

// Path returns the database file path.
func (s *SQLiteSink) Path() string {
	return filepath.Join(s.Dir, SQLiteFile)
}

// Write implements Sink. Rows for the run id are replaced when the run was
// written before.
func (s *SQLiteSink) Write(ctx context.Context, result *pipeline.Result) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.Path())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to setup database: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := insertRun(ctx, tx, result); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertRun(ctx context.Context, tx *sql.Tx, result *pipeline.Result) error {
	s := result.Summary
	runID := s.RunID

	for _, table := range []string{"run", "links", "selected", "representatives", "category_summary", "diagnostics"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", runID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO run (run_id, started_at, duration_ms, total_ingested, total_retained,
			ramp_filtered, total_selected, graph_vertices, graph_edges, graph_components, max_raw_centrality, used_default_rmse)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, s.StartedAt.Format(time.RFC3339), s.Duration.Milliseconds(), s.TotalIngested, s.TotalRetained,
		s.RampFiltered, s.TotalSelected, s.GraphVertices, s.GraphEdges, s.GraphComponents, s.MaxRawCentrality, boolInt(s.UsedDefaultRMSE)); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	linkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO links (run_id, id, type, category, centrality, data1, is_paired, pair_id, from_node, to_node, length)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare links insert: %w", err)
	}
	defer linkStmt.Close()
	for _, l := range result.Retained {
		if _, err := linkStmt.ExecContext(ctx, runID, l.ID, l.Type, l.Category.String(), l.Centrality,
			l.ReliabilityValue, boolInt(l.IsPaired), l.PairID, l.FromNode, l.ToNode, Length(l)); err != nil {
			return fmt.Errorf("failed to insert link %s: %w", l.ID, err)
		}
	}

	if result.Selection != nil {
		for _, c := range result.Selection.Categories {
			for rank, l := range result.Selection.ByCategory[c] {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO selected (run_id, category, rank, link_id) VALUES (?, ?, ?, ?)`,
					runID, c.String(), rank+1, l.ID); err != nil {
					return fmt.Errorf("failed to insert selection: %w", err)
				}
			}
		}
	}

	for _, l := range result.Representatives {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO representatives (run_id, link_id, centrality, other_side_ids) VALUES (?, ?, ?, ?)`,
			runID, l.ID, l.Centrality, l.OtherSideIDs); err != nil {
			return fmt.Errorf("failed to insert representative %s: %w", l.ID, err)
		}
	}

	for _, info := range result.Table {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO category_summary (run_id, category, population, rmse, weight, allocated,
				avg_centrality, max_centrality, min_centrality, percentage)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, runID, info.Category.String(), info.PopulationCount, info.RMSE, info.Weight, info.AllocatedCount,
			info.AvgCentrality, info.MaxCentrality, info.MinCentrality, info.PercentageOfTotal); err != nil {
			return fmt.Errorf("failed to insert category %s: %w", info.Category, err)
		}
	}

	for i, d := range result.Diagnostics {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO diagnostics (run_id, seq, kind, stage, link_id, category, message)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, runID, i, d.Kind, d.Stage, d.LinkID, d.Category.String(), d.Message); err != nil {
			return fmt.Errorf("failed to insert diagnostic: %w", err)
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// StoredRun is a run read back from a results database.
type StoredRun struct {
	Summary pipeline.Summary
	Table   []network.CategorySampleInfo
}

// LoadRun reads one run from the database at path. An empty runID selects
// the most recently started run.
func LoadRun(ctx context.Context, path, runID string) (*StoredRun, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	query := `SELECT run_id, started_at, duration_ms, total_ingested, total_retained, ramp_filtered,
		total_selected, graph_vertices, graph_edges, graph_components, max_raw_centrality, used_default_rmse FROM run`
	args := []any{}
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY started_at DESC LIMIT 1`

	var (
		run         StoredRun
		startedAt   string
		durationMS  int64
		usedDefault int
	)
	s := &run.Summary
	err = db.QueryRowContext(ctx, query, args...).Scan(&s.RunID, &startedAt, &durationMS, &s.TotalIngested,
		&s.TotalRetained, &s.RampFiltered, &s.TotalSelected, &s.GraphVertices, &s.GraphEdges,
		&s.GraphComponents, &s.MaxRawCentrality, &usedDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %q: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run: %w", err)
	}
	s.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	s.Duration = time.Duration(durationMS) * time.Millisecond
	s.UsedDefaultRMSE = usedDefault != 0

	rows, err := db.QueryContext(ctx, `
		SELECT category, population, rmse, weight, allocated, avg_centrality, max_centrality, min_centrality, percentage
		FROM category_summary WHERE run_id = ? ORDER BY category
	`, s.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to read category summary: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			info network.CategorySampleInfo
			cat  string
		)
		if err := rows.Scan(&cat, &info.PopulationCount, &info.RMSE, &info.Weight, &info.AllocatedCount,
			&info.AvgCentrality, &info.MaxCentrality, &info.MinCentrality, &info.PercentageOfTotal); err != nil {
			return nil, fmt.Errorf("failed to scan category summary: %w", err)
		}
		info.Category = category.Category(cat)
		run.Table = append(run.Table, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read category summary: %w", err)
	}
	return &run, nil
}
