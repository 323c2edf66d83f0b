package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/linkdistributor/pkg/config"
	"github.com/dd0wney/linkdistributor/pkg/pipeline"
)

// ParametersFile is the per-run record of the configuration used.
const ParametersFile = "parameters.yaml"

// Parameters is what WriteParameters records.
type Parameters struct {
	RunID      string             `yaml:"run_id"`
	StartedAt  time.Time          `yaml:"started_at"`
	Config     *config.Config     `yaml:"config"`
	RMSEUsed   map[string]float64 `yaml:"rmse_used,omitempty"`
	Summary    pipeline.Summary   `yaml:"summary"`
	Categories []string           `yaml:"categories,omitempty"`
	TopEdges   []TopEdge          `yaml:"top_edges,omitempty"`
}

// TopEdge is one of the most central edges of the run.
type TopEdge struct {
	Rank   int     `yaml:"rank"`
	LinkID string  `yaml:"link_id"`
	Edge   string  `yaml:"edge"`
	Score  float64 `yaml:"score"`
}

// WriteParameters writes parameters.yaml into dir and returns its path.
// result may be nil when the run failed before producing one.
func WriteParameters(dir string, cfg *config.Config, runID string, result *pipeline.Result) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	params := Parameters{RunID: runID, Config: cfg}
	if result != nil {
		params.StartedAt = result.Summary.StartedAt
		params.Summary = result.Summary
		params.RMSEUsed = make(map[string]float64, len(result.RMSE))
		for c, v := range result.RMSE {
			params.RMSEUsed[c.String()] = v
		}
		for _, info := range result.Table {
			params.Categories = append(params.Categories, info.Category.String())
		}
		sort.Strings(params.Categories)
		for i, e := range result.TopEdges {
			params.TopEdges = append(params.TopEdges, TopEdge{Rank: i + 1, LinkID: e.LinkID, Edge: e.Key.String(), Score: e.Score})
		}
	}

	data, err := yaml.Marshal(&params)
	if err != nil {
		return "", fmt.Errorf("failed to encode parameters: %w", err)
	}

	path := filepath.Join(dir, ParametersFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
