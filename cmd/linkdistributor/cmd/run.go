package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dd0wney/linkdistributor/pkg/config"
	"github.com/dd0wney/linkdistributor/pkg/export"
	"github.com/dd0wney/linkdistributor/pkg/ingest"
	"github.com/dd0wney/linkdistributor/pkg/logging"
	"github.com/dd0wney/linkdistributor/pkg/metrics"
	"github.com/dd0wney/linkdistributor/pkg/pipeline"
)

const (
	runLogFile   = "run.log"
	metricsFile  = "metrics.prom"
	runDirLayout = "20060102_150405"
)

var (
	inputPath   string
	outputDir   string
	formats     []string
	workers     int
	noTimestamp bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Score a link network and select the sample",
	Long: `Run reads a GeoJSON FeatureCollection of links, computes edge betweenness
over the eligible road types, allocates samples per category and writes the
selection, consolidated representatives, summary and parameters to the
output directory.

Examples:
  linkdistributor run -i links.geojson -o out
  linkdistributor run -c survey.yaml --format csv,sqlite`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := applyRunFlags(cmd, cfg); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		_, err = runAnalysis(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), time.Now())
		return err
	},
}

func init() {
	runCmd.Flags().StringVarP(&inputPath, "input", "i", "", "input GeoJSON file")
	runCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory")
	runCmd.Flags().StringSliceVar(&formats, "format", nil, "output formats (csv, geojson, sqlite)")
	runCmd.Flags().IntVarP(&workers, "workers", "w", 0, "centrality workers, -1 for all CPUs")
	runCmd.Flags().BoolVar(&noTimestamp, "no-timestamp", false, "write directly into the output directory")
	rootCmd.AddCommand(runCmd)
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Input.Path = inputPath
	}
	if flags.Changed("output") {
		cfg.Output.Dir = outputDir
	}
	if flags.Changed("format") {
		cfg.Output.Formats = formats
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if noTimestamp {
		cfg.Output.Timestamped = false
	}
	return cfg.Validate()
}

// runAnalysis executes one run and returns the directory it wrote into.
func runAnalysis(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, now time.Time) (string, error) {
	runDir := cfg.Output.Dir
	if cfg.Output.Timestamped {
		runDir = filepath.Join(runDir, now.Format(runDirLayout))
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	logFile, err := os.Create(filepath.Join(runDir, runLogFile))
	if err != nil {
		return "", fmt.Errorf("failed to create run log: %w", err)
	}
	defer logFile.Close()

	runID := uuid.NewString()
	logger := logging.NewJSONLogger(io.MultiWriter(stderr, logFile), logging.ParseLevel(cfg.LogLevel)).
		With(logging.Component("cli"))
	registry := metrics.NewRegistry()

	logger.Info("run starting",
		logging.RunID(runID),
		logging.Path(cfg.Input.Path),
		logging.String("output_dir", runDir))

	src := ingest.NewGeoJSONSource(cfg.Input.Path, logger)
	links, report, err := src.Load(ctx)
	for reason, n := range report.ByReason() {
		registry.RecordRejected(reason, n)
	}
	if err != nil {
		finishFailed(logger, registry, cfg, runDir, runID)
		return runDir, err
	}

	opts := cfg.PipelineOptions()
	opts.RunID = runID
	opts.Logger = logger
	opts.Metrics = registry

	result, err := pipeline.Run(ctx, links, opts)
	if err != nil {
		finishFailed(logger, registry, cfg, runDir, runID)
		return runDir, err
	}

	sinks, err := export.ForFormats(runDir, cfg.Output.Formats)
	if err != nil {
		return runDir, err
	}
	if err := export.WriteAll(ctx, result, sinks...); err != nil {
		return runDir, err
	}
	if _, err := export.WriteParameters(runDir, cfg, runID, result); err != nil {
		return runDir, err
	}
	if err := writeMetrics(registry, cfg, runDir); err != nil {
		return runDir, err
	}

	logger.Info("run finished",
		logging.RunID(runID),
		logging.Count(result.Summary.TotalSelected),
		logging.Latency(result.Summary.Duration))

	fmt.Fprintln(stdout, renderSummary(result.Summary, result.Table))
	fmt.Fprintf(stdout, "results written to %s\n", runDir)
	return runDir, nil
}

// finishFailed records what is known about a failed run. Errors here are
// logged, not returned, so the run error reaches the caller.
func finishFailed(logger logging.Logger, registry *metrics.Registry, cfg *config.Config, runDir, runID string) {
	if _, err := export.WriteParameters(runDir, cfg, runID, nil); err != nil {
		logger.Error("failed to write parameters", logging.Error(err))
	}
	if err := writeMetrics(registry, cfg, runDir); err != nil {
		logger.Error("failed to write metrics", logging.Error(err))
	}
}

func writeMetrics(registry *metrics.Registry, cfg *config.Config, runDir string) error {
	if !cfg.Output.Metrics {
		return nil
	}
	return registry.WriteTextfile(filepath.Join(runDir, metricsFile))
}
