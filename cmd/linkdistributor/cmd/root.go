package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dd0wney/linkdistributor/pkg/config"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "linkdistributor",
	Short: "Stratified sampling of road links by edge betweenness",
	Long: `linkdistributor scores every link of a road network by edge betweenness
centrality and picks a stratified sample of links per road category for
traffic counting.

Categories are weighted by the inverse square of their target RMSE, and
within each category the most central links are selected first.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// loadConfig reads --config, or starts from the defaults when it is unset.
// Environment overrides apply in both cases.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		return cfg, nil
	}

	cfg := config.Default()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}
