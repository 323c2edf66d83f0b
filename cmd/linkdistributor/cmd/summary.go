package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/dd0wney/linkdistributor/pkg/export"
	"github.com/dd0wney/linkdistributor/pkg/network"
	"github.com/dd0wney/linkdistributor/pkg/pipeline"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFF00")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

var summaryRunID string

var summaryCmd = &cobra.Command{
	Use:   "summary <dir>",
	Short: "Show the summary of a stored run",
	Long: `Summary reads results.db from a run directory written with the sqlite
format and prints its category table.

Examples:
  linkdistributor summary out/20250101_120000
  linkdistributor summary out --run 3f2a...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if !strings.HasSuffix(path, ".db") {
			path = filepath.Join(path, export.SQLiteFile)
		}
		stored, err := export.LoadRun(cmd.Context(), path, summaryRunID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(stored.Summary, stored.Table))
		return nil
	},
}

func init() {
	summaryCmd.Flags().StringVar(&summaryRunID, "run", "", "run id, latest run when empty")
	rootCmd.AddCommand(summaryCmd)
}

// renderSummary formats the run totals and the per-category table.
func renderSummary(s pipeline.Summary, rows []network.CategorySampleInfo) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Run " + s.RunID))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf(
		"ingested %d  retained %d  ramps %d  vertices %d  edges %d  components %d  selected %d",
		s.TotalIngested, s.TotalRetained, s.RampFiltered, s.GraphVertices, s.GraphEdges, s.GraphComponents, s.TotalSelected)))
	b.WriteString("\n")
	if s.UsedDefaultRMSE {
		b.WriteString(dimStyle.Render("no usable RMSE configured, defaults applied"))
		b.WriteString("\n")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Group", "Links", "RMSE", "Weight", "Samples", "Avg", "Max", "Min", "%").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	total := 0
	for _, info := range rows {
		total += info.AllocatedCount
		t.Row(
			info.Category.String(),
			strconv.Itoa(info.PopulationCount),
			strconv.FormatFloat(info.RMSE, 'f', 2, 64),
			strconv.FormatFloat(info.Weight, 'f', 2, 64),
			strconv.Itoa(info.AllocatedCount),
			strconv.FormatFloat(info.AvgCentrality, 'f', 4, 64),
			strconv.FormatFloat(info.MaxCentrality, 'f', 4, 64),
			strconv.FormatFloat(info.MinCentrality, 'f', 4, 64),
			strconv.FormatFloat(info.PercentageOfTotal, 'f', 1, 64),
		)
	}
	t.Row("Total", strconv.Itoa(s.TotalRetained), "", "", strconv.Itoa(total), "", "", "", "")

	b.WriteString(t.Render())

	if s.Budget != nil {
		b.WriteString("\n")
		line := fmt.Sprintf("budget: cost %.2f for %d links", s.Budget.TotalCost, s.Budget.TotalQuota)
		if len(s.Budget.OverBudget) > 0 {
			line += ", over budget: " + strings.Join(s.Budget.OverBudget, ", ")
		}
		b.WriteString(line)
	}
	return b.String()
}
