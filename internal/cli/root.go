// Package cli implements insightsctl, which runs the campaign analytics
// offline against a SQLite metric store or a CSV export.
package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"
)

type options struct {
	dbPath  string
	csvPath string
}

// NewRootCmd builds the insightsctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "insightsctl",
		Short: "Offline campaign analytics",
		Long: `insightsctl imports daily campaign metrics into a local SQLite file and
runs trend, confidence and forecast analysis on a campaign's series.
Results are printed as JSON.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", getEnvOrDefault("INSIGHTS_DB_PATH", "./insights.db"), "SQLite metric store path")
	root.PersistentFlags().StringVar(&opts.csvPath, "csv", "", "read metrics from this CSV export instead of --db")

	root.AddCommand(
		newImportCmd(opts),
		newCampaignsCmd(opts),
		newTrendsCmd(opts),
		newConfidenceCmd(opts),
		newForecastCmd(opts),
	)
	return root
}

// Execute runs insightsctl with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
