package main

import (
	"fmt"
	"time"

	"github.com/marcw/psync/internal/report"
	"github.com/marcw/psync/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the latest sync run summary",
	Long: `Show the summary of the most recent sync run.

Every run (dry runs included) persists a JSON summary artifact under
the artifacts directory. This command loads the latest one and prints
its counters, warnings, and errors.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	// Report-specific flags
	reportCmd.Flags().String("artifacts", "artifacts", "directory holding run summaries")
}

func runReport(cmd *cobra.Command, args []string) error {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	artifactsDir, _ := cmd.Flags().GetString("artifacts")

	summary, path, err := report.LatestSummary(artifactsDir)
	if err != nil {
		return fmt.Errorf("no run summary found: %w", err)
	}

	util.InfoLog("Summary artifact: %s", path)
	util.InfoLog("Run: %s at %s", summary.RunID, summary.Timestamp.Format(time.RFC3339))

	counts := report.SummaryCounts{
		Total:     intStat(summary.Stats, "total_items"),
		Processed: intStat(summary.Stats, "processed"),
		Created:   intStat(summary.Stats, "created"),
		Updated:   intStat(summary.Stats, "updated"),
		Skipped:   intStat(summary.Stats, "skipped"),
		Deleted:   intStat(summary.Stats, "deleted"),
		Errors:    stringsStat(summary.Stats, "errors"),
		Warnings:  stringsStat(summary.Stats, "warnings"),
	}
	report.PrintSummary(counts, 0, summary.DryRun)

	return nil
}

// intStat reads a numeric counter out of the decoded stats document.
func intStat(stats map[string]any, key string) int {
	if v, ok := stats[key].(float64); ok {
		return int(v)
	}
	return 0
}

// stringsStat reads a string list out of the decoded stats document.
func stringsStat(stats map[string]any, key string) []string {
	list, ok := stats[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
