package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/marcw/psync/internal/util"
)

// maxPrintedErrors bounds how many errors the console summary shows;
// the full list is always in the artifact.
const maxPrintedErrors = 5

// RunSummary is the per-run artifact persisted after every sync,
// dry-run included.
type RunSummary struct {
	RunID     string         `json:"run_id"`
	Timestamp time.Time      `json:"timestamp"`
	Stats     map[string]any `json:"stats"`
	Database  map[string]any `json:"database"`
	DryRun    bool           `json:"dry_run"`
}

// WriteRunSummary persists the run summary as JSON under dir and
// returns the artifact path. stats and dbConfig may be any
// JSON-marshalable values; they are stored as-is.
func WriteRunSummary(dir, runID string, stats, dbConfig any, dryRun bool) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	doc := struct {
		RunID     string    `json:"run_id"`
		Timestamp time.Time `json:"timestamp"`
		Stats     any       `json:"stats"`
		Database  any       `json:"database"`
		DryRun    bool      `json:"dry_run"`
	}{
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		Stats:     stats,
		Database:  dbConfig,
		DryRun:    dryRun,
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode summary: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("sync-summary-%s.json", doc.Timestamp.Format("20060102-150405")))
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}

	return path, nil
}

// LatestSummary loads the most recent summary artifact from dir.
func LatestSummary(dir string) (*RunSummary, string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read artifacts directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "sync-summary-") && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, "", fmt.Errorf("no summary artifacts in %s: %w", dir, util.ErrNotFound)
	}

	// Timestamped names sort chronologically.
	sort.Strings(names)
	path := filepath.Join(dir, names[len(names)-1])

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read summary: %w", err)
	}

	var summary RunSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, "", fmt.Errorf("failed to decode summary: %w", err)
	}

	return &summary, path, nil
}

// SummaryCounts is the console-facing slice of a run's stats.
type SummaryCounts struct {
	Total     int
	Processed int
	Created   int
	Updated   int
	Skipped   int
	Deleted   int
	Errors    []string
	Warnings  []string
}

// PrintSummary writes the human-readable run summary to the console.
func PrintSummary(c SummaryCounts, duration time.Duration, dryRun bool) {
	header := "=== Sync Summary ==="
	if dryRun {
		header = "=== Sync Summary (dry run) ==="
	}
	util.InfoLog("%s", header)
	util.InfoLog("  Items:   %s total, %s processed",
		humanize.Comma(int64(c.Total)), humanize.Comma(int64(c.Processed)))
	util.InfoLog("  Created: %s", humanize.Comma(int64(c.Created)))
	util.InfoLog("  Updated: %s", humanize.Comma(int64(c.Updated)))
	util.InfoLog("  Skipped: %s", humanize.Comma(int64(c.Skipped)))
	util.InfoLog("  Deleted: %s", humanize.Comma(int64(c.Deleted)))
	util.InfoLog("  Took:    %v", duration.Round(time.Millisecond))

	for i, w := range c.Warnings {
		if i >= maxPrintedErrors {
			util.WarnLog("  ... and %d more warnings", len(c.Warnings)-maxPrintedErrors)
			break
		}
		util.WarnLog("  %s", w)
	}

	for i, e := range c.Errors {
		if i >= maxPrintedErrors {
			util.ErrorLog("  ... and %d more errors", len(c.Errors)-maxPrintedErrors)
			break
		}
		util.ErrorLog("  %s", e)
	}

	if len(c.Errors) == 0 {
		util.SuccessLog("Sync completed without errors")
	} else {
		util.ErrorLog("Sync completed with %d error(s)", len(c.Errors))
	}
}
