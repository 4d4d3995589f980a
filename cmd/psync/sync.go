package main

import (
	"fmt"
	"time"

	"github.com/marcw/psync/internal/content"
	"github.com/marcw/psync/internal/report"
	"github.com/marcw/psync/internal/store"
	"github.com/marcw/psync/internal/syncer"
	"github.com/marcw/psync/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize a content manifest with the database",
	Long: `Synchronize parsed content with the relational store.

This command:
1. Loads the parser manifest (a JSON list of parsed content items)
2. Connects to the database and ensures the schema exists
3. Resolves the owner account all content is attributed to
4. Creates or updates one root entity per item, each in its own
   transaction, skipping items whose stored copy is already current
5. Deletes rows whose source files are gone (reconciliation)
6. Writes sync metadata back into the content tree's sidecar files
7. Persists a run summary artifact

A failure on one item never aborts the run; it is recorded and the
remaining items proceed. The command exits nonzero when any item
failed.

Use --dry-run to preview every decision without touching the database.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	// Sync-specific flags
	syncCmd.Flags().String("manifest", "", "path to the parser manifest JSON (required)")
	syncCmd.Flags().Bool("dry-run", false, "report every decision without writing")
	syncCmd.Flags().Bool("create-tables", false, "force schema migration before syncing")
	syncCmd.Flags().String("artifacts", "artifacts", "directory for event logs and run summaries")
	syncCmd.Flags().String("content-root", "", "content tree root for sidecar metadata writes (default: manifest's content_root)")
	syncCmd.MarkFlagRequired("manifest")
}

func runSync(cmd *cobra.Command, args []string) error {
	verbose := viper.GetBool("verbose")
	quiet := viper.GetBool("quiet")

	// Set log level
	util.SetVerbose(verbose)
	util.SetQuiet(quiet)

	manifestPath, _ := cmd.Flags().GetString("manifest")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	createTables, _ := cmd.Flags().GetBool("create-tables")
	artifactsDir, _ := cmd.Flags().GetString("artifacts")
	contentRoot, _ := cmd.Flags().GetString("content-root")

	util.InfoLog("Loading manifest: %s", manifestPath)
	manifest, err := content.LoadManifest(manifestPath)
	if err != nil {
		return err
	}
	if contentRoot == "" {
		contentRoot = manifest.ContentRoot
	}
	util.InfoLog("Manifest contains %d items", len(manifest.Items))

	// Create event logger with appropriate log level
	logLevel := report.LevelInfo
	if quiet {
		logLevel = report.LevelWarning
	} else if verbose {
		logLevel = report.LevelDebug
	}

	logger, err := report.NewEventLogger(artifactsDir, logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		logger = report.NullLogger()
	}
	defer logger.Close()

	if logger.Path() != "" {
		util.InfoLog("Event log: %s", logger.Path())
	}

	dbConfig := store.FromViper()
	util.InfoLog("Database: %s", describeTarget(dbConfig))
	if dryRun {
		util.InfoLog("Dry run: no writes will be performed")
	}

	orchestrator := syncer.NewOrchestrator(syncer.Options{
		DB:           dbConfig,
		Owner:        syncer.OwnerFromViper(),
		Items:        manifest.Items,
		DryRun:       dryRun,
		CreateTables: createTables,
		ArtifactsDir: artifactsDir,
		ContentRoot:  contentRoot,
		Logger:       logger,
		Progress:     !quiet,
	})

	startTime := time.Now()
	stats, err := orchestrator.Run()
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	report.PrintSummary(report.SummaryCounts{
		Total:     stats.TotalItems,
		Processed: stats.Processed,
		Created:   stats.Created,
		Updated:   stats.Updated,
		Skipped:   stats.Skipped,
		Deleted:   stats.Deleted,
		Errors:    stats.Errors,
		Warnings:  stats.Warnings,
	}, time.Since(startTime), dryRun)

	if !stats.Success() {
		return fmt.Errorf("sync completed with %d error(s)", len(stats.Errors))
	}
	return nil
}

// describeTarget renders the store target for log output, password
// excluded.
func describeTarget(cfg store.Config) string {
	switch cfg.Type {
	case store.TypeSQLite:
		path := cfg.Path
		if path == "" {
			path = store.DefaultSQLitePath
		}
		return fmt.Sprintf("sqlite %s", path)
	case store.TypeMySQL, store.TypePostgreSQL:
		return fmt.Sprintf("%s %s@%s:%d/%s", cfg.Type, cfg.User, cfg.Host, cfg.Port, cfg.Database)
	default:
		return cfg.Type
	}
}
