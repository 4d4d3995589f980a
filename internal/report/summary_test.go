package report

import (
	"errors"
	"testing"
)

func TestWriteAndLoadRunSummary(t *testing.T) {
	dir := t.TempDir()

	stats := map[string]any{"created": 2, "skipped": 1}
	db := map[string]any{"type": "sqlite", "path": "portfolio.db"}

	path, err := WriteRunSummary(dir, "run-1", stats, db, true)
	if err != nil {
		t.Fatalf("failed to write summary: %v", err)
	}
	if path == "" {
		t.Fatal("expected an artifact path")
	}

	summary, loadedPath, err := LatestSummary(dir)
	if err != nil {
		t.Fatalf("failed to load summary: %v", err)
	}
	if loadedPath != path {
		t.Errorf("expected latest summary at %s, got %s", path, loadedPath)
	}

	if summary.RunID != "run-1" {
		t.Errorf("expected run id run-1, got %s", summary.RunID)
	}
	if !summary.DryRun {
		t.Error("expected dry_run true")
	}
	if summary.Stats["created"].(float64) != 2 {
		t.Errorf("unexpected stats payload: %v", summary.Stats)
	}
	if summary.Database["type"] != "sqlite" {
		t.Errorf("unexpected database payload: %v", summary.Database)
	}
}

func TestLatestSummaryEmptyDir(t *testing.T) {
	if _, _, err := LatestSummary(t.TempDir()); err == nil {
		t.Fatal("expected an error for an empty artifacts directory")
	}
}

func TestEventLoggerNull(t *testing.T) {
	l := NullLogger()
	if err := l.Log(&Event{Level: LevelInfo, Event: EventItem}); err != nil {
		t.Fatalf("null logger should swallow events, got %v", err)
	}
	if l.Path() != "" {
		t.Error("expected empty path for null logger")
	}
	if err := l.Close(); err != nil {
		t.Fatalf("null logger close: %v", err)
	}
}

func TestEventLoggerLevelFilter(t *testing.T) {
	dir := t.TempDir()
	l, err := NewEventLogger(dir, LevelWarning)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	defer l.Close()

	if err := l.LogItem(EventSkip, "post:x", "post", "x", 0); err != nil {
		t.Fatalf("log failed: %v", err)
	}
	if err := l.LogItemError("post:y", "post", errors.New("boom")); err != nil {
		t.Fatalf("log failed: %v", err)
	}
}
