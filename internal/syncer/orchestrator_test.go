package syncer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/marcw/psync/internal/content"
	"github.com/marcw/psync/internal/report"
	"github.com/marcw/psync/internal/store"
)

func runOptions(t *testing.T, items []*content.Item) Options {
	t.Helper()

	dir := t.TempDir()
	return Options{
		DB:           store.Config{Type: store.TypeSQLite, Path: filepath.Join(dir, "run.db")},
		Owner:        OwnerConfig{Username: "admin"},
		Items:        items,
		ArtifactsDir: filepath.Join(dir, "artifacts"),
	}
}

func TestOrchestratorEndToEnd(t *testing.T) {
	itemA := postItem("post-a", "Post A", "alpha", map[string]any{"tags": []any{"go"}})
	itemB := postItem("post-b", "Post B", "beta", nil)
	opts := runOptions(t, []*content.Item{itemA, itemB})

	o := NewOrchestrator(opts)
	stats, err := o.Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if o.State() != StateDone {
		t.Errorf("state = %v, want done", o.State())
	}
	if stats.Created != 2 || stats.Updated != 0 || stats.Skipped != 0 {
		t.Fatalf("first run: created=%d updated=%d skipped=%d, want 2/0/0",
			stats.Created, stats.Updated, stats.Skipped)
	}
	if !stats.Success() {
		t.Fatalf("first run unsuccessful: %v", stats.Errors)
	}

	// Untouched re-run: everything skips.
	stats, err = NewOrchestrator(opts).Run()
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if stats.Skipped != 2 || stats.Created != 0 || stats.Updated != 0 {
		t.Fatalf("second run: created=%d updated=%d skipped=%d, want 0/0/2",
			stats.Created, stats.Updated, stats.Skipped)
	}

	// Edit one file: one update, one skip.
	itemA.Data["title"] = "Post A, Edited"
	itemA.FileInfo.ModTime = time.Now()
	stats, err = NewOrchestrator(opts).Run()
	if err != nil {
		t.Fatalf("third run failed: %v", err)
	}
	if stats.Updated != 1 || stats.Skipped != 1 || stats.Created != 0 {
		t.Fatalf("third run: created=%d updated=%d skipped=%d, want 0/1/1",
			stats.Created, stats.Updated, stats.Skipped)
	}

	s, err := store.Open(opts.DB)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	if n := countRows(t, s, &store.Post{}); n != 2 {
		t.Errorf("expected 2 post rows after three runs, got %d", n)
	}
	var post store.Post
	if err := s.DB().Where("slug = ?", "post-a").First(&post).Error; err != nil {
		t.Fatalf("post-a not found: %v", err)
	}
	if post.Title != "Post A, Edited" {
		t.Errorf("edit not applied: %q", post.Title)
	}
}

func TestOrchestratorPartialFailureIsolation(t *testing.T) {
	good := postItem("good-post", "Good", "fine", nil)
	bad := &content.Item{
		ID:   "update:updates/broken.md",
		Type: content.KindUpdate,
		Name: "broken",
		Data: map[string]any{"description": "no title, no date"},
	}
	alsoGood := &content.Item{
		Type: content.KindIdea,
		Name: "still-works",
		Data: map[string]any{"title": "Still Works", "content": "yes"},
	}
	opts := runOptions(t, []*content.Item{good, bad, alsoGood})

	stats, err := NewOrchestrator(opts).Run()
	if err != nil {
		t.Fatalf("run must survive an item failure: %v", err)
	}
	if len(stats.Errors) != 1 {
		t.Fatalf("expected exactly 1 error, got %v", stats.Errors)
	}
	if stats.Success() {
		t.Error("a run with errors must not report success")
	}
	if stats.Created != 2 {
		t.Errorf("good items must commit, created = %d", stats.Created)
	}

	s, err := store.Open(opts.DB)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	if n := countRows(t, s, &store.Post{}); n != 1 {
		t.Errorf("expected 1 post, got %d", n)
	}
	if n := countRows(t, s, &store.Idea{}); n != 1 {
		t.Errorf("expected 1 idea, got %d", n)
	}
	if n := countRows(t, s, &store.TimelineUpdate{}); n != 0 {
		t.Errorf("failed item must leave no rows, got %d", n)
	}
}

func TestOrchestratorDryRunWritesNothing(t *testing.T) {
	items := []*content.Item{
		postItem("dry-post", "Dry", "body", nil),
	}
	opts := runOptions(t, items)
	opts.DryRun = true

	stats, err := NewOrchestrator(opts).Run()
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if stats.Created != 1 {
		t.Errorf("dry run must count the would-be create, got %d", stats.Created)
	}

	s, err := store.Open(opts.DB)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	if n := countRows(t, s, &store.Post{}); n != 0 {
		t.Errorf("dry run wrote %d post rows", n)
	}
	if n := countRows(t, s, &store.User{}); n != 0 {
		t.Errorf("dry run created %d owner rows", n)
	}
}

func TestOrchestratorWritesSummaryArtifact(t *testing.T) {
	opts := runOptions(t, []*content.Item{postItem("summarized", "S", "body", nil)})

	if _, err := NewOrchestrator(opts).Run(); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	summary, path, err := report.LatestSummary(opts.ArtifactsDir)
	if err != nil {
		t.Fatalf("no summary artifact: %v", err)
	}
	if path == "" {
		t.Error("summary path is empty")
	}
	if got, ok := summary.Stats["created"].(float64); !ok || got != 1 {
		t.Errorf("summary created = %v, want 1", summary.Stats["created"])
	}
	if summary.DryRun {
		t.Error("non-dry run recorded as dry run")
	}
}

func TestOrchestratorRejectsBadConfig(t *testing.T) {
	opts := runOptions(t, nil)
	opts.DB.Type = "oracle"

	if _, err := NewOrchestrator(opts).Run(); err == nil {
		t.Fatal("unsupported engine must fail validation")
	}
}

func TestOrchestratorUnknownKindWarns(t *testing.T) {
	odd := &content.Item{ID: "widget:widgets/x.md", Type: "widget", Name: "x", Data: map[string]any{}}
	opts := runOptions(t, []*content.Item{odd})

	stats, err := NewOrchestrator(opts).Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(stats.Warnings) != 1 {
		t.Errorf("unknown kind must warn once, got %v", stats.Warnings)
	}
	if !stats.Success() {
		t.Error("unknown kind must not fail the run")
	}
}

func TestStateNames(t *testing.T) {
	if StateDone.String() != "done" || StateFailed.String() != "failed" {
		t.Error("state names wrong")
	}
	if State(99).String() == "" {
		t.Error("unknown state must still render")
	}
}
