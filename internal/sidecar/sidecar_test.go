package sidecar

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marcw/psync/internal/content"
	"gopkg.in/yaml.v3"
)

func readDoc(t *testing.T, path string) map[string]any {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read sidecar: %v", err)
	}
	doc := map[string]any{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("failed to parse sidecar: %v", err)
	}
	return doc
}

func TestUpdateSidecarPreservesUnrelatedKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "post.meta.yaml")
	if err := os.WriteFile(path, []byte("author: marc\ndraft: false\n"), 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ok, err := updateSidecar(path, "abc123", now)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !ok {
		t.Fatal("expected sidecar to be updated")
	}

	doc := readDoc(t, path)
	if doc["author"] != "marc" {
		t.Error("expected unrelated keys to survive")
	}

	meta, ok := doc["sync_metadata"].(map[string]any)
	if !ok {
		t.Fatalf("expected sync_metadata block, got %v", doc["sync_metadata"])
	}
	if meta["last_hash"] != "abc123" {
		t.Errorf("unexpected last_hash: %v", meta["last_hash"])
	}
	if meta["sync_status"] != "synced" {
		t.Errorf("unexpected sync_status: %v", meta["sync_status"])
	}
	if meta["last_sync_date"] != "2025-06-01T12:00:00Z" {
		t.Errorf("unexpected last_sync_date: %v", meta["last_sync_date"])
	}
}

func TestUpdateSidecarMissingFile(t *testing.T) {
	ok, err := updateSidecar(filepath.Join(t.TempDir(), "absent.meta.yaml"), "h", time.Now())
	if err != nil {
		t.Fatalf("missing sidecar must not be an error, got %v", err)
	}
	if ok {
		t.Error("expected no update for a missing sidecar")
	}
}

func TestPropagateCollectionHash(t *testing.T) {
	root := t.TempDir()
	postsDir := filepath.Join(root, "posts", "first")
	if err := os.MkdirAll(postsDir, 0755); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	itemPath := filepath.Join(postsDir, "index.md")
	if err := os.WriteFile(filepath.Join(postsDir, "index.meta.yaml"), []byte("{}\n"), 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "posts", CollectionFile), []byte("{}\n"), 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	items := []*content.Item{{
		ID:           "post:posts/first/index.md",
		Type:         content.KindPost,
		Path:         itemPath,
		RelativePath: "posts/first/index.md",
	}}
	hashes := map[string]string{"post:posts/first/index.md": "child-hash"}

	p := Propagator{Root: root}
	warnings := p.Propagate(items, hashes, time.Now().UTC())
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	itemDoc := readDoc(t, filepath.Join(postsDir, "index.meta.yaml"))
	meta := itemDoc["sync_metadata"].(map[string]any)
	if meta["last_hash"] != "child-hash" {
		t.Errorf("unexpected item hash: %v", meta["last_hash"])
	}

	collDoc := readDoc(t, filepath.Join(root, "posts", CollectionFile))
	collMeta := collDoc["sync_metadata"].(map[string]any)
	want := content.CollectionHash([]string{"child-hash"})
	if collMeta["last_hash"] != want {
		t.Errorf("expected collection hash %s, got %v", want, collMeta["last_hash"])
	}
}

func TestPropagateSkipsItemsWithoutHashes(t *testing.T) {
	items := []*content.Item{{ID: "post:x", Type: content.KindPost, Path: "/nope/x.md", RelativePath: "posts/x.md"}}

	p := Propagator{Root: t.TempDir()}
	warnings := p.Propagate(items, map[string]string{}, time.Now())
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
}
