package syncer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/marcw/psync/internal/content"
	"github.com/marcw/psync/internal/store"
	"gorm.io/gorm"
)

// newTestStore opens a migrated sqlite store in a temp dir.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	cfg := store.Config{Type: store.TypeSQLite, Path: filepath.Join(t.TempDir(), "sync-test.db")}
	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Migrate(); err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	return s
}

// testOwner creates the attribution account for mapper tests.
func testOwner(t *testing.T, s *store.Store) *store.User {
	t.Helper()

	owner, err := ResolveOwner(s.DB(), OwnerConfig{Username: "admin"})
	if err != nil {
		t.Fatalf("failed to resolve owner: %v", err)
	}
	return owner
}

// postItem builds a parsed blog-post item in the flat payload shape.
func postItem(name, title, body string, extra map[string]any) *content.Item {
	data := map[string]any{
		"title":   title,
		"content": body,
	}
	for k, v := range extra {
		data[k] = v
	}
	rel := "posts/" + name + "/index.md"
	return &content.Item{
		ID:           content.ItemID(content.KindPost, rel),
		Type:         content.KindPost,
		Name:         name,
		Path:         "/content/" + rel,
		RelativePath: rel,
		Data:         data,
		FileInfo:     &content.FileInfo{ModTime: time.Now().Add(-time.Hour)},
	}
}

// upsertItem runs one item through its mapper inside a transaction.
func upsertItem(t *testing.T, s *store.Store, item *content.Item, ownerID uint, stats *Stats) {
	t.Helper()

	m := MapperFor(item.Type)
	if m == nil {
		t.Fatalf("no mapper for %s", item.Type)
	}
	p := content.NormalizePayload(item.Data)
	err := s.Transaction(func(tx *gorm.DB) error {
		return m.Upsert(tx, item, p, ownerID, stats)
	})
	if err != nil {
		t.Fatalf("upsert failed for %s: %v", item.ID, err)
	}
}

// countRows counts rows of a model.
func countRows(t *testing.T, s *store.Store, model any) int64 {
	t.Helper()

	var n int64
	if err := s.DB().Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}
