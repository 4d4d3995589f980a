package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marcw/psync/internal/store"
)

func TestCheckDBConfig_SQLite(t *testing.T) {
	cfg := store.Config{Type: store.TypeSQLite, Path: filepath.Join(t.TempDir(), "check.db")}

	result, ok := checkDBConfig(&cfg)

	if result.error || !ok {
		t.Errorf("sqlite config check failed: %s", result.message)
	}
	if result.message == "" {
		t.Error("expected target description in message")
	}
}

func TestCheckDBConfig_Invalid(t *testing.T) {
	// mysql without a host is a config error
	cfg := store.Config{Type: store.TypeMySQL}

	result, ok := checkDBConfig(&cfg)

	if !result.error || ok {
		t.Error("expected error for mysql config without host")
	}
}

func TestCheckConnection_FreshDatabase(t *testing.T) {
	cfg := store.Config{Type: store.TypeSQLite, Path: filepath.Join(t.TempDir(), "fresh.db")}

	results := checkConnection(cfg)

	if len(results) < 2 {
		t.Fatalf("expected connection and schema checks, got %d results", len(results))
	}
	if results[0].error {
		t.Errorf("connection check failed: %s", results[0].message)
	}
	// Fresh database has no schema yet; that is a warning, not an error
	if !results[1].warning {
		t.Errorf("expected schema warning for fresh database, got: %+v", results[1])
	}
}

func TestCheckConnection_MigratedDatabase(t *testing.T) {
	cfg := store.Config{Type: store.TypeSQLite, Path: filepath.Join(t.TempDir(), "migrated.db")}

	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := s.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	s.Close()

	results := checkConnection(cfg)

	for _, r := range results {
		if r.error {
			t.Errorf("check %q failed: %s", r.name, r.message)
		}
	}
	// Schema present, owner absent: expect the owner warning
	last := results[len(results)-1]
	if last.name != "Owner account" || !last.warning {
		t.Errorf("expected owner-account warning, got: %+v", last)
	}
}

func TestCheckManifest_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	doc := `{"items": [{"type": "post", "name": "hello", "relative_path": "posts/hello/index.md", "data": {"title": "Hello"}}]}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	result := checkManifest(path)

	if result.error || result.warning {
		t.Errorf("manifest check failed: %s", result.message)
	}
}

func TestCheckManifest_UnknownType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	doc := `{"items": [{"type": "widget", "name": "x", "data": {}}]}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	result := checkManifest(path)

	if !result.warning {
		t.Errorf("expected warning for unknown item type, got: %+v", result)
	}
}

func TestCheckManifest_NonExistent(t *testing.T) {
	result := checkManifest(filepath.Join(t.TempDir(), "missing.json"))

	if !result.error {
		t.Error("expected error for missing manifest")
	}
}

func TestCheckManifest_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	result := checkManifest(path)

	if !result.error {
		t.Error("expected error for malformed manifest")
	}
}
