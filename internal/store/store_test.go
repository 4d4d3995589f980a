package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/marcw/psync/internal/util"
	"gorm.io/gorm"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := Config{Type: TypeSQLite, Path: filepath.Join(t.TempDir(), "test.db")}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"sqlite defaults path", Config{Type: TypeSQLite}, false},
		{"mysql complete", Config{Type: TypeMySQL, Host: "localhost", User: "u", Database: "d"}, false},
		{"postgresql complete", Config{Type: TypePostgreSQL, Host: "localhost", User: "u", Database: "d"}, false},
		{"mysql missing host", Config{Type: TypeMySQL, User: "u", Database: "d"}, true},
		{"postgresql missing user", Config{Type: TypePostgreSQL, Host: "h", Database: "d"}, true},
		{"postgresql missing database", Config{Type: TypePostgreSQL, Host: "h", User: "u"}, true},
		{"empty type", Config{}, true},
		{"unsupported type", Config{Type: "oracle"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected an error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr && !errors.Is(err, util.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Type: TypeSQLite}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if cfg.Path != DefaultSQLitePath {
		t.Errorf("expected default path %s, got %s", DefaultSQLitePath, cfg.Path)
	}

	my := Config{Type: TypeMySQL, Host: "h", User: "u", Database: "d"}
	if err := my.Validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if my.Port != 3306 {
		t.Errorf("expected default mysql port 3306, got %d", my.Port)
	}

	pg := Config{Type: TypePostgreSQL, Host: "h", User: "u", Database: "d"}
	if err := pg.Validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if pg.Port != 5432 {
		t.Errorf("expected default postgres port 5432, got %d", pg.Port)
	}
}

func TestConfigRedacted(t *testing.T) {
	cfg := Config{Type: TypeMySQL, Host: "h", User: "u", Password: "secret", Database: "d"}
	if cfg.Redacted().Password != "" {
		t.Error("expected password to be stripped")
	}
}

func TestOpenAndMigrate(t *testing.T) {
	s := openTestStore(t)

	if s.HasBaselineTable() {
		t.Fatal("expected no baseline table before migration")
	}

	if err := s.Migrate(); err != nil {
		t.Fatalf("migration failed: %v", err)
	}

	if !s.HasBaselineTable() {
		t.Fatal("expected baseline table after migration")
	}

	// Every model's table must exist.
	for _, m := range allModels {
		if !s.db.Migrator().HasTable(m) {
			t.Errorf("expected table for %T to exist", m)
		}
	}

	// Migration is idempotent.
	if err := s.Migrate(); err != nil {
		t.Fatalf("re-migration failed: %v", err)
	}
}

func TestTransactionRollback(t *testing.T) {
	s := openTestStore(t)
	if err := s.Migrate(); err != nil {
		t.Fatalf("migration failed: %v", err)
	}

	boom := errors.New("boom")
	err := s.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&User{Username: "rollback-me"}).Error; err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	var count int64
	if err := s.db.Model(&User{}).Where("username = ?", "rollback-me").Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Error("expected rollback to discard the insert")
	}
}
