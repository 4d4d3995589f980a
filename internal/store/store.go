package store

import (
	"fmt"

	"github.com/marcw/psync/internal/util"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store wraps the relational connection for one sync run.
type Store struct {
	db  *gorm.DB
	cfg Config
}

// Open connects to the store described by cfg. The descriptor must
// already be validated.
func Open(cfg Config) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Type {
	case TypeSQLite:
		dialector = sqlite.Open(cfg.DSN())
	case TypeMySQL:
		dialector = mysql.Open(cfg.DSN())
	case TypePostgreSQL:
		dialector = postgres.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("%w: unsupported database type %q", util.ErrInvalidConfig, cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrConnection, err)
	}

	if cfg.Type == TypeSQLite {
		// SQLite works best with a single writer
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.SetMaxOpenConns(1)
			sqlDB.SetMaxIdleConns(1)
		}
	}

	return &Store{db: db, cfg: cfg}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the underlying gorm handle for custom queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Config returns the descriptor the store was opened with.
func (s *Store) Config() Config {
	return s.cfg
}

// HasBaselineTable probes for the users table. A false result (or a
// failed probe) means the schema is absent and must be created.
func (s *Store) HasBaselineTable() bool {
	return s.db.Migrator().HasTable(&User{})
}

// Migrate creates or updates the schema for every model.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(allModels...); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	return nil
}

// Transaction executes fn inside a transaction, rolling back on error.
func (s *Store) Transaction(fn func(tx *gorm.DB) error) error {
	return s.db.Transaction(fn)
}
