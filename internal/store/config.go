package store

import (
	"fmt"

	"github.com/marcw/psync/internal/util"
	"github.com/spf13/viper"
)

// Supported database engines
const (
	TypeSQLite     = "sqlite"
	TypeMySQL      = "mysql"
	TypePostgreSQL = "postgresql"
)

// DefaultSQLitePath is used when a sqlite descriptor omits the path.
const DefaultSQLitePath = "portfolio.db"

// Config describes the target store. Either Path (sqlite) or the
// host/user/database triple (mysql, postgresql) must be filled in.
type Config struct {
	Type     string `json:"type" mapstructure:"type"`
	Path     string `json:"path,omitempty" mapstructure:"path"`
	Host     string `json:"host,omitempty" mapstructure:"host"`
	Port     int    `json:"port,omitempty" mapstructure:"port"`
	User     string `json:"user,omitempty" mapstructure:"user"`
	Password string `json:"-" mapstructure:"password"`
	Database string `json:"database,omitempty" mapstructure:"database"`
}

// FromViper builds a Config from the bound db.* keys (config file,
// environment, or CLI flags).
func FromViper() Config {
	return Config{
		Type:     viper.GetString("db.type"),
		Path:     viper.GetString("db.path"),
		Host:     viper.GetString("db.host"),
		Port:     viper.GetInt("db.port"),
		User:     viper.GetString("db.user"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.name"),
	}
}

// Validate checks the descriptor and applies defaults. sqlite defaults
// its path; the server engines require host, user and database.
func (c *Config) Validate() error {
	switch c.Type {
	case TypeSQLite:
		if c.Path == "" {
			c.Path = DefaultSQLitePath
		}
	case TypeMySQL, TypePostgreSQL:
		if c.Host == "" {
			return fmt.Errorf("%w: %s requires a host", util.ErrInvalidConfig, c.Type)
		}
		if c.User == "" {
			return fmt.Errorf("%w: %s requires a user", util.ErrInvalidConfig, c.Type)
		}
		if c.Database == "" {
			return fmt.Errorf("%w: %s requires a database name", util.ErrInvalidConfig, c.Type)
		}
		if c.Port == 0 {
			if c.Type == TypeMySQL {
				c.Port = 3306
			} else {
				c.Port = 5432
			}
		}
	case "":
		return fmt.Errorf("%w: database type is required", util.ErrInvalidConfig)
	default:
		return fmt.Errorf("%w: unsupported database type %q", util.ErrInvalidConfig, c.Type)
	}
	return nil
}

// DSN renders the driver connection string for the configured engine.
func (c Config) DSN() string {
	switch c.Type {
	case TypeMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.User, c.Password, c.Host, c.Port, c.Database)
	case TypePostgreSQL:
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			c.Host, c.Port, c.User, c.Password, c.Database)
	default:
		return c.Path
	}
}

// Redacted returns a copy safe to persist in the run summary: the
// password is dropped by the json tag, and nothing else is secret.
func (c Config) Redacted() Config {
	c.Password = ""
	return c
}
