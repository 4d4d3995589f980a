package syncer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/marcw/psync/internal/store"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// OwnerConfig identifies the workspace-owner account all root
// entities are attributed to.
type OwnerConfig struct {
	Username     string `mapstructure:"username"`
	Email        string `mapstructure:"email"`
	PasswordHash string `mapstructure:"password_hash"`
	FirstName    string `mapstructure:"first_name"`
	LastName     string `mapstructure:"last_name"`
}

// OwnerFromViper builds an OwnerConfig from the bound owner.* keys.
func OwnerFromViper() OwnerConfig {
	return OwnerConfig{
		Username:     viper.GetString("owner.username"),
		Email:        viper.GetString("owner.email"),
		PasswordHash: viper.GetString("owner.password_hash"),
		FirstName:    viper.GetString("owner.first_name"),
		LastName:     viper.GetString("owner.last_name"),
	}
}

// ApplyDefaults fills in the default username.
func (c *OwnerConfig) ApplyDefaults() {
	if c.Username == "" {
		c.Username = "admin"
	}
}

// ResolveOwner gets or creates the owner account. A concurrent writer
// may win the insert race and trip the username uniqueness constraint;
// that is resolved by re-fetching the row, never surfaced to the
// caller. The result is cached by the orchestrator for the run.
func ResolveOwner(db *gorm.DB, cfg OwnerConfig) (*store.User, error) {
	cfg.ApplyDefaults()

	var user store.User
	err := db.Where("username = ?", cfg.Username).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("owner lookup failed: %w", err)
	}

	hash := cfg.PasswordHash
	if hash == "" {
		// No configured hash: lock the account behind a random
		// password. The account is an attribution target, not a
		// login.
		generated, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("owner password generation failed: %w", err)
		}
		hash = string(generated)
	}

	user = store.User{
		Username:     cfg.Username,
		Email:        cfg.Email,
		PasswordHash: hash,
		FirstName:    cfg.FirstName,
		LastName:     cfg.LastName,
	}

	if err := db.Create(&user).Error; err != nil {
		if !isDuplicateKey(err) {
			return nil, fmt.Errorf("owner creation failed: %w", err)
		}
		// Lost the race; the row exists now.
		var existing store.User
		if err := db.Where("username = ?", cfg.Username).First(&existing).Error; err != nil {
			return nil, fmt.Errorf("owner re-fetch failed: %w", err)
		}
		return &existing, nil
	}

	return &user, nil
}

// isDuplicateKey matches unique-constraint violations across the
// three supported engines.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") || // sqlite
		strings.Contains(msg, "Duplicate entry") || // mysql
		strings.Contains(msg, "duplicate key") // postgres
}
