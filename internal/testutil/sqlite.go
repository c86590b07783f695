// Package testutil holds helpers shared by package tests.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"erp/config"
	"erp/internal/infra/persistence/database"
)

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SQLiteConfig returns a config pointing at a fresh database file inside t's temp dir.
func SQLiteConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		Database: &config.DatabaseConfig{
			Driver:      config.DriverSQLite,
			SQLitePath:  filepath.Join(t.TempDir(), "erp_test.db"),
			AutoMigrate: true,
			Pool:        config.PoolConfig{MaxOpenConns: 1},
		},
		Auth: &config.AuthConfig{
			BcryptCost:          4,
			LinkCustomerByEmail: true,
		},
	}
	cfg.SecretKey.Access = "test_access_secret_key_very_long_for_testing"

	return cfg
}

// NewSQLiteDB opens a migrated SQLite database that is closed when the test ends.
// The pool holds a single connection, so code under test must only use the
// transaction's repositories inside TransactionManager.Execute.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	return OpenSQLite(t, SQLiteConfig(t))
}

// OpenSQLite opens and migrates the SQLite database described by cfg.
func OpenSQLite(t *testing.T, cfg *config.Config) *gorm.DB {
	t.Helper()

	db, err := database.Open(cfg, DiscardLogger())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}
