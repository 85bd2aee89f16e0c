package migration

import (
	"testing"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestAutoMigrate(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	require.NoError(t, AutoMigrate(db))
	for _, table := range []string{"users", "products", "product_options", "orders", "loyalty_transactions", "social_posts"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.NoError(t, AutoMigrate(db), "running twice is a no-op")
}

func TestNew_RejectsSQLite(t *testing.T) {
	_, err := New(&config.DatabaseConfig{Driver: "sqlite", Path: "shop.db"}, t.TempDir(), zap.NewNop())
	assert.Error(t, err)
}

func TestNew_MissingDirectory(t *testing.T) {
	cfg := &config.DatabaseConfig{Driver: "postgres", Host: "localhost", Port: 5432, User: "u", DBName: "shop", SSLMode: "disable"}
	_, err := New(cfg, t.TempDir(), zap.NewNop())
	assert.ErrorContains(t, err, "migrations directory")
}
