//go:build integration

package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newPostgresDB starts a throwaway PostgreSQL container and applies the SQL
// migrations shipped in migrations/postgres
func newPostgresDB(t *testing.T) (*gorm.DB, *migration.Migrator) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("storefront_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dir, err := filepath.Abs(filepath.Join("..", "..", "..", "migrations", "postgres"))
	require.NoError(t, err)
	migrator, err := migration.NewFromURL(dsn, dir, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = migrator.Close() })
	require.NoError(t, migrator.Up())

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db, migrator
}

func TestPostgres_MigratedSchema(t *testing.T) {
	db, migrator := newPostgresDB(t)
	ctx := context.Background()

	version, dirty, err := migrator.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(3), version)

	repo := NewGormProductRepository(db)
	p := newTestProduct(t, db, "PG-001", 10)

	t.Run("product round trip", func(t *testing.T) {
		got, err := repo.FindBySKU(ctx, "PG-001")
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
		assert.Equal(t, 10, got.Stock)
	})

	t.Run("stale copy mutated twice is rejected", func(t *testing.T) {
		a, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		b, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)

		require.NoError(t, b.DeductStock(nil, 4))
		require.NoError(t, repo.Save(ctx, b))
		require.NoError(t, a.DeductStock(nil, 1))
		require.NoError(t, a.DeductStock(nil, 1))
		assert.ErrorIs(t, repo.Save(ctx, a), shared.ErrConcurrencyConflict)

		got, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, got.Stock)
	})

	t.Run("duplicate sku is a conflict", func(t *testing.T) {
		dup, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		other := newTestProduct(t, db, "PG-002", 1)
		other.SKU = dup.SKU
		assert.Error(t, repo.Save(ctx, other))
	})
}
