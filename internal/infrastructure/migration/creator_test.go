package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add reviews table", "add_reviews_table"},
		{"Add-Reviews-Table", "add_reviews_table"},
		{"ADD__REVIEWS", "add_reviews"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading and trailing_", "leading_and_trailing"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	root := t.TempDir()
	writeMigration(t, filepath.Join(root, "postgres"), "000003_engagement_social")
	writeMigration(t, filepath.Join(root, "mysql"), "000002_commerce")

	created, err := CreateMigration(root, "Add gift cards", "Gift card balances")
	require.NoError(t, err)
	require.Len(t, created, len(Drivers))

	for _, mf := range created {
		assert.Equal(t, "000004", mf.Version, "numbered after the highest version of any driver")
		assert.Equal(t, filepath.Join(root, mf.Driver, "000004_add_gift_cards.up.sql"), mf.UpPath)

		up, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(up), "-- Add gift cards")
		assert.Contains(t, string(up), "-- Gift card balances")

		down, err := os.ReadFile(mf.DownPath)
		require.NoError(t, err)
		assert.Contains(t, string(down), "Rollback: Add gift cards")
	}

	_, err = CreateMigration(root, "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "000002_commerce")
	writeMigration(t, dir, "000001_identity_catalog")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.up.sql"), 0o755))

	names, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_identity_catalog", "000002_commerce"}, names)

	names, err = ListMigrations(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestRepositoryMigrationsArePaired(t *testing.T) {
	root := filepath.Join("..", "..", "..", "migrations")
	var versions [][]string
	for _, driver := range Drivers {
		dir := SourceDir(root, driver)
		names, err := ListMigrations(dir)
		require.NoError(t, err)
		require.NotEmpty(t, names, driver)
		for _, n := range names {
			_, err := os.Stat(filepath.Join(dir, n+".down.sql"))
			assert.NoError(t, err, "%s/%s has no down migration", driver, n)
		}
		versions = append(versions, names)
	}
	assert.Equal(t, versions[0], versions[1], "every driver has the same migrations")
}

func TestSourceDir(t *testing.T) {
	assert.Equal(t, filepath.Join("migrations", "postgres"), SourceDir("migrations", ""))
	assert.Equal(t, filepath.Join("migrations", "mysql"), SourceDir("migrations", "mysql"))
}

func writeMigration(t *testing.T, dir, base string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, base+".up.sql"), []byte("-- up"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, base+".down.sql"), []byte("-- down"), 0o644))
}
