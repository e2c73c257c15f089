package database

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"20260101_000000_create_things.up.sql":   {Data: []byte("CREATE TABLE things (id TEXT PRIMARY KEY);")},
		"20260101_000000_create_things.down.sql": {Data: []byte("DROP TABLE things;")},
		"20260102_000000_add_name.up.sql":        {Data: []byte("ALTER TABLE things ADD COLUMN name TEXT;")},
		"README.md":                              {Data: []byte("ignored")},
	}
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var count int
	require.NoError(t, db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count))
	return count == 1
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx, testMigrations()))
	assert.True(t, tableExists(t, db, "things"))

	applied, pending, err := db.MigrationStatus(ctx, testMigrations())
	require.NoError(t, err)
	require.Len(t, applied, 2)
	assert.Equal(t, "20260101_000000", applied[0].Version)
	assert.False(t, applied[0].AppliedAt.IsZero())
	assert.Empty(t, pending)

	// Re-running is a no-op.
	require.NoError(t, db.Migrate(ctx, testMigrations()))
}

func TestMigrate_NilSource(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Migrate(context.Background(), nil))
}

func TestMigrate_FailureStops(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	source := fstest.MapFS{
		"20260101_000000_ok.up.sql":     {Data: []byte("CREATE TABLE ok (id INTEGER);")},
		"20260102_000000_broken.up.sql": {Data: []byte("THIS IS NOT SQL;")},
	}
	err := db.Migrate(ctx, source)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.True(t, tableExists(t, db, "ok"))

	_, pending, err := db.MigrationStatus(ctx, source)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "broken", pending[0].Name)
}

func TestMigrateDown(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	source := fstest.MapFS{
		"20260101_000000_create_things.up.sql":   {Data: []byte("CREATE TABLE things (id TEXT PRIMARY KEY);")},
		"20260101_000000_create_things.down.sql": {Data: []byte("DROP TABLE things;")},
	}

	require.NoError(t, db.Migrate(ctx, source))
	require.NoError(t, db.MigrateDown(ctx, source))
	assert.False(t, tableExists(t, db, "things"))

	// Nothing left to roll back.
	require.NoError(t, db.MigrateDown(ctx, source))
}

func TestMigrateDown_NoDownSQL(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx, testMigrations()))
	err := db.MigrateDown(ctx, testMigrations())
	assert.ErrorContains(t, err, "no down SQL")
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantIsUp    bool
		wantOk      bool
	}{
		{"20260118_120000_create_accessories.up.sql", "20260118_120000", true, true},
		{"20260118_120000_create_accessories.down.sql", "20260118_120000", false, true},
		{"readme.txt", "", false, false},
		{"20260118_120000_create_accessories.sql", "", false, false},
		{"invalid.up.sql", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			assert.Equal(t, tt.wantOk, ok)
			if ok {
				assert.Equal(t, tt.wantVersion, version)
				assert.Equal(t, tt.wantIsUp, isUp)
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	assert.Equal(t, "create_accessories", extractMigrationName("20260118_120000_create_accessories.up.sql"))
	assert.Equal(t, "initial_schema", extractMigrationName("20260118_120000_initial_schema.down.sql"))
}
