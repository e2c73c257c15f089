package host

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	hcaccessory "github.com/brutella/hc/accessory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/wiz-platform/internal/accessory"
	"github.com/nerrad567/wiz-platform/internal/infrastructure/config"
	"github.com/nerrad567/wiz-platform/internal/infrastructure/database"
	"github.com/nerrad567/wiz-platform/migrations"
)

const (
	testPlugin   = config.PluginID
	testPlatform = config.PlatformName
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "accessories.db"),
		WALMode:     true,
		BusyTimeout: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(context.Background(), migrations.FS))
	return NewSQLiteStore(db.DB)
}

func newTestShell(t *testing.T, deviceID string) *accessory.Shell {
	t.Helper()
	s, err := accessory.NewShell(deviceID, "Bulb "+deviceID, hcaccessory.TypeLightbulb)
	require.NoError(t, err)
	return s
}

func TestSQLiteStore_InsertGetList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := newTestShell(t, "dev-1")
	second := newTestShell(t, "dev-2")
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	require.NoError(t, store.Insert(ctx, testPlugin, testPlatform, []*accessory.Shell{second, first}))

	got, err := store.Get(ctx, first.UUID)
	require.NoError(t, err)
	assert.Equal(t, first.UUID, got.UUID)
	assert.Equal(t, "Bulb dev-1", got.DisplayName)
	assert.Equal(t, "dev-1", got.DeviceID)
	assert.Equal(t, hcaccessory.TypeLightbulb, got.Category)
	assert.True(t, first.CreatedAt.Equal(got.CreatedAt))

	list, err := store.List(ctx, testPlugin, testPlatform)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.UUID, list[0].UUID)
	assert.Equal(t, second.UUID, list[1].UUID)

	other, err := store.List(ctx, "other-plugin", testPlatform)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSQLiteStore_InsertDuplicateIsAtomic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	existing := newTestShell(t, "dev-1")
	require.NoError(t, store.Insert(ctx, testPlugin, testPlatform, []*accessory.Shell{existing}))

	fresh := newTestShell(t, "dev-2")
	err := store.Insert(ctx, testPlugin, testPlatform, []*accessory.Shell{fresh, newTestShell(t, "dev-1")})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	_, err = store.Get(ctx, fresh.UUID)
	assert.ErrorIs(t, err, ErrAccessoryNotFound)
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, b := newTestShell(t, "dev-1"), newTestShell(t, "dev-2")
	require.NoError(t, store.Insert(ctx, testPlugin, testPlatform, []*accessory.Shell{a, b}))

	err := store.Delete(ctx, []string{a.UUID, "missing"})
	assert.ErrorIs(t, err, ErrAccessoryNotFound)
	_, err = store.Get(ctx, a.UUID)
	require.NoError(t, err, "failed batch must not delete anything")

	require.NoError(t, store.Delete(ctx, []string{a.UUID}))
	_, err = store.Get(ctx, a.UUID)
	assert.ErrorIs(t, err, ErrAccessoryNotFound)
}
