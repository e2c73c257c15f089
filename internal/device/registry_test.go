package device

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/wiz-platform/internal/accessory"
	"github.com/nerrad567/wiz-platform/internal/wiz"
)

// newTestBinding builds a binding for a bulb through the real factory.
func newTestBinding(t testing.TB, deviceID string) *Binding {
	t.Helper()
	w, err := accessory.NewFactory(accessory.FactoryOptions{}).Create(wiz.Descriptor{
		ID:         deviceID,
		DeviceType: wiz.DeviceTypeBulb,
		Alias:      "Bulb " + deviceID,
	}, nil)
	require.NoError(t, err)
	return NewBinding(w)
}

func TestRegistry_PutGet(t *testing.T) {
	reg := NewRegistry()
	b := newTestBinding(t, "dev-1")

	require.NoError(t, reg.Put("dev-1", b))

	got, ok := reg.Get("dev-1")
	require.True(t, ok)
	assert.Same(t, b, got)

	shell, ok := reg.Shell(b.StableID)
	require.True(t, ok)
	assert.Same(t, b.Accessory.Shell, shell)

	_, ok = reg.Get("dev-2")
	assert.False(t, ok)
}

func TestRegistry_PutDuplicate(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Put("dev-1", newTestBinding(t, "dev-1")))

	err := reg.Put("dev-1", newTestBinding(t, "dev-1"))
	assert.True(t, errors.Is(err, ErrDuplicateBinding))
	assert.Equal(t, 1, reg.Count())
}

func TestRegistry_PutInvalid(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name string
		key  string
		b    *Binding
	}{
		{"nil binding", "dev-1", nil},
		{"no accessory", "dev-1", &Binding{DeviceID: "dev-1"}},
		{"key mismatch", "dev-2", newTestBinding(t, "dev-1")},
		{"empty key", "", newTestBinding(t, "dev-1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Put(tt.key, tt.b)
			assert.True(t, errors.Is(err, ErrInvalidBinding))
		})
	}
	assert.Equal(t, 0, reg.Count())
}

func TestRegistry_Remove(t *testing.T) {
	reg := NewRegistry()
	b := newTestBinding(t, "dev-1")
	require.NoError(t, reg.Put("dev-1", b))

	removed, ok := reg.Remove("dev-1")
	require.True(t, ok)
	assert.Same(t, b, removed)

	_, ok = reg.Get("dev-1")
	assert.False(t, ok)
	_, ok = reg.Shell(b.StableID)
	assert.False(t, ok)

	_, ok = reg.Remove("dev-1")
	assert.False(t, ok)

	// The slot is free again.
	require.NoError(t, reg.Put("dev-1", newTestBinding(t, "dev-1")))
}

func TestRegistry_AllInsertionOrderSnapshot(t *testing.T) {
	reg := NewRegistry()
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("dev-%d", i)
		require.NoError(t, reg.Put(id, newTestBinding(t, id)))
	}

	snapshot := reg.All()
	_, _ = reg.Remove("dev-2")
	require.NoError(t, reg.Put("dev-9", newTestBinding(t, "dev-9")))

	ids := make([]string, 0, len(snapshot))
	for _, b := range snapshot {
		ids = append(ids, b.DeviceID)
	}
	assert.Equal(t, []string{"dev-0", "dev-1", "dev-2", "dev-3", "dev-4"}, ids)

	ids = ids[:0]
	for _, b := range reg.All() {
		ids = append(ids, b.DeviceID)
	}
	assert.Equal(t, []string{"dev-0", "dev-1", "dev-3", "dev-4", "dev-9"}, ids)
}

func TestRegistry_Shells(t *testing.T) {
	reg := NewRegistry()

	assert.True(t, errors.Is(reg.IndexShell(nil), ErrInvalidShell))
	assert.True(t, errors.Is(reg.IndexShell(&accessory.Shell{}), ErrInvalidShell))

	s := &accessory.Shell{UUID: accessory.MustDeriveStableID("dev-1"), DeviceID: "dev-1", DisplayName: "Old"}
	require.NoError(t, reg.IndexShell(s))

	replay := s.Clone()
	replay.DisplayName = "New"
	require.NoError(t, reg.IndexShell(replay))

	got, ok := reg.Shell(s.UUID)
	require.True(t, ok)
	assert.Equal(t, "New", got.DisplayName)
	assert.Len(t, reg.Shells(), 1)

	dropped, ok := reg.DropShell(s.UUID)
	require.True(t, ok)
	assert.Same(t, replay, dropped)
	_, ok = reg.DropShell(s.UUID)
	assert.False(t, ok)
}

func TestRegistry_GetStats(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Put("dev-1", newTestBinding(t, "dev-1")))
	require.NoError(t, reg.IndexShell(&accessory.Shell{UUID: accessory.MustDeriveStableID("dev-2"), DeviceID: "dev-2"}))

	stats := reg.GetStats()
	assert.Equal(t, Stats{Bindings: 1, Shells: 2, UnboundShells: 1}, stats)
}

func TestRegistry_Forget(t *testing.T) {
	reg := NewRegistry()
	b := newTestBinding(t, "dev-1")
	require.NoError(t, reg.Put("dev-1", b))

	removed, err := reg.Forget(b.Accessory.Shell)
	require.NoError(t, err)
	assert.Same(t, b, removed)

	_, ok := reg.Get("dev-1")
	assert.False(t, ok)
	_, ok = reg.Shell(b.StableID)
	assert.False(t, ok)
	assert.Empty(t, reg.All())
}

func TestRegistry_ForgetUnboundShell(t *testing.T) {
	reg := NewRegistry()
	shell, err := accessory.NewShell("dev-9", "Porch", 5)
	require.NoError(t, err)
	require.NoError(t, reg.IndexShell(shell))

	removed, err := reg.Forget(shell)
	require.NoError(t, err)
	assert.Nil(t, removed)
	assert.Empty(t, reg.Shells())
}

func TestRegistry_ForgetUnknown(t *testing.T) {
	reg := NewRegistry()
	shell, err := accessory.NewShell("dev-9", "Porch", 5)
	require.NoError(t, err)

	_, err = reg.Forget(shell)
	assert.ErrorIs(t, err, ErrBindingNotFound)

	_, err = reg.Forget(nil)
	assert.ErrorIs(t, err, ErrInvalidShell)
}
