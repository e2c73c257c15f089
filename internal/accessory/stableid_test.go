package accessory

import (
	"errors"
	"testing"
	"testing/quick"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveStableID_Deterministic(t *testing.T) {
	a, err := DeriveStableID("a8bb50d2c3f4")
	require.NoError(t, err)
	b, err := DeriveStableID("a8bb50d2c3f4")
	require.NoError(t, err)

	assert.Equal(t, a, b)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())
}

func TestDeriveStableID_Empty(t *testing.T) {
	_, err := DeriveStableID("")
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))

	assert.Panics(t, func() { MustDeriveStableID("") })
}

func TestDeriveStableID_Properties(t *testing.T) {
	same := func(s string) bool {
		if s == "" {
			return true
		}
		a, errA := DeriveStableID(s)
		b, errB := DeriveStableID(s)
		return errA == nil && errB == nil && a == b
	}
	require.NoError(t, quick.Check(same, nil))

	distinct := func(a, b string) bool {
		if a == "" || b == "" || a == b {
			return true
		}
		return MustDeriveStableID(a) != MustDeriveStableID(b)
	}
	require.NoError(t, quick.Check(distinct, &quick.Config{MaxCount: 2000}))
}
