package upgrademutex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSharedHandleLifecycle(t *testing.T) {
	m := New()
	h := AcquireShared(m)
	require.True(t, h.Owns())
	require.Equal(t, 1, m.Snapshot().Readers)

	h.Unlock()
	require.False(t, h.Owns())
	require.Equal(t, 0, m.Snapshot().Readers)

	// Unlocking an already-empty handle is a no-op, not a second release.
	h.Unlock()
}

func TestMoveEmptiesSource(t *testing.T) {
	m := New()
	h := AcquireExclusive(m)
	moved := h.Move()

	require.False(t, h.Owns())
	require.True(t, moved.Owns())

	moved.Unlock()
	require.Equal(t, StateSnapshot{}, m.Snapshot())
}

func TestReleaseWithoutUnlockEmptiesHandle(t *testing.T) {
	m := New()
	h := AcquireUpgrade(m)
	h.Release()
	require.False(t, h.Owns())
	require.True(t, m.Snapshot().Upgrade) // still locked; caller must unlock manually

	m.UnlockUpgrade()
}

func TestPromoteToExclusiveConsumesUpgradeHandle(t *testing.T) {
	m := New()
	u := AcquireUpgrade(m)

	x := PromoteToExclusive(&u)
	require.False(t, u.Owns())
	require.True(t, x.Owns())
	require.Equal(t, StateSnapshot{Exclusive: true}, m.Snapshot())

	x.Unlock()
}

func TestDemoteToUpgradeAndShared(t *testing.T) {
	m := New()
	x := AcquireExclusive(m)
	u := DemoteToUpgrade(&x)
	require.False(t, x.Owns())
	require.True(t, u.Owns())
	require.Equal(t, StateSnapshot{Upgrade: true}, m.Snapshot())

	x2 := PromoteToExclusive(&u)
	s := DemoteToShared(&x2)
	require.False(t, x2.Owns())
	require.True(t, s.Owns())
	require.Equal(t, StateSnapshot{Readers: 1}, m.Snapshot())

	s.Unlock()
}

func TestPromoteToExclusiveOnEmptyHandlePanics(t *testing.T) {
	var u UpgradeHandle
	require.Panics(t, func() {
		PromoteToExclusive(&u)
	})
}

func TestScopedPromotionRoundTrip(t *testing.T) {
	m := New()
	u := AcquireUpgrade(m)

	data := 1
	promo := BeginScopedPromotion(&u)
	require.True(t, u.Owns()) // u still reports ownership throughout
	require.True(t, m.Snapshot().Exclusive)
	data = 2
	promo.End()

	require.True(t, u.Owns())
	require.Equal(t, StateSnapshot{Upgrade: true}, m.Snapshot())
	require.Equal(t, 2, data)

	// End is idempotent.
	promo.End()

	u.Unlock()
}
