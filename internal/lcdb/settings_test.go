package lcdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micro-nova/lcdb-go/internal/regmap"
)

func newStore(t *testing.T) (*SettingsStore, *regmap.Mock) {
	t.Helper()
	m := regmap.NewMock()
	for i, e := range trackedSettings {
		m.Set(e.off, byte(i+1))
	}
	return newSettingsStore(regmap.New(m, 0)), m
}

func TestSettingsStore_SaveOnce(t *testing.T) {
	s, m := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx))
	assert.True(t, s.Saved())
	assert.Len(t, m.Log(), len(trackedSettings))

	m.Set(RegMiscCtl, 0xEE)
	m.ResetLog()
	require.NoError(t, s.Save(ctx))
	assert.Empty(t, m.Log(), "second save is a no-op")

	require.NoError(t, s.Restore(ctx))
	assert.Equal(t, byte(3), m.Get(RegMiscCtl), "first capture wins")
	assert.False(t, s.Saved())
}

func TestSettingsStore_RestoreWithoutSave(t *testing.T) {
	s, m := newStore(t)
	assert.ErrorIs(t, s.Restore(context.Background()), errNotSaved)
	assert.Empty(t, m.Log())
}

func TestSettingsStore_SaveFailure(t *testing.T) {
	s, m := newStore(t)
	m.FailReadAt(RegNCPPDCtl, true)

	require.Error(t, s.Save(context.Background()))
	assert.False(t, s.Saved())
}

func TestSettingsStore_RestoreFailFast(t *testing.T) {
	s, m := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx))

	m.FailWriteAt(RegPFMCtl, true)
	m.ResetLog()
	require.ErrorIs(t, s.Restore(ctx), ErrRegister)
	assert.True(t, s.Saved(), "capture kept for retry")
	assert.Len(t, m.Writes(), 4, "stops at the failing register")

	m.FailWriteAt(RegPFMCtl, false)
	require.NoError(t, s.Restore(ctx))
	assert.False(t, s.Saved())
}

func TestSettingsStore_SecureUnlock(t *testing.T) {
	s, m := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx))
	m.ResetLog()
	require.NoError(t, s.Restore(ctx))

	w := m.Writes()
	require.Len(t, w, len(trackedSettings)+1)
	assert.Equal(t, regmap.Access{Write: true, Addr: RegSecAddress, Val: SecureUnlockValue}, w[5])
	assert.Equal(t, regmap.Access{Write: true, Addr: RegPwrupPwrdnCtl, Val: 6}, w[6])
}
