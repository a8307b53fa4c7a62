package lcdb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micro-nova/lcdb-go/internal/lcdb"
	"github.com/micro-nova/lcdb-go/internal/regmap"
)

// tracked lists the registers standby overwrites, in restore order.
var tracked = []uint16{
	lcdb.RegBSTPDCtl,
	lcdb.RegRdsonMgmnt,
	lcdb.RegMiscCtl,
	lcdb.RegSoftStartCtl,
	lcdb.RegPFMCtl,
	lcdb.RegPwrupPwrdnCtl,
	lcdb.RegLDOPDCtl,
	lcdb.RegLDOSoftStartCtl,
	lcdb.RegNCPPDCtl,
	lcdb.RegNCPSoftStartCtl,
}

var standbyValues = map[uint16]byte{
	lcdb.RegBSTPDCtl:        0x02,
	lcdb.RegRdsonMgmnt:      0x05,
	lcdb.RegMiscCtl:         0x19,
	lcdb.RegSoftStartCtl:    0x00,
	lcdb.RegPFMCtl:          0x95,
	lcdb.RegPwrupPwrdnCtl:   0x00,
	lcdb.RegLDOPDCtl:        0x02,
	lcdb.RegLDOSoftStartCtl: 0x00,
	lcdb.RegNCPPDCtl:        0x02,
	lcdb.RegNCPSoftStartCtl: 0x00,
}

// newTTWDevice presets distinct normal-operation values in every tracked
// register and returns an enabled device plus those values.
func newTTWDevice(t *testing.T, cfg lcdb.Config) (*lcdb.Device, *regmap.Mock, map[uint16]byte) {
	t.Helper()
	m := newChip()
	want := make(map[uint16]byte, len(tracked))
	for i, off := range tracked {
		v := byte(0x31 + i)
		m.Set(reg(off), v)
		want[off] = v
	}
	d := newDevice(t, m, cfg)
	require.NoError(t, d.LDO().Enable(context.Background()))
	m.ResetLog()
	return d, m, want
}

func ttwConfig() lcdb.Config {
	cfg := baseConfig()
	cfg.TTWEnable = true
	return cfg
}

func assertRegisters(t *testing.T, m *regmap.Mock, want map[uint16]byte) {
	t.Helper()
	for off, v := range want {
		assert.Equal(t, v, m.Get(reg(off)), "register 0x%02x", off)
	}
}

// assertUnlocked checks that every write to the power-up/down register
// immediately follows the unlock key.
func assertUnlocked(t *testing.T, writes []regmap.Access) {
	t.Helper()
	found := false
	for i, w := range writes {
		if w.Addr != reg(lcdb.RegPwrupPwrdnCtl) {
			continue
		}
		found = true
		require.Greater(t, i, 0)
		assert.Equal(t, reg(lcdb.RegSecAddress), writes[i-1].Addr)
		assert.Equal(t, lcdb.SecureUnlockValue, writes[i-1].Val)
	}
	assert.True(t, found, "secure register never written")
}

func TestTTW_StandbyAndResume(t *testing.T) {
	d, m, want := newTTWDevice(t, ttwConfig())
	ctx := context.Background()

	require.NoError(t, d.NCP().Disable(ctx))
	assert.Equal(t, lcdb.Standby, d.State())
	assert.False(t, d.LDO().IsEnabled(), "standby is reported as not enabled")
	assert.True(t, d.Status().SettingsSaved)
	assertRegisters(t, m, standbyValues)
	assert.Equal(t, []byte{lcdb.HWEnRdyBit}, writesTo(m, lcdb.RegEnableCtl1))
	assertUnlocked(t, m.Writes())

	m.ResetLog()
	require.NoError(t, d.LDO().Enable(ctx))
	assert.Equal(t, lcdb.Enabled, d.State())
	assert.False(t, d.Status().SettingsSaved)
	assertRegisters(t, m, want)
	assertUnlocked(t, m.Writes())

	var order []uint16
	for _, w := range m.Writes() {
		if w.Addr != reg(lcdb.RegSecAddress) && w.Addr != reg(lcdb.RegEnableCtl1) {
			order = append(order, w.Addr-base)
		}
	}
	assert.Equal(t, tracked, order, "restore order")
	assert.Equal(t, []byte{lcdb.ModuleEnBit}, writesTo(m, lcdb.RegEnableCtl1))
}

func TestTTW_RepeatedCycles(t *testing.T) {
	d, m, want := newTTWDevice(t, ttwConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, d.LDO().Disable(ctx))
		require.NoError(t, d.LDO().Disable(ctx), "disable in standby is a no-op")
		require.NoError(t, d.LDO().Enable(ctx))
		assertRegisters(t, m, want)
	}
}

func TestTTW_SoftwareMode(t *testing.T) {
	cfg := ttwConfig()
	cfg.TTWModeSW = true
	cfg.ATTWToffMS = ptr(16)
	cfg.ATTWTonMS = ptr(8)
	d, m, want := newTTWDevice(t, cfg)
	ctx := context.Background()

	require.NoError(t, d.LDO().Disable(ctx))
	assert.Equal(t, lcdb.Standby, d.State())
	assert.Equal(t, lcdb.EnAutoTouchWakeBit|0x09, m.Get(reg(lcdb.RegAutoTouchWakeCtl)))
	assert.Empty(t, writesTo(m, lcdb.RegEnableCtl1), "software mode leaves the enable line alone")

	require.NoError(t, d.LDO().Enable(ctx))
	assertRegisters(t, m, want)
}

func TestTTW_EnterFailureKeepsFirstCapture(t *testing.T) {
	d, m, want := newTTWDevice(t, ttwConfig())
	ctx := context.Background()

	m.FailWriteAt(reg(lcdb.RegPFMCtl), true)
	err := d.LDO().Disable(ctx)
	require.ErrorIs(t, err, lcdb.ErrRegister)
	assert.Equal(t, lcdb.Enabled, d.State())
	assert.True(t, d.Status().SettingsSaved)
	assert.Equal(t, standbyValues[lcdb.RegBSTPDCtl], m.Get(reg(lcdb.RegBSTPDCtl)), "partially written")

	m.FailWriteAt(reg(lcdb.RegPFMCtl), false)
	require.NoError(t, d.LDO().Disable(ctx))
	require.NoError(t, d.LDO().Enable(ctx))
	assertRegisters(t, m, want)
}

func TestTTW_SaveFailure(t *testing.T) {
	d, m, _ := newTTWDevice(t, ttwConfig())

	m.FailReadAt(reg(lcdb.RegMiscCtl), true)
	require.ErrorIs(t, d.LDO().Disable(context.Background()), lcdb.ErrRegister)
	assert.Equal(t, lcdb.Enabled, d.State())
	assert.False(t, d.Status().SettingsSaved)
	assert.Empty(t, m.Writes(), "nothing written before the capture completes")
}

func TestTTW_ExitFailureStaysInStandby(t *testing.T) {
	d, m, want := newTTWDevice(t, ttwConfig())
	ctx := context.Background()
	require.NoError(t, d.LDO().Disable(ctx))

	m.FailWriteAt(reg(lcdb.RegLDOPDCtl), true)
	m.ResetLog()
	require.ErrorIs(t, d.LDO().Enable(ctx), lcdb.ErrRegister)
	assert.Equal(t, lcdb.Standby, d.State())
	assert.True(t, d.Status().SettingsSaved)
	assert.Empty(t, writesTo(m, lcdb.RegEnableCtl1), "power-up not attempted")

	m.FailWriteAt(reg(lcdb.RegLDOPDCtl), false)
	require.NoError(t, d.LDO().Enable(ctx))
	assert.Equal(t, lcdb.Enabled, d.State())
	assertRegisters(t, m, want)
}
