package lcdb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micro-nova/lcdb-go/internal/lcdb"
)

func TestBSTVoltage_RoundTrip(t *testing.T) {
	prev := 0
	for mv := lcdb.MinBSTVoltageMV; mv <= lcdb.MaxBSTVoltageMV; mv++ {
		got := lcdb.DecodeBSTVoltage(lcdb.EncodeBSTVoltage(mv))
		require.GreaterOrEqual(t, got, mv, "mv=%d", mv)
		require.Less(t, got-mv, 50, "mv=%d", mv)
		require.GreaterOrEqual(t, got, prev, "not monotonic at mv=%d", mv)
		prev = got
	}
}

func TestEncodeBSTVoltage(t *testing.T) {
	tests := []struct {
		mv    int
		field byte
	}{
		{4700, 0},
		{4701, 1},
		{4750, 1},
		{5600, 18},
		{6250, 31},
		{4300, 0},  // clamped up
		{7000, 31}, // clamped down
	}
	for _, tc := range tests {
		assert.Equal(t, tc.field, lcdb.EncodeBSTVoltage(tc.mv), "EncodeBSTVoltage(%d)", tc.mv)
	}
	assert.Equal(t, 4700, lcdb.DecodeBSTVoltage(0))
	assert.Equal(t, 6250, lcdb.DecodeBSTVoltage(31))
	assert.Equal(t, 6250, lcdb.DecodeBSTVoltage(0xFF), "upper bits are ignored")
}

func TestEncodeVoltage(t *testing.T) {
	tests := []struct {
		mv    int
		field byte
	}{
		{4000, 0},
		{4050, 1},
		{4100, 1},
		{4900, 9},
		{4949, 10}, // rounds up onto the breakpoint
		{4950, 10},
		{4975, 11},
		{5000, 11},
		{5500, 21},
		{6000, 31},
	}
	for _, tc := range tests {
		got, err := lcdb.EncodeVoltage(tc.mv)
		require.NoError(t, err, "EncodeVoltage(%d)", tc.mv)
		assert.Equal(t, tc.field, got, "EncodeVoltage(%d)", tc.mv)
	}
}

func TestDecodeVoltage(t *testing.T) {
	assert.Equal(t, 4000, lcdb.DecodeVoltage(0))
	assert.Equal(t, 4900, lcdb.DecodeVoltage(9))
	assert.Equal(t, 4950, lcdb.DecodeVoltage(10))
	assert.Equal(t, 5000, lcdb.DecodeVoltage(11))
	assert.Equal(t, 6000, lcdb.DecodeVoltage(31))
}

func TestVoltage_RoundTrip(t *testing.T) {
	prev := 0
	for mv := lcdb.MinVoltageMV; mv <= lcdb.MaxVoltageMV; mv++ {
		field, err := lcdb.EncodeVoltage(mv)
		require.NoError(t, err)
		got := lcdb.DecodeVoltage(field)

		step := 50
		if mv < 4950 {
			step = 100
		}
		require.GreaterOrEqual(t, got, mv, "mv=%d", mv)
		require.Less(t, got-mv, step, "mv=%d", mv)
		require.GreaterOrEqual(t, got, prev, "not monotonic at mv=%d", mv)
		prev = got

		// Requests just under the breakpoint round up onto it; every
		// other request stays in its own segment.
		if mv <= 4900 || mv >= 4950 {
			assert.Equal(t, mv < 4950, field < 10, "segment for mv=%d", mv)
		}
	}
}

func TestEncodeVoltage_OutOfRange(t *testing.T) {
	for _, mv := range []int{0, 3999, 6001, 6250} {
		_, err := lcdb.EncodeVoltage(mv)
		require.ErrorIs(t, err, lcdb.ErrRange, "mv=%d", mv)

		var rerr *lcdb.RangeError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, mv, rerr.Value)
		assert.Equal(t, lcdb.MinVoltageMV, rerr.Min)
		assert.Equal(t, lcdb.MaxVoltageMV, rerr.Max)
	}
}

func TestNCPIlimCtl(t *testing.T) {
	tests := []struct {
		ma    int
		field byte
		limit int
	}{
		{100, 0, 260},
		{260, 0, 260},
		{261, 1, 460},
		{460, 1, 460},
		{500, 2, 640},
		{640, 2, 640},
		{700, 3, 810},
		{810, 3, 810},
		{1000, 3, 810}, // clamped to the last entry
	}
	for _, tc := range tests {
		ctl1, ctl2 := lcdb.NCPIlimCtl(tc.ma)
		assert.Equal(t, tc.field|lcdb.EnNCPIlimBit, ctl1, "CTL1 for %dmA", tc.ma)
		assert.Equal(t, tc.field, ctl2, "CTL2 for %dmA", tc.ma)
		assert.Equal(t, tc.limit, lcdb.NCPIlimMA(ctl2), "limit for %dmA", tc.ma)
	}
}

func TestLDOIlimCtl(t *testing.T) {
	tests := []struct {
		ma    int
		field byte
	}{
		{110, 0},
		{159, 0},
		{160, 1},
		{200, 1},
		{310, 4},
		{460, 7},
	}
	for _, tc := range tests {
		ctl1, ctl2 := lcdb.LDOIlimCtl(tc.ma)
		assert.Equal(t, tc.field|lcdb.EnLDOIlimBit, ctl1, "CTL1 for %dmA", tc.ma)
		assert.Equal(t, tc.field, ctl2, "CTL2 for %dmA", tc.ma)
	}
}

func TestBSTIlimCtl(t *testing.T) {
	tests := []struct {
		ma  int
		val byte
	}{
		{200, 0x80},
		{300, 0x84},
		{1001, 0x81},
		{1600, 0x80},
		{100, 0x80},  // clamped to 200
		{3000, 0x80}, // clamped to 1600
	}
	for _, tc := range tests {
		assert.Equal(t, tc.val, lcdb.BSTIlimCtl(tc.ma), "BSTIlimCtl(%d)", tc.ma)
	}
}

func TestPSCtl(t *testing.T) {
	assert.Equal(t, byte(0x80), lcdb.PSCtl(50))
	assert.Equal(t, byte(0x81), lcdb.PSCtl(60))
	assert.Equal(t, byte(0x83), lcdb.PSCtl(80))
}

func TestEncodeSoftStart(t *testing.T) {
	tests := []struct {
		us    int
		field byte
	}{
		{0, 0},
		{1, 0},
		{500, 0}, // exact match steps back
		{501, 1},
		{1000, 1},
		{1001, 2},
		{2000, 2},
	}
	for _, tc := range tests {
		got, err := lcdb.EncodeSoftStart(tc.us)
		require.NoError(t, err, "EncodeSoftStart(%d)", tc.us)
		assert.Equal(t, tc.field, got, "EncodeSoftStart(%d)", tc.us)
		assert.LessOrEqual(t, lcdb.DecodeSoftStart(got), tc.us, "never rounds up")
	}

	for _, us := range []int{-1, 2001} {
		_, err := lcdb.EncodeSoftStart(us)
		assert.ErrorIs(t, err, lcdb.ErrRange, "us=%d", us)
	}
}

func TestDecodeTimings(t *testing.T) {
	assert.Equal(t, []int{0, 500, 1000, 2000}, []int{
		lcdb.DecodeSoftStart(0), lcdb.DecodeSoftStart(1), lcdb.DecodeSoftStart(2), lcdb.DecodeSoftStart(3),
	})
	assert.Equal(t, []int{2, 4, 16, 32}, []int{
		lcdb.DecodeDebounce(0), lcdb.DecodeDebounce(1), lcdb.DecodeDebounce(2), lcdb.DecodeDebounce(3),
	})
	assert.Equal(t, []int{200, 400, 600, 800}, []int{
		lcdb.DecodeBSTSoftStart(0), lcdb.DecodeBSTSoftStart(1), lcdb.DecodeBSTSoftStart(2), lcdb.DecodeBSTSoftStart(3),
	})
	assert.Equal(t, 32, lcdb.DecodeDebounce(0xF7), "only the low two bits select")
}

func TestEncodeBSTSoftStart(t *testing.T) {
	got, err := lcdb.EncodeBSTSoftStart(600)
	require.NoError(t, err)
	assert.Equal(t, byte(1), got)

	got, err = lcdb.EncodeBSTSoftStart(100)
	require.NoError(t, err)
	assert.Equal(t, byte(0), got)

	_, err = lcdb.EncodeBSTSoftStart(2500)
	assert.ErrorIs(t, err, lcdb.ErrRange)
}

func TestEncodeATTW(t *testing.T) {
	tests := []struct {
		toff, ton int
		val       byte
	}{
		{4, 4, 0x00},
		{8, 4, 0x04},
		{4, 8, 0x01},
		{16, 8, 0x09},
		{32, 32, 0x0F},
	}
	for _, tc := range tests {
		got, err := lcdb.EncodeATTW(tc.toff, tc.ton)
		require.NoError(t, err, "EncodeATTW(%d, %d)", tc.toff, tc.ton)
		assert.Equal(t, tc.val, got, "EncodeATTW(%d, %d)", tc.toff, tc.ton)
	}
}

func TestEncodeATTW_Invalid(t *testing.T) {
	for _, ms := range []int{0, 2, 12, 24, 64} {
		_, err := lcdb.EncodeATTW(ms, 4)
		assert.ErrorIs(t, err, lcdb.ErrRange, "toff=%d", ms)
		_, err = lcdb.EncodeATTW(4, ms)
		assert.ErrorIs(t, err, lcdb.ErrRange, "ton=%d", ms)
	}
}
