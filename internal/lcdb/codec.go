package lcdb

import "math/bits"

// Voltage encoding. LDO and NCP use 100 mV steps from 4000 mV up to the
// 4950 mV breakpoint, then 50 mV steps; field values from
// voltageStep50Offset on belong to the fine segment.
const (
	voltageMinStep100MV = 4000
	voltageMinStep50MV  = 4950
	voltageStep100MV    = 100
	voltageStep50MV     = 50
	voltageStep50Offset = 10
)

var (
	softStartTableUS    = []int{0, 500, 1000, 2000}
	bstSoftStartTableUS = []int{200, 400, 600, 800}
	debounceTableUS     = []int{2, 4, 16, 32}
	ncpIlimTableMA      = []int{260, 460, 640, 810}
)

func divRoundUp(n, d int) int { return (n + d - 1) / d }

// scanTable walks the ascending table while v is greater than the
// current entry and returns the index it stops at, which is the first
// entry >= v or the last entry when v exceeds them all. With stepBack
// the result moves one entry lower unless it is already 0; note that
// this also steps back from an exact match.
func scanTable(table []int, v int, stepBack bool) int {
	i := 0
	for i < len(table)-1 && v > table[i] {
		i++
	}
	if stepBack && i > 0 {
		i--
	}
	return i
}

// EncodeBSTVoltage clamps mv to the boost range and rounds up to the next
// 50 mV step.
func EncodeBSTVoltage(mv int) byte {
	mv = min(max(mv, MinBSTVoltageMV), MaxBSTVoltageMV)
	return byte(divRoundUp(mv-MinBSTVoltageMV, voltageStep50MV)) & OutputVoltageMask
}

// DecodeBSTVoltage converts a BST output voltage field to millivolts.
func DecodeBSTVoltage(field byte) int {
	return int(field&OutputVoltageMask)*voltageStep50MV + MinBSTVoltageMV
}

// EncodeVoltage converts an LDO or NCP target to its output voltage field,
// rounding up within the segment mv falls in.
func EncodeVoltage(mv int) (byte, error) {
	if err := checkRange("voltage_mv", mv, MinVoltageMV, MaxVoltageMV); err != nil {
		return 0, err
	}
	var field int
	if mv < voltageMinStep50MV {
		field = divRoundUp(mv-voltageMinStep100MV, voltageStep100MV)
	} else {
		field = divRoundUp(mv-voltageMinStep50MV, voltageStep50MV) + voltageStep50Offset
	}
	return byte(field) & OutputVoltageMask, nil
}

// DecodeVoltage converts an LDO or NCP output voltage field to millivolts.
func DecodeVoltage(field byte) int {
	field &= OutputVoltageMask
	if field < voltageStep50Offset {
		return voltageMinStep100MV + int(field)*voltageStep100MV
	}
	return voltageMinStep50MV + int(field-voltageStep50Offset)*voltageStep50MV
}

// BSTIlimCtl returns the RegBSTIlimCtl value for a boost current limit.
// The hardware takes the clamped milliamp value modulo 8; range checking
// belongs to Config.Validate.
func BSTIlimCtl(ma int) byte {
	ma = min(max(ma, MinBSTIlimMA), MaxBSTIlimMA)
	return byte(ma)&SetBSTIlimMask | EnBSTIlimBit
}

// LDOIlimCtl returns the RegLDOIlimCtl1 and RegLDOIlimCtl2 values for an
// LDO current limit. CTL2 mirrors the field without the enable bit.
func LDOIlimCtl(ma int) (ctl1, ctl2 byte) {
	idx := byte((ma-MinLDOIlimMA)/LDOIlimStepMA) & SetLDOIlimMask
	return idx | EnLDOIlimBit, idx
}

// NCPIlimCtl returns the RegNCPIlimCtl1 and RegNCPIlimCtl2 values for an
// NCP current limit: the first table entry that covers ma, clamped to the
// largest entry.
func NCPIlimCtl(ma int) (ctl1, ctl2 byte) {
	idx := byte(scanTable(ncpIlimTableMA, ma, false)) & SetNCPIlimMask
	return idx | EnNCPIlimBit, idx
}

// NCPIlimMA returns the limit selected by an NCP ILIM field.
func NCPIlimMA(field byte) int {
	return ncpIlimTableMA[field&SetNCPIlimMask]
}

// PSCtl returns the RegPSCtl value enabling power-save at threshold ma.
func PSCtl(ma int) byte {
	return byte((ma-MinBSTPSMA)/10)&PSThresholdMask | EnPSBit
}

// EncodeSoftStart converts an LDO/NCP soft-start time to its 2-bit field.
// The scan steps back one entry, so requests round down and exact table
// values select the entry below them.
func EncodeSoftStart(us int) (byte, error) {
	if err := checkRange("soft_start_us", us, MinSoftStartUS, MaxSoftStartUS); err != nil {
		return 0, err
	}
	return byte(scanTable(softStartTableUS, us, true)) & SoftStartMask, nil
}

// DecodeSoftStart converts an LDO/NCP soft-start field to microseconds.
func DecodeSoftStart(field byte) int {
	return softStartTableUS[field&SoftStartMask]
}

// EncodeBSTSoftStart is EncodeSoftStart against the boost table.
func EncodeBSTSoftStart(us int) (byte, error) {
	if err := checkRange("bst soft_start_us", us, MinSoftStartUS, MaxSoftStartUS); err != nil {
		return 0, err
	}
	return byte(scanTable(bstSoftStartTableUS, us, true)) & SoftStartMask, nil
}

// DecodeBSTSoftStart converts the boost soft-start field to microseconds.
func DecodeBSTSoftStart(field byte) int {
	return bstSoftStartTableUS[field&SoftStartMask]
}

// DecodeDebounce converts a VREG_OK debounce field to microseconds.
func DecodeDebounce(field byte) int {
	return debounceTableUS[field&VregOKDebMask]
}

// EncodeATTW packs the auto touch-to-wake off and on durations. Each
// must be a power of two between 4 and 32 ms.
func EncodeATTW(toffMS, tonMS int) (byte, error) {
	toff, err := attwField("attw-toff-ms", toffMS)
	if err != nil {
		return 0, err
	}
	ton, err := attwField("attw-ton-ms", tonMS)
	if err != nil {
		return 0, err
	}
	return toff<<attwToffTimeShift&ATTWToffTimeMask | ton&ATTWTonTimeMask, nil
}

func attwField(what string, ms int) (byte, error) {
	if err := checkRange(what, ms, MinATTWMS, MaxATTWMS); err != nil {
		return 0, err
	}
	if ms&(ms-1) != 0 {
		return 0, &RangeError{What: what + " (power of two)", Value: ms, Min: MinATTWMS, Max: MaxATTWMS}
	}
	return byte(bits.Len(uint(ms/MinATTWMS)) - 1), nil
}
