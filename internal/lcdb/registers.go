package lcdb

// Register offsets relative to the peripheral base address.
const (
	RegSTS1             uint16 = 0x08 // STS1..STS6 are consecutive
	RegIntRTStatus      uint16 = 0x10
	RegAutoTouchWakeCtl uint16 = 0x40
	RegBSTOutputVoltage uint16 = 0x41
	RegModuleRdy        uint16 = 0x45
	RegEnableCtl1       uint16 = 0x46
	RegBSTPDCtl         uint16 = 0x47
	RegBSTIlimCtl       uint16 = 0x4B
	RegPSCtl            uint16 = 0x50
	RegRdsonMgmnt       uint16 = 0x53
	RegBSTVregOKCtl     uint16 = 0x55
	RegSoftStartCtl     uint16 = 0x5F
	RegMiscCtl          uint16 = 0x60
	RegPFMCtl           uint16 = 0x62
	RegPwrupPwrdnCtl    uint16 = 0x66 // secure access
	RegLDOOutputVoltage uint16 = 0x71
	RegLDOVregOKCtl     uint16 = 0x75
	RegLDOPDCtl         uint16 = 0x77
	RegLDOIlimCtl1      uint16 = 0x7B
	RegLDOIlimCtl2      uint16 = 0x7C
	RegLDOSoftStartCtl  uint16 = 0x7F
	RegNCPOutputVoltage uint16 = 0x81
	RegNCPVregOKCtl     uint16 = 0x85
	RegNCPPDCtl         uint16 = 0x87
	RegNCPIlimCtl1      uint16 = 0x8B
	RegNCPIlimCtl2      uint16 = 0x8C
	RegNCPSoftStartCtl  uint16 = 0x8F
	RegSecAddress       uint16 = 0xD0
)

// SecureUnlockValue is written to RegSecAddress ahead of a secure write.
const SecureUnlockValue byte = 0xA5

// Register bits and fields.
const (
	VregOKRTStsBit byte = 1 << 0 // RegIntRTStatus

	EnAutoTouchWakeBit byte = 1 << 7 // RegAutoTouchWakeCtl
	ATTWToffTimeMask   byte = 0x0C
	ATTWTonTimeMask    byte = 0x03
	attwToffTimeShift       = 2

	ModuleRdyBit byte = 1 << 7 // RegModuleRdy

	ModuleEnBit byte = 1 << 7 // RegEnableCtl1
	HWEnRdyBit  byte = 1 << 6

	DisPulldownBit byte = 1 << 1 // BST/LDO/NCP PD_CTL
	PDStrengthBit  byte = 1 << 0

	EnBSTIlimBit   byte = 1 << 7 // RegBSTIlimCtl
	SetBSTIlimMask byte = 0x07

	EnPSBit         byte = 1 << 7 // RegPSCtl
	PSThresholdMask byte = 0x03

	NFETSwSizeMask  byte = 0x0C // RegRdsonMgmnt
	PFETSwSizeMask  byte = 0x03
	nfetSwSizeShift      = 2

	VregOKDebMask byte = 0x03 // *_VREG_OK_CTL

	AutoGMEnBit        byte = 1 << 4 // RegMiscCtl
	EnTouchWakeBit     byte = 1 << 3
	DisSCPBit          byte = 1 << 0
	EnPFMBit           byte = 1 << 7 // RegPFMCtl
	BypBSTSSCompBit    byte = 1 << 0
	pfmHysteresisShift      = 4
	pfmCurrentShift         = 2

	OutputVoltageMask byte = 0x1F // *_OUTPUT_VOLTAGE

	EnLDOIlimBit   byte = 1 << 7 // RegLDOIlimCtl1
	SetLDOIlimMask byte = 0x07

	EnNCPIlimBit   byte = 1 << 7 // RegNCPIlimCtl1
	SetNCPIlimMask byte = 0x03

	SoftStartMask byte = 0x03 // *_SOFT_START_CTL
)

// PFM hysteresis presets.
const (
	pfmHyst15mV byte = iota
	pfmHyst25mV
	pfmHyst35mV
	pfmHyst45mV
)

// PFM peak current presets.
const (
	pfmPeakCurrent300mA byte = iota
	pfmPeakCurrent400mA
	pfmPeakCurrent500mA
	pfmPeakCurrent600mA
)

// Switch FET sizes for RegRdsonMgmnt.
const (
	rdsonQuarter byte = iota
	rdsonHalf
	rdsonThreeFourth
	rdsonFullSize
)
