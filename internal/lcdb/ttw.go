package lcdb

import (
	"context"
	"fmt"

	"github.com/micro-nova/lcdb-go/internal/regmap"
)

type regWrite struct {
	off    uint16
	val    byte
	secure bool
}

// standbySequence is the low-power configuration written on every
// touch-to-wake entry, independent of the rails' normal settings.
var standbySequence = []regWrite{
	{off: RegBSTPDCtl, val: DisPulldownBit},
	{off: RegRdsonMgmnt, val: rdsonHalf<<nfetSwSizeShift | rdsonHalf},
	{off: RegMiscCtl, val: AutoGMEnBit | EnTouchWakeBit | DisSCPBit},
	{off: RegSoftStartCtl, val: 0},
	{off: RegPFMCtl, val: EnPFMBit | pfmHyst25mV<<pfmHysteresisShift | pfmPeakCurrent400mA<<pfmCurrentShift | BypBSTSSCompBit},
	{off: RegPwrupPwrdnCtl, val: 0, secure: true},
	{off: RegLDOPDCtl, val: DisPulldownBit},
	{off: RegLDOSoftStartCtl, val: 0},
	{off: RegNCPPDCtl, val: DisPulldownBit},
	{off: RegNCPSoftStartCtl, val: 0},
}

// ttwController moves the module in and out of touch-to-wake standby.
type ttwController struct {
	rm     *regmap.Regmap
	store  *SettingsStore
	modeSW bool // software-timed auto wake instead of hardware enable
}

// enter saves the tracked registers (once), programs the standby
// configuration and arms wake.
func (t *ttwController) enter(ctx context.Context) error {
	if err := t.store.Save(ctx); err != nil {
		return err
	}
	for _, w := range standbySequence {
		var err error
		if w.secure {
			err = t.rm.SecureWrite(ctx, RegSecAddress, SecureUnlockValue, w.off, w.val)
		} else {
			err = t.rm.WriteReg(ctx, w.off, w.val)
		}
		if err != nil {
			return fmt.Errorf("lcdb: standby register 0x%02x: %w", w.off, err)
		}
	}

	if t.modeSW {
		if err := t.rm.UpdateBits(ctx, RegAutoTouchWakeCtl, EnAutoTouchWakeBit, EnAutoTouchWakeBit); err != nil {
			return fmt.Errorf("lcdb: enable auto(sw) TTW: %w", err)
		}
		return nil
	}
	if err := t.rm.WriteReg(ctx, RegEnableCtl1, HWEnRdyBit); err != nil {
		return fmt.Errorf("lcdb: hw-enable TTW: %w", err)
	}
	return nil
}

// exit restores the saved registers. It is a no-op when nothing is saved.
func (t *ttwController) exit(ctx context.Context) error {
	if !t.store.Saved() {
		return nil
	}
	return t.store.Restore(ctx)
}
