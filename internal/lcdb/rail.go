package lcdb

import (
	"context"
	"fmt"
	"log/slog"
)

// railRegs locates one rail's registers.
type railRegs struct {
	output    uint16
	vregOK    uint16
	pd        uint16
	softStart uint16
	ilim1     uint16
	ilim2     uint16
}

var railRegisters = [...]railRegs{
	BST: {output: RegBSTOutputVoltage, vregOK: RegBSTVregOKCtl, pd: RegBSTPDCtl, softStart: RegSoftStartCtl, ilim1: RegBSTIlimCtl},
	LDO: {output: RegLDOOutputVoltage, vregOK: RegLDOVregOKCtl, pd: RegLDOPDCtl, softStart: RegLDOSoftStartCtl, ilim1: RegLDOIlimCtl1, ilim2: RegLDOIlimCtl2},
	NCP: {output: RegNCPOutputVoltage, vregOK: RegNCPVregOKCtl, pd: RegNCPPDCtl, softStart: RegNCPSoftStartCtl, ilim1: RegNCPIlimCtl1, ilim2: RegNCPIlimCtl2},
}

// railTiming is read back from hardware after static programming.
type railTiming struct {
	softStartUS int
	debounceUS  int
}

// programATTW writes the software-timed TTW off/on durations.
func (d *Device) programATTW(ctx context.Context) error {
	val, err := d.cfg.attwTiming()
	if err != nil {
		return err
	}
	if err := d.rm.UpdateBits(ctx, RegAutoTouchWakeCtl, ATTWTonTimeMask|ATTWToffTimeMask, val); err != nil {
		return fmt.Errorf("lcdb: write ATTW on/off: %w", err)
	}
	return nil
}

// programPulldown applies the tri-state pulldown enable and strength.
func (d *Device) programPulldown(ctx context.Context, r Rail, rc *RailConfig) error {
	off := railRegisters[r].pd
	if rc.PullDown != nil {
		val := DisPulldownBit
		if *rc.PullDown {
			val = 0
		}
		if err := d.rm.UpdateBits(ctx, off, DisPulldownBit, val); err != nil {
			return fmt.Errorf("lcdb: configure %s pulldown: %w", r, err)
		}
	}
	if rc.PullDownStrength != nil {
		var val byte
		if *rc.PullDownStrength {
			val = PDStrengthBit
		}
		if err := d.rm.UpdateBits(ctx, off, PDStrengthBit, val); err != nil {
			return fmt.Errorf("lcdb: configure %s pulldown strength: %w", r, err)
		}
	}
	return nil
}

// programBST writes the static boost configuration.
func (d *Device) programBST(ctx context.Context) error {
	bc := &d.cfg.BST
	if bc.VoltageMV != nil {
		if err := d.writeBSTVoltage(ctx, *bc.VoltageMV); err != nil {
			return err
		}
	}
	if err := d.programPulldown(ctx, BST, &bc.RailConfig); err != nil {
		return err
	}
	if bc.IlimMA != nil {
		if err := d.rm.UpdateBits(ctx, RegBSTIlimCtl, SetBSTIlimMask|EnBSTIlimBit, BSTIlimCtl(*bc.IlimMA)); err != nil {
			return fmt.Errorf("lcdb: configure bst ilim_ma: %w", err)
		}
	}
	if bc.PowerSave != nil {
		var val byte
		if *bc.PowerSave {
			val = EnPSBit
		}
		if err := d.rm.UpdateBits(ctx, RegPSCtl, EnPSBit, val); err != nil {
			return fmt.Errorf("lcdb: configure bst power-save: %w", err)
		}
	}
	if bc.PSThresholdMA != nil {
		if err := d.rm.UpdateBits(ctx, RegPSCtl, PSThresholdMask|EnPSBit, PSCtl(*bc.PSThresholdMA)); err != nil {
			return fmt.Errorf("lcdb: configure bst power-save threshold: %w", err)
		}
	}
	if bc.SoftStartUS != nil {
		field, err := EncodeBSTSoftStart(*bc.SoftStartUS)
		if err != nil {
			return err
		}
		if err := d.rm.UpdateBits(ctx, RegSoftStartCtl, SoftStartMask, field); err != nil {
			return fmt.Errorf("lcdb: configure bst soft-start: %w", err)
		}
	}
	return nil
}

// programRegulator writes the static LDO or NCP configuration.
func (d *Device) programRegulator(ctx context.Context, r Rail, rc *RailConfig) error {
	regs := railRegisters[r]
	if rc.VoltageMV != nil {
		if _, err := d.writeVoltage(ctx, r, *rc.VoltageMV); err != nil {
			return err
		}
	}
	if err := d.programPulldown(ctx, r, rc); err != nil {
		return err
	}
	if rc.IlimMA != nil {
		var ctl1, ctl2, mask, en byte
		switch r {
		case LDO:
			ctl1, ctl2 = LDOIlimCtl(*rc.IlimMA)
			mask, en = SetLDOIlimMask, EnLDOIlimBit
		case NCP:
			ctl1, ctl2 = NCPIlimCtl(*rc.IlimMA)
			mask, en = SetNCPIlimMask, EnNCPIlimBit
		}
		if err := d.rm.UpdateBits(ctx, regs.ilim1, mask|en, ctl1); err != nil {
			return fmt.Errorf("lcdb: configure %s ilim_ma (CTL1=0x%02x): %w", r, ctl1, err)
		}
		if err := d.rm.UpdateBits(ctx, regs.ilim2, mask, ctl2); err != nil {
			return fmt.Errorf("lcdb: configure %s ilim_ma (CTL2=0x%02x): %w", r, ctl2, err)
		}
	}
	if rc.SoftStartUS != nil {
		field, err := EncodeSoftStart(*rc.SoftStartUS)
		if err != nil {
			return err
		}
		if err := d.rm.UpdateBits(ctx, regs.softStart, SoftStartMask, field); err != nil {
			return fmt.Errorf("lcdb: write %s soft-start %dus: %w", r, DecodeSoftStart(field), err)
		}
	}
	return nil
}

// readBack caches the rail's output voltage and returns the soft-start
// and debounce times the hardware is configured with.
func (d *Device) readBack(ctx context.Context, r Rail) (railTiming, error) {
	var t railTiming
	mv, err := d.readVoltage(ctx, r)
	if err != nil {
		return t, err
	}
	d.voltageMV[r].Store(int32(mv))

	regs := railRegisters[r]
	val, err := d.rm.ReadReg(ctx, regs.vregOK)
	if err != nil {
		return t, fmt.Errorf("lcdb: read %s vreg-ok debounce: %w", r, err)
	}
	t.debounceUS = DecodeDebounce(val)

	val, err = d.rm.ReadReg(ctx, regs.softStart)
	if err != nil {
		return t, fmt.Errorf("lcdb: read %s soft-start: %w", r, err)
	}
	if r == BST {
		t.softStartUS = DecodeBSTSoftStart(val)
	} else {
		t.softStartUS = DecodeSoftStart(val)
	}
	slog.Debug("lcdb: rail read back", "rail", r.String(), "mv", mv,
		"soft_start_us", t.softStartUS, "debounce_us", t.debounceUS)
	return t, nil
}

// markModuleReady sets MODULE_RDY if the hardware has not.
func (d *Device) markModuleReady(ctx context.Context) error {
	val, err := d.rm.ReadReg(ctx, RegModuleRdy)
	if err != nil {
		return fmt.Errorf("lcdb: read MODULE_RDY: %w", err)
	}
	if val&ModuleRdyBit != 0 {
		return nil
	}
	if err := d.rm.UpdateBits(ctx, RegModuleRdy, ModuleRdyBit, ModuleRdyBit); err != nil {
		return fmt.Errorf("lcdb: set MODULE_RDY: %w", err)
	}
	return nil
}
