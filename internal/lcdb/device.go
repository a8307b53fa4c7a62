// Package lcdb drives the LCD bias PMIC peripheral: one boost converter
// (BST), one positive LDO and one inverting charge pump (NCP) sharing a
// single enable line and status register.
//
// A Device is created once from a validated Config. Its regulators are
// the only entry points for consumers; enable and disable apply to the
// shared module and are serialized across all rails.
package lcdb

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/micro-nova/lcdb-go/internal/regmap"
)

type options struct {
	sleep  func(time.Duration)
	notify func(Status)
}

// Option configures a Device.
type Option func(*options)

// WithSleep replaces time.Sleep for the vreg-ok poll interval.
func WithSleep(fn func(time.Duration)) Option {
	return func(o *options) { o.sleep = fn }
}

// WithNotify registers a callback invoked with a fresh Status after every
// state transition and voltage change. Transitions notify with the
// sequencing lock held, so the callback must not block or call Enable or
// Disable.
func WithNotify(fn func(Status)) Option {
	return func(o *options) { o.notify = fn }
}

// Status is a point-in-time view of the device.
type Status struct {
	State         State  `json:"state"`
	SettingsSaved bool   `json:"settings_saved"`
	TTWEnable     bool   `json:"ttw_enable"`
	TTWModeSW     bool   `json:"ttw_mode_sw"`
	ForceReenable bool   `json:"force_module_reenable"`
	BSTVoltageMV  int    `json:"bst_mv"`
	LDOVoltageMV  int    `json:"ldo_mv"`
	NCPVoltageMV  int    `json:"ncp_mv"`
	PollBudgetUS  int64  `json:"poll_budget_us"`
	LDOName       string `json:"ldo_name"`
	NCPName       string `json:"ncp_name"`
}

// Device is the LCDB peripheral. It is safe for concurrent use.
type Device struct {
	rm        *regmap.Regmap
	cfg       Config
	store     *SettingsStore
	seq       *sequencer
	voltMu    sync.Mutex      // voltage writes and read-backs; never held with seq.mu
	voltageMV [3]atomic.Int32 // last programmed or read value per Rail
	notify    func(Status)

	ldo *Regulator
	ncp *Regulator
	bst *Boost
}

// New validates cfg, programs the static rail configuration (only when the
// module is not already enabled), reads back timing and voltages, and
// returns the device in the state the hardware reports.
func New(ctx context.Context, rm *regmap.Regmap, cfg Config, opts ...Option) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{sleep: time.Sleep}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Device{
		rm:     rm,
		cfg:    cfg,
		store:  newSettingsStore(rm),
		notify: o.notify,
	}
	d.seq = &sequencer{
		rm:            rm,
		forceReenable: cfg.ForceModuleReenable,
		sleep:         o.sleep,
	}
	if cfg.TTWEnable {
		d.seq.ttw = &ttwController{rm: rm, store: d.store, modeSW: cfg.TTWModeSW}
	}

	enabled, err := d.hwEnabled(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.TTWEnable && cfg.TTWModeSW {
		if err := d.programATTW(ctx); err != nil {
			return nil, err
		}
	}
	if !enabled {
		if err := d.programBST(ctx); err != nil {
			return nil, fmt.Errorf("lcdb: initialize bst: %w", err)
		}
		if err := d.programRegulator(ctx, LDO, &d.cfg.LDO); err != nil {
			return nil, fmt.Errorf("lcdb: initialize ldo: %w", err)
		}
		if err := d.programRegulator(ctx, NCP, &d.cfg.NCP); err != nil {
			return nil, fmt.Errorf("lcdb: initialize ncp: %w", err)
		}
	}

	var budgetUS int
	for _, r := range []Rail{BST, LDO, NCP} {
		t, err := d.readBack(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("lcdb: initialize %s: %w", r, err)
		}
		budgetUS += t.softStartUS + t.debounceUS
	}
	d.seq.budget = time.Duration(budgetUS) * time.Microsecond

	if enabled {
		d.seq.state.Store(int32(Enabled))
	} else if err := d.markModuleReady(ctx); err != nil {
		return nil, err
	}
	d.seq.onChange = func(State) { d.publish() }

	d.ldo = &Regulator{d: d, rail: LDO, name: cfg.LDO.Name}
	d.ncp = &Regulator{d: d, rail: NCP, name: cfg.NCP.Name}
	d.bst = &Boost{d: d}

	slog.Info("lcdb: module registered",
		"enabled", enabled,
		"ttw", cfg.TTWEnable,
		"ldo_mv", d.voltageMV[LDO].Load(),
		"ncp_mv", d.voltageMV[NCP].Load(),
		"bst_mv", d.voltageMV[BST].Load(),
		"poll_budget", d.seq.budget)
	return d, nil
}

func (d *Device) hwEnabled(ctx context.Context) (bool, error) {
	val, err := d.rm.ReadReg(ctx, RegEnableCtl1)
	if err != nil {
		return false, fmt.Errorf("lcdb: read ENABLE_CTL1: %w", err)
	}
	return val&ModuleEnBit != 0, nil
}

// LDO returns the positive linear regulator.
func (d *Device) LDO() *Regulator { return d.ldo }

// NCP returns the inverting charge-pump regulator.
func (d *Device) NCP() *Regulator { return d.ncp }

// Boost returns the boost converter, which only exposes its voltage.
func (d *Device) Boost() *Boost { return d.bst }

// Regulator looks up the LDO or NCP by rail type ("ldo", "ncp") or by
// configured regulator name.
func (d *Device) Regulator(name string) (*Regulator, error) {
	for _, r := range []*Regulator{d.ldo, d.ncp} {
		if name == r.name || name == r.rail.String() {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRail, name)
}

// State returns the current power state without waiting for a transition
// in progress.
func (d *Device) State() State { return d.seq.current() }

// Status returns a snapshot of the device.
func (d *Device) Status() Status {
	return Status{
		State:         d.seq.current(),
		SettingsSaved: d.store.Saved(),
		TTWEnable:     d.cfg.TTWEnable,
		TTWModeSW:     d.cfg.TTWModeSW,
		ForceReenable: d.cfg.ForceModuleReenable,
		BSTVoltageMV:  int(d.voltageMV[BST].Load()),
		LDOVoltageMV:  int(d.voltageMV[LDO].Load()),
		NCPVoltageMV:  int(d.voltageMV[NCP].Load()),
		PollBudgetUS:  d.seq.budget.Microseconds(),
		LDOName:       d.cfg.LDO.Name,
		NCPName:       d.cfg.NCP.Name,
	}
}

func (d *Device) publish() {
	if d.notify != nil {
		d.notify(d.Status())
	}
}

// DumpStatus clears and captures the six status registers.
func (d *Device) DumpStatus(ctx context.Context) (StatusDump, error) {
	return dumpStatus(ctx, d.rm)
}

// SetVoltage programs rail r and returns the voltage actually encoded.
// Out-of-range requests fail with a RangeError before any write. Setting
// the LDO also moves the boost to LDO + 100 mV; the pair is written as a
// unit and is not interrupted by cancelling ctx.
func (d *Device) SetVoltage(ctx context.Context, r Rail, mv int) (int, error) {
	if r == BST {
		if err := checkRange("bst voltage_mv", mv, MinBSTVoltageMV, MaxBSTVoltageMV); err != nil {
			return 0, err
		}
	}
	d.voltMu.Lock()
	actual, err := d.writeVoltage(context.WithoutCancel(ctx), r, mv)
	d.voltMu.Unlock()
	if err != nil {
		slog.Error("lcdb: failed to set voltage", "rail", r.String(), "mv", mv, "err", err)
		return 0, err
	}
	d.publish()
	return actual, nil
}

// Voltage reads rail r's output voltage field back from hardware.
func (d *Device) Voltage(ctx context.Context, r Rail) (int, error) {
	d.voltMu.Lock()
	defer d.voltMu.Unlock()
	mv, err := d.readVoltage(ctx, r)
	if err != nil {
		return 0, err
	}
	d.voltageMV[r].Store(int32(mv))
	return mv, nil
}

func (d *Device) writeVoltage(ctx context.Context, r Rail, mv int) (int, error) {
	if r == BST {
		if err := d.writeBSTVoltage(ctx, mv); err != nil {
			return 0, err
		}
		return int(d.voltageMV[BST].Load()), nil
	}

	field, err := EncodeVoltage(mv)
	if err != nil {
		return 0, err
	}
	if r == LDO {
		if err := d.writeBSTVoltage(ctx, mv+100); err != nil {
			return 0, err
		}
	}
	off := railRegisters[r].output
	if err := d.rm.UpdateBits(ctx, off, OutputVoltageMask, field); err != nil {
		return 0, fmt.Errorf("lcdb: set %s voltage %dmV: %w", r, mv, err)
	}
	actual := DecodeVoltage(field)
	d.voltageMV[r].Store(int32(actual))
	slog.Debug("lcdb: voltage set", "rail", r.String(), "mv", actual,
		"reg", fmt.Sprintf("0x%02x", off), "val", fmt.Sprintf("0x%02x", field))
	return actual, nil
}

func (d *Device) writeBSTVoltage(ctx context.Context, mv int) error {
	field := EncodeBSTVoltage(mv)
	if err := d.rm.UpdateBits(ctx, RegBSTOutputVoltage, OutputVoltageMask, field); err != nil {
		return fmt.Errorf("lcdb: set boost voltage %dmV: %w", mv, err)
	}
	actual := DecodeBSTVoltage(field)
	d.voltageMV[BST].Store(int32(actual))
	slog.Debug("lcdb: voltage set", "rail", BST.String(), "mv", actual,
		"reg", fmt.Sprintf("0x%02x", RegBSTOutputVoltage), "val", fmt.Sprintf("0x%02x", field))
	return nil
}

func (d *Device) readVoltage(ctx context.Context, r Rail) (int, error) {
	val, err := d.rm.ReadReg(ctx, railRegisters[r].output)
	if err != nil {
		return 0, fmt.Errorf("lcdb: read %s voltage: %w", r, err)
	}
	if r == BST {
		return DecodeBSTVoltage(val), nil
	}
	return DecodeVoltage(val), nil
}

// Regulator is the LDO or NCP rail. Enable and Disable act on the shared
// module, so they affect every rail.
type Regulator struct {
	d    *Device
	rail Rail
	name string
}

// Name returns the configured regulator name.
func (r *Regulator) Name() string { return r.name }

// Rail returns LDO or NCP.
func (r *Regulator) Rail() Rail { return r.rail }

// Supply returns the name of the supplying regulator, or "".
func (r *Regulator) Supply() string {
	if r.d.cfg.ParentSupply {
		return "parent"
	}
	return ""
}

// Enable brings the module up, resuming from standby if needed. It can
// block for up to ten poll intervals.
func (r *Regulator) Enable(ctx context.Context) error { return r.d.seq.enable(ctx) }

// Disable takes the module down or parks it in touch-to-wake standby.
func (r *Regulator) Disable(ctx context.Context) error { return r.d.seq.disable(ctx) }

// IsEnabled reports whether the module is enabled. Standby is not.
func (r *Regulator) IsEnabled() bool { return r.d.seq.current() == Enabled }

// SetVoltage programs the rail; see Device.SetVoltage.
func (r *Regulator) SetVoltage(ctx context.Context, mv int) (int, error) {
	return r.d.SetVoltage(ctx, r.rail, mv)
}

// Voltage reads the rail's programmed voltage.
func (r *Regulator) Voltage(ctx context.Context) (int, error) {
	return r.d.Voltage(ctx, r.rail)
}

// Boost is the boost converter rail.
type Boost struct {
	d *Device
}

// SetVoltage programs the boost output.
func (b *Boost) SetVoltage(ctx context.Context, mv int) (int, error) {
	return b.d.SetVoltage(ctx, BST, mv)
}

// Voltage reads the boost output voltage.
func (b *Boost) Voltage(ctx context.Context) (int, error) {
	return b.d.Voltage(ctx, BST)
}
