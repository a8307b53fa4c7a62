package lcdb

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/micro-nova/lcdb-go/internal/regmap"
)

// errNotSaved is returned by Restore when nothing was captured.
var errNotSaved = errors.New("lcdb: settings not saved")

type setting struct {
	off    uint16
	secure bool
	val    byte
}

// trackedSettings lists, in save and restore order, the registers that
// touch-to-wake standby overwrites.
var trackedSettings = [...]setting{
	{off: RegBSTPDCtl},
	{off: RegRdsonMgmnt},
	{off: RegMiscCtl},
	{off: RegSoftStartCtl},
	{off: RegPFMCtl},
	{off: RegPwrupPwrdnCtl, secure: true},
	{off: RegLDOPDCtl},
	{off: RegLDOSoftStartCtl},
	{off: RegNCPPDCtl},
	{off: RegNCPSoftStartCtl},
}

// SettingsStore captures the tracked registers before standby and writes
// them back on resume. Callers serialize Save and Restore; Saved may be
// read concurrently.
type SettingsStore struct {
	rm      *regmap.Regmap
	entries [len(trackedSettings)]setting
	saved   atomic.Bool
}

func newSettingsStore(rm *regmap.Regmap) *SettingsStore {
	return &SettingsStore{rm: rm, entries: trackedSettings}
}

// Saved reports whether a capture is held.
func (s *SettingsStore) Saved() bool { return s.saved.Load() }

// Save reads every tracked register once. It is a no-op while a previous
// capture is still held, so a repeated standby entry cannot overwrite the
// normal-operation values with standby ones.
func (s *SettingsStore) Save(ctx context.Context) error {
	if s.saved.Load() {
		return nil
	}
	for i := range s.entries {
		e := &s.entries[i]
		v, err := s.rm.ReadReg(ctx, e.off)
		if err != nil {
			return fmt.Errorf("lcdb: save register 0x%02x: %w", e.off, err)
		}
		e.val = v
	}
	s.saved.Store(true)
	return nil
}

// Restore writes every captured value back in order, unlocking secure
// registers first. It stops at the first failure and keeps the capture so
// the restore can be retried; on success the capture is released.
func (s *SettingsStore) Restore(ctx context.Context) error {
	if !s.saved.Load() {
		return errNotSaved
	}
	for _, e := range s.entries {
		var err error
		if e.secure {
			err = s.rm.SecureWrite(ctx, RegSecAddress, SecureUnlockValue, e.off, e.val)
		} else {
			err = s.rm.WriteReg(ctx, e.off, e.val)
		}
		if err != nil {
			return fmt.Errorf("lcdb: restore register 0x%02x: %w", e.off, err)
		}
	}
	s.saved.Store(false)
	return nil
}
