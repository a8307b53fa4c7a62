package lcdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/micro-nova/lcdb-go/internal/regmap"
)

// State is the power state shared by every rail.
type State int32

const (
	Disabled State = iota
	Enabled
	Standby // touch-to-wake: output down, settings saved for resume
)

func (s State) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case Enabled:
		return "enabled"
	case Standby:
		return "standby"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state as its name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(b []byte) error {
	for _, st := range []State{Disabled, Enabled, Standby} {
		if string(b) == st.String() {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("lcdb: unknown state %q", b)
}

const (
	pollAttempts = 10
	pollJitter   = 100 * time.Microsecond
)

// sequencer owns the shared enable line. mu is held for the whole of a
// transition, including the vreg-ok poll.
type sequencer struct {
	mu            sync.Mutex
	state         atomic.Int32
	rm            *regmap.Regmap
	ttw           *ttwController // nil without touch-to-wake
	forceReenable bool
	budget        time.Duration // wait between vreg-ok polls
	sleep         func(time.Duration)
	onChange      func(State)
}

func (s *sequencer) current() State { return State(s.state.Load()) }

func (s *sequencer) set(st State) {
	s.state.Store(int32(st))
	if s.onChange != nil {
		s.onChange(st)
	}
}

// enable powers the module up and waits for vreg-ok. It is a no-op if
// already enabled. Once started it runs to completion: cancelling ctx
// does not abort the register sequence.
func (s *sequencer) enable(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current() == Enabled {
		return nil
	}
	ctx = context.WithoutCancel(ctx)
	resumed := s.current() == Standby
	if resumed {
		if err := s.ttw.exit(ctx); err != nil {
			slog.Error("lcdb: failed to exit TTW mode", "err", err)
			return fmt.Errorf("lcdb: exit touch-to-wake: %w", err)
		}
		// Subscribers see only the outcome of the resume.
		s.state.Store(int32(Disabled))
	}

	if err := s.powerUp(ctx); err != nil {
		dump, derr := dumpStatus(ctx, s.rm)
		if derr != nil {
			slog.Error("lcdb: failed to dump status registers", "err", derr)
		} else {
			slog.Error("lcdb: status dump",
				"STS1", fmt.Sprintf("0x%02x", dump[0]),
				"STS2", fmt.Sprintf("0x%02x", dump[1]),
				"STS3", fmt.Sprintf("0x%02x", dump[2]),
				"STS4", fmt.Sprintf("0x%02x", dump[3]),
				"STS5", fmt.Sprintf("0x%02x", dump[4]),
				"STS6", fmt.Sprintf("0x%02x", dump[5]))
		}
		var terr *TimeoutError
		if errors.As(err, &terr) {
			terr.Status = dump
		}
		slog.Error("lcdb: failed to enable", "err", err)
		if resumed {
			s.set(Disabled)
		}
		return err
	}

	s.set(Enabled)
	slog.Debug("lcdb: enabled")
	return nil
}

func (s *sequencer) powerUp(ctx context.Context) error {
	if err := s.rm.WriteReg(ctx, RegEnableCtl1, ModuleEnBit); err != nil {
		return fmt.Errorf("lcdb: enable module: %w", err)
	}
	if s.forceReenable {
		if err := s.rm.WriteReg(ctx, RegEnableCtl1, 0); err != nil {
			return fmt.Errorf("lcdb: re-enable module: %w", err)
		}
		if err := s.rm.WriteReg(ctx, RegEnableCtl1, ModuleEnBit); err != nil {
			return fmt.Errorf("lcdb: re-enable module: %w", err)
		}
	}

	for attempt := 0; attempt < pollAttempts; attempt++ {
		sts, err := s.rm.ReadReg(ctx, RegIntRTStatus)
		if err != nil {
			return fmt.Errorf("lcdb: poll vreg-ok: %w", err)
		}
		if sts&VregOKRTStsBit != 0 {
			return nil
		}
		s.sleep(s.budget + time.Duration(rand.Int63n(int64(pollJitter+1))))
	}
	return &TimeoutError{Attempts: pollAttempts, Budget: s.budget}
}

// disable parks the module in touch-to-wake standby when configured,
// otherwise clears the enable line. It is a no-op unless enabled, and
// like enable it ignores cancellation once started.
func (s *sequencer) disable(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current() != Enabled {
		return nil
	}
	ctx = context.WithoutCancel(ctx)
	if s.ttw != nil {
		if err := s.ttw.enter(ctx); err != nil {
			slog.Error("lcdb: failed to enter TTW mode", "err", err)
			return fmt.Errorf("lcdb: enter touch-to-wake: %w", err)
		}
		s.set(Standby)
		slog.Debug("lcdb: parked in touch-to-wake standby")
		return nil
	}

	if err := s.rm.WriteReg(ctx, RegEnableCtl1, 0); err != nil {
		slog.Error("lcdb: failed to disable", "err", err)
		return fmt.Errorf("lcdb: disable module: %w", err)
	}
	s.set(Disabled)
	slog.Debug("lcdb: disabled")
	return nil
}

// dumpStatus clears and then captures STS1..STS6.
func dumpStatus(ctx context.Context, rm *regmap.Regmap) (StatusDump, error) {
	var sts StatusDump
	if err := rm.WriteBulk(ctx, RegSTS1, sts[:]); err != nil {
		return sts, fmt.Errorf("lcdb: write status registers: %w", err)
	}
	if err := rm.ReadBulk(ctx, RegSTS1, sts[:]); err != nil {
		return sts, fmt.Errorf("lcdb: read status registers: %w", err)
	}
	return sts, nil
}
