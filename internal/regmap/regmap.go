// Package regmap provides byte-addressed register access to the LCDB
// peripheral. A Bus moves raw bytes; a Regmap adds the peripheral base
// offset and serializes every transaction behind one lock.
package regmap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Bus is a register transport addressed by absolute 16-bit register
// address. Multi-byte transfers cover consecutive addresses.
type Bus interface {
	ReadRegs(ctx context.Context, addr uint16, p []byte) error
	WriteRegs(ctx context.Context, addr uint16, p []byte) error
}

// ErrAccess matches every *Error through errors.Is.
var ErrAccess = errors.New("regmap: register access failed")

// Error is returned for any failed register transaction.
type Error struct {
	Op   string // "read", "write", "update", "unlock"
	Addr uint16 // absolute register address
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("regmap: %s 0x%04x: %v", e.Op, e.Addr, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrAccess }

// Regmap is the register-access surface of one peripheral. Offsets passed
// to its methods are relative to the base address. All methods are safe
// for concurrent use; each call is one uninterrupted transaction.
type Regmap struct {
	mu   sync.Mutex
	bus  Bus
	base uint16
}

// New returns a Regmap for the peripheral at base on bus.
func New(bus Bus, base uint16) *Regmap {
	return &Regmap{bus: bus, base: base}
}

// Base returns the peripheral base address.
func (m *Regmap) Base() uint16 { return m.base }

// ReadBulk reads len(p) consecutive registers starting at off.
func (m *Regmap) ReadBulk(ctx context.Context, off uint16, p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read(ctx, off, p)
}

// WriteBulk writes p to consecutive registers starting at off.
func (m *Regmap) WriteBulk(ctx context.Context, off uint16, p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(ctx, "write", off, p)
}

// ReadReg reads one register.
func (m *Regmap) ReadReg(ctx context.Context, off uint16) (byte, error) {
	var b [1]byte
	if err := m.ReadBulk(ctx, off, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// WriteReg writes one register.
func (m *Regmap) WriteReg(ctx context.Context, off uint16, val byte) error {
	return m.WriteBulk(ctx, off, []byte{val})
}

// UpdateBits replaces the bits selected by mask with val. The register is
// only written when its value changes.
func (m *Regmap) UpdateBits(ctx context.Context, off uint16, mask, val byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var b [1]byte
	if err := m.read(ctx, off, b[:]); err != nil {
		return err
	}
	next := b[0]&^mask | val&mask
	if next == b[0] {
		return nil
	}
	return m.write(ctx, "update", off, []byte{next})
}

// SecureWrite writes key to the unlock register and then val to off,
// holding the lock across both so no other transaction can consume the
// unlock.
func (m *Regmap) SecureWrite(ctx context.Context, unlock uint16, key byte, off uint16, val byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.write(ctx, "unlock", unlock, []byte{key}); err != nil {
		return err
	}
	return m.write(ctx, "write", off, []byte{val})
}

func (m *Regmap) read(ctx context.Context, off uint16, p []byte) error {
	addr := m.base + off
	if err := m.bus.ReadRegs(ctx, addr, p); err != nil {
		slog.Error("regmap: read failed", "addr", fmt.Sprintf("0x%04x", addr), "len", len(p), "err", err)
		return &Error{Op: "read", Addr: addr, Err: err}
	}
	return nil
}

func (m *Regmap) write(ctx context.Context, op string, off uint16, p []byte) error {
	addr := m.base + off
	if err := m.bus.WriteRegs(ctx, addr, p); err != nil {
		slog.Error("regmap: write failed", "op", op, "addr", fmt.Sprintf("0x%04x", addr), "len", len(p), "err", err)
		return &Error{Op: op, Addr: addr, Err: err}
	}
	return nil
}
