package regmap

import (
	"context"
	"sync"
)

// Access records one register transaction seen by the Mock.
type Access struct {
	Write bool
	Addr  uint16
	Val   byte
}

// WriteHook is called by the Mock after each register byte is stored.
// set updates another register without recording an access; it must
// only be called from within the hook.
type WriteHook func(addr uint16, val byte, set func(addr uint16, val byte))

// Mock is a thread-safe in-memory register file for testing and
// development. Unwritten registers read as zero.
type Mock struct {
	mu        sync.Mutex
	regs      map[uint16]byte
	log       []Access
	failRead  bool
	failWrite bool
	readAt    map[uint16]bool
	writeAt   map[uint16]bool
	onWrite   WriteHook
}

// NewMock creates an empty register file.
func NewMock() *Mock {
	return &Mock{
		regs:    make(map[uint16]byte),
		readAt:  make(map[uint16]bool),
		writeAt: make(map[uint16]bool),
	}
}

// SetFailRead configures the mock to fail all read operations.
func (m *Mock) SetFailRead(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failRead = fail
}

// SetFailWrite configures the mock to fail all write operations.
func (m *Mock) SetFailWrite(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrite = fail
}

// FailReadAt makes reads covering addr fail.
func (m *Mock) FailReadAt(addr uint16, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readAt[addr] = fail
}

// FailWriteAt makes writes covering addr fail.
func (m *Mock) FailWriteAt(addr uint16, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeAt[addr] = fail
}

// OnWrite installs a hook that simulates hardware side effects.
func (m *Mock) OnWrite(hook WriteHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onWrite = hook
}

// Set stores a register value without recording an access.
func (m *Mock) Set(addr uint16, val byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs[addr] = val
}

// Get returns a register value for testing purposes.
func (m *Mock) Get(addr uint16) byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regs[addr]
}

// Log returns a copy of every recorded access in order.
func (m *Mock) Log() []Access {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Access, len(m.log))
	copy(out, m.log)
	return out
}

// Writes returns only the recorded writes.
func (m *Mock) Writes() []Access {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Access
	for _, a := range m.log {
		if a.Write {
			out = append(out, a)
		}
	}
	return out
}

// ResetLog discards the recorded accesses.
func (m *Mock) ResetLog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = nil
}

func (m *Mock) ReadRegs(ctx context.Context, addr uint16, p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range p {
		a := addr + uint16(i)
		if m.failRead || m.readAt[a] {
			return ErrMock("mock: read failure configured")
		}
	}
	for i := range p {
		a := addr + uint16(i)
		p[i] = m.regs[a]
		m.log = append(m.log, Access{Addr: a, Val: p[i]})
	}
	return nil
}

func (m *Mock) WriteRegs(ctx context.Context, addr uint16, p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range p {
		a := addr + uint16(i)
		if m.failWrite || m.writeAt[a] {
			return ErrMock("mock: write failure configured")
		}
	}
	set := func(a uint16, v byte) { m.regs[a] = v }
	for i, v := range p {
		a := addr + uint16(i)
		m.regs[a] = v
		m.log = append(m.log, Access{Write: true, Addr: a, Val: v})
		if m.onWrite != nil {
			m.onWrite(a, v, set)
		}
	}
	return nil
}

// MockError is returned by the Mock when a failure is injected.
type MockError struct {
	msg string
}

func (e MockError) Error() string { return e.msg }

// ErrMock creates a new injected mock error.
func ErrMock(msg string) error { return MockError{msg: msg} }
