//go:build linux

package regmap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"
)

const (
	i2cRdwrIOCTL = 0x0707 // I2C_RDWR ioctl: combined write+read with REPEATED START
	i2cMsgRD     = 0x0001 // i2c_msg flag: read direction
	maxOpsPerSec = 2000
)

// i2cMsg mirrors struct i2c_msg from linux/i2c.h
type i2cMsg struct {
	addr   uint16
	flags  uint16
	length uint16
	_pad   uint16 // struct alignment
	buf    uintptr
}

// i2cRdwr mirrors struct i2c_rdwr_ioctl_data from linux/i2c-dev.h
type i2cRdwr struct {
	msgs  uintptr
	nmsgs uint32
}

// I2CDev is a Bus over a Linux i2c-dev character device. Register
// addresses are sent big-endian as two bytes ahead of the data.
type I2CDev struct {
	mu      sync.Mutex
	path    string
	addr    uint16 // 7-bit slave address
	fd      int
	limiter *rate.Limiter
}

// NewI2CDev creates a Bus for the slave at addr on the i2c-dev node path
// (for example /dev/i2c-1). Open must be called before use.
func NewI2CDev(path string, addr uint16) *I2CDev {
	return &I2CDev{
		path:    path,
		addr:    addr,
		fd:      -1,
		limiter: rate.NewLimiter(rate.Limit(maxOpsPerSec), 16),
	}
}

// Open opens the character device.
func (d *I2CDev) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fd >= 0 {
		return nil
	}
	fd, err := unix.Open(d.path, unix.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("i2c: open %s: %w", d.path, err)
	}
	d.fd = fd
	slog.Debug("i2c: opened", "path", d.path, "addr", fmt.Sprintf("0x%02x", d.addr))
	return nil
}

// Close releases the file descriptor.
func (d *I2CDev) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}

func (d *I2CDev) ReadRegs(ctx context.Context, addr uint16, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fd < 0 {
		return errors.New("i2c: device not open")
	}

	wbuf := [2]byte{byte(addr >> 8), byte(addr)}
	msgs := [2]i2cMsg{
		{addr: d.addr, flags: 0, length: 2, buf: uintptr(unsafe.Pointer(&wbuf[0]))},
		{addr: d.addr, flags: i2cMsgRD, length: uint16(len(p)), buf: uintptr(unsafe.Pointer(&p[0]))},
	}
	return d.rdwr(msgs[:])
}

func (d *I2CDev) WriteRegs(ctx context.Context, addr uint16, p []byte) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fd < 0 {
		return errors.New("i2c: device not open")
	}

	wbuf := make([]byte, 0, 2+len(p))
	wbuf = append(wbuf, byte(addr>>8), byte(addr))
	wbuf = append(wbuf, p...)
	msgs := [1]i2cMsg{
		{addr: d.addr, flags: 0, length: uint16(len(wbuf)), buf: uintptr(unsafe.Pointer(&wbuf[0]))},
	}
	return d.rdwr(msgs[:])
}

func (d *I2CDev) rdwr(msgs []i2cMsg) error {
	rdwr := i2cRdwr{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: uint32(len(msgs))}
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), i2cRdwrIOCTL, uintptr(unsafe.Pointer(&rdwr))); errno != 0 {
		return fmt.Errorf("i2c: I2C_RDWR 0x%02x: %w", d.addr, errno)
	}
	return nil
}
