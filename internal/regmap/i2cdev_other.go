//go:build !linux

package regmap

import (
	"context"
	"errors"
)

var errNoI2CDev = errors.New("i2c: i2c-dev is only available on linux")

// I2CDev is unavailable outside linux; use Periph instead.
type I2CDev struct{}

func NewI2CDev(path string, addr uint16) *I2CDev { return &I2CDev{} }

func (d *I2CDev) Open() error  { return errNoI2CDev }
func (d *I2CDev) Close() error { return nil }

func (d *I2CDev) ReadRegs(ctx context.Context, addr uint16, p []byte) error  { return errNoI2CDev }
func (d *I2CDev) WriteRegs(ctx context.Context, addr uint16, p []byte) error { return errNoI2CDev }
