package regmap

import (
	"context"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Periph is a Bus over a periph.io I2C bus.
type Periph struct {
	bus i2c.BusCloser
	dev *i2c.Dev
}

// OpenPeriph initializes the periph.io host drivers and opens the named
// I2C bus ("" selects the first one available).
func OpenPeriph(name string, addr uint16) (*Periph, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph: host init: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("periph: open i2c bus %q: %w", name, err)
	}
	slog.Debug("periph: i2c bus opened", "bus", bus.String(), "addr", fmt.Sprintf("0x%02x", addr))
	return &Periph{bus: bus, dev: &i2c.Dev{Bus: bus, Addr: addr}}, nil
}

func (p *Periph) ReadRegs(ctx context.Context, addr uint16, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.dev.Tx([]byte{byte(addr >> 8), byte(addr)}, buf)
}

func (p *Periph) WriteRegs(ctx context.Context, addr uint16, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w := make([]byte, 0, 2+len(buf))
	w = append(w, byte(addr>>8), byte(addr))
	w = append(w, buf...)
	return p.dev.Tx(w, nil)
}

// Close closes the underlying bus.
func (p *Periph) Close() error { return p.bus.Close() }
