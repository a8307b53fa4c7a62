package lcdb

import (
	"errors"
	"fmt"
	"time"

	"github.com/micro-nova/lcdb-go/internal/regmap"
)

var (
	// ErrRegister matches any register transport failure (*regmap.Error).
	ErrRegister = regmap.ErrAccess

	// ErrRange matches every *RangeError.
	ErrRange = errors.New("lcdb: value out of range")

	// ErrTimeout matches every *TimeoutError.
	ErrTimeout = errors.New("lcdb: timed out waiting for vreg-ok")

	// ErrConfig is returned for structurally invalid configuration.
	ErrConfig = errors.New("lcdb: invalid configuration")

	// ErrUnknownRail is returned when a regulator lookup matches nothing.
	ErrUnknownRail = errors.New("lcdb: unknown rail")
)

// RangeError reports a value outside a rail's physical bounds. It is
// always returned before any register is written.
type RangeError struct {
	What  string
	Value int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("lcdb: invalid %s %d (min=%d max=%d)", e.What, e.Value, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error { return ErrRange }

func checkRange(what string, v, min, max int) error {
	if v < min || v > max {
		return &RangeError{What: what, Value: v, Min: min, Max: max}
	}
	return nil
}

// TimeoutError is returned when the output never reported stable during
// enable. Status holds the status registers captured afterwards.
type TimeoutError struct {
	Attempts int
	Budget   time.Duration
	Status   StatusDump
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("lcdb: vreg-ok not set after %d polls (%v apart): %s", e.Attempts, e.Budget, e.Status)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// StatusDump is a snapshot of STS1..STS6.
type StatusDump [6]byte

func (s StatusDump) String() string {
	return fmt.Sprintf("STS1=0x%02x STS2=0x%02x STS3=0x%02x STS4=0x%02x STS5=0x%02x STS6=0x%02x",
		s[0], s[1], s[2], s[3], s[4], s[5])
}
