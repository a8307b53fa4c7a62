package lcdb

import (
	"errors"
	"fmt"
	"strings"
)

// Rail identifies one of the three regulated outputs.
type Rail int

const (
	BST Rail = iota // boost converter
	LDO             // positive linear regulator
	NCP             // inverting charge pump
)

var railNames = [...]string{BST: "bst", LDO: "ldo", NCP: "ncp"}

func (r Rail) String() string {
	if r < 0 || int(r) >= len(railNames) {
		return fmt.Sprintf("rail(%d)", int(r))
	}
	return railNames[r]
}

// ParseRail parses "bst", "ldo" or "ncp" (case-insensitive).
func ParseRail(s string) (Rail, error) {
	for i, n := range railNames {
		if strings.EqualFold(s, n) {
			return Rail(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRail, s)
}

// Physical bounds.
const (
	MinBSTVoltageMV = 4700
	MaxBSTVoltageMV = 6250
	MinVoltageMV    = 4000 // LDO and NCP
	MaxVoltageMV    = 6000

	MinBSTIlimMA  = 200
	MaxBSTIlimMA  = 1600
	MinLDOIlimMA  = 110
	MaxLDOIlimMA  = 460
	LDOIlimStepMA = 50
	MinNCPIlimMA  = 260
	MaxNCPIlimMA  = 810

	MinBSTPSMA = 50
	MaxBSTPSMA = 80

	MinSoftStartUS = 0
	MaxSoftStartUS = 2000

	MinATTWMS = 4
	MaxATTWMS = 32
)

// RailConfig holds the static parameters of one rail. Nil fields are
// unset and leave the hardware default untouched.
type RailConfig struct {
	// Name is the regulator name exposed to consumers. Required for LDO
	// and NCP.
	Name             string `yaml:"name"`
	PullDown         *bool  `yaml:"pd"`
	PullDownStrength *bool  `yaml:"pd-strength"` // true = strong
	IlimMA           *int   `yaml:"ilim-ma"`
	SoftStartUS      *int   `yaml:"soft-start-us"`
	VoltageMV        *int   `yaml:"voltage-mv"`
}

// BoostConfig extends RailConfig with the boost power-save controls.
type BoostConfig struct {
	RailConfig    `yaml:",inline"`
	PowerSave     *bool `yaml:"ps"`
	PSThresholdMA *int  `yaml:"ps-threshold-ma"`
}

// Config is the complete, typed device configuration.
type Config struct {
	Base                uint16      `yaml:"base"`
	ForceModuleReenable bool        `yaml:"force-module-reenable"`
	TTWEnable           bool        `yaml:"ttw-enable"`
	TTWModeSW           bool        `yaml:"ttw-mode-sw"`
	ATTWToffMS          *int        `yaml:"attw-toff-ms"`
	ATTWTonMS           *int        `yaml:"attw-ton-ms"`
	ParentSupply        bool        `yaml:"parent-supply"`
	BST                 BoostConfig `yaml:"bst"`
	LDO                 RailConfig  `yaml:"ldo"`
	NCP                 RailConfig  `yaml:"ncp"`
}

// Validate checks every configured value against its rail's bounds. Any
// failure rejects the whole device.
func (c *Config) Validate() error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	opt := func(what string, v *int, min, max int) {
		if v != nil {
			add(checkRange(what, *v, min, max))
		}
	}

	opt("bst voltage_mv", c.BST.VoltageMV, MinBSTVoltageMV, MaxBSTVoltageMV)
	opt("bst ilim_ma", c.BST.IlimMA, MinBSTIlimMA, MaxBSTIlimMA)
	opt("bst ps_threshold_ma", c.BST.PSThresholdMA, MinBSTPSMA, MaxBSTPSMA)
	opt("bst soft_start_us", c.BST.SoftStartUS, MinSoftStartUS, MaxSoftStartUS)

	opt("ldo voltage_mv", c.LDO.VoltageMV, MinVoltageMV, MaxVoltageMV)
	opt("ldo ilim_ma", c.LDO.IlimMA, MinLDOIlimMA, MaxLDOIlimMA)
	opt("ldo soft_start_us", c.LDO.SoftStartUS, MinSoftStartUS, MaxSoftStartUS)

	opt("ncp voltage_mv", c.NCP.VoltageMV, MinVoltageMV, MaxVoltageMV)
	opt("ncp ilim_ma", c.NCP.IlimMA, MinNCPIlimMA, MaxNCPIlimMA)
	opt("ncp soft_start_us", c.NCP.SoftStartUS, MinSoftStartUS, MaxSoftStartUS)

	if c.LDO.Name == "" {
		add(fmt.Errorf("%w: ldo regulator name missing", ErrConfig))
	}
	if c.NCP.Name == "" {
		add(fmt.Errorf("%w: ncp regulator name missing", ErrConfig))
	}
	if c.LDO.Name != "" && c.LDO.Name == c.NCP.Name {
		add(fmt.Errorf("%w: ldo and ncp share regulator name %q", ErrConfig, c.LDO.Name))
	}

	if c.TTWEnable && c.TTWModeSW {
		_, err := c.attwTiming()
		add(err)
	}
	return errors.Join(errs...)
}

// attwTiming returns the packed TOFF/TON fields for software-timed TTW.
func (c *Config) attwTiming() (byte, error) {
	if c.ATTWToffMS == nil {
		return 0, fmt.Errorf("%w: attw-toff-ms not specified for TTW SW mode", ErrConfig)
	}
	if c.ATTWTonMS == nil {
		return 0, fmt.Errorf("%w: attw-ton-ms not specified for TTW SW mode", ErrConfig)
	}
	return EncodeATTW(*c.ATTWToffMS, *c.ATTWTonMS)
}
