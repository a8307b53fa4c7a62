// Package config loads the LCDB device configuration from YAML and
// watches it for runtime voltage changes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/micro-nova/lcdb-go/internal/lcdb"
)

// Load reads and validates the configuration file at path.
func Load(path string) (lcdb.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return lcdb.Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return lcdb.Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML document into a validated lcdb.Config. Unknown
// option names are rejected.
func Parse(data []byte) (lcdb.Config, error) {
	var cfg lcdb.Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return lcdb.Config{}, fmt.Errorf("%w: %v", lcdb.ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return lcdb.Config{}, err
	}
	return cfg, nil
}
