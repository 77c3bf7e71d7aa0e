// SPDX-License-Identifier: MIT

// Package config loads the YAML run description used by cmd/gcem.
//
// Values are layered: Default, then the YAML file, then GCEM_* environment
// variables; the result is checked with struct-tag validation.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/gcem/emulator"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Data names the CSV files of a run. Every file holds one row per run or
// candidate, without a header unless Header is set.
type Data struct {
	Inputs       string `yaml:"inputs" validate:"required"`
	Outputs      string `yaml:"outputs" validate:"required"`
	Candidates   string `yaml:"candidates" validate:"required"`
	Observations string `yaml:"observations"`
	Header       bool   `yaml:"header"`
}

// Config describes one emulation run.
type Config struct {
	Data Data `yaml:"data"`

	BatchSize      int       `yaml:"batch_size" validate:"gte=1"`
	Tolerance      float64   `yaml:"tolerance" validate:"gt=0"`
	Quorum         float64   `yaml:"quorum" validate:"gte=0,lte=1"`
	ActiveDims     []int     `yaml:"active_dims" validate:"omitempty,unique,dive,gte=0"`
	AutoActiveDims bool      `yaml:"auto_active_dims"`
	MaskThreshold  float64   `yaml:"mask_threshold" validate:"gte=0,lte=1"`
	MaxIterations  int       `yaml:"max_iterations" validate:"gte=1"`
	Device         int       `yaml:"device" validate:"gte=0,ltfield=Devices"`
	Devices        int       `yaml:"devices" validate:"gte=1"`
	LogObs         bool      `yaml:"log_observations"`
	ObsVariability []float64 `yaml:"obs_variability" validate:"omitempty,dive,gte=0"`
	StoreDir       string    `yaml:"store_dir"`
}

// Default returns the documented defaults; Data is left empty.
func Default() Config {
	return Config{
		BatchSize:     emulator.DefaultBatchSize,
		Tolerance:     emulator.DefaultTolerance,
		Quorum:        emulator.DefaultQuorum,
		MaskThreshold: emulator.DefaultMaskThreshold,
		MaxIterations: emulator.DefaultMaxIterations,
		Device:        emulator.DefaultDevice,
		Devices:       1,
	}
}

// Load reads path over Default, applies environment overrides and validates.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: Load: %w", err)
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: Load %s: %w", path, err)
	}
	if err = cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err = cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and cross-field rules.
// Errors: ErrInvalid wrapping the validator's field errors.
func (c Config) Validate() error {
	if err := c.checkFinite(); err != nil {
		return err
	}
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if len(c.ActiveDims) > 0 && c.AutoActiveDims {
		return fmt.Errorf("%w: active_dims and auto_active_dims are exclusive", ErrInvalid)
	}

	return nil
}

// checkFinite rejects NaN and Inf in the float parameters.
func (c Config) checkFinite() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"tolerance", c.Tolerance},
		{"quorum", c.Quorum},
		{"mask_threshold", c.MaskThreshold},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s is %g", ErrInvalid, f.name, f.v)
		}
	}
	for i, v := range c.ObsVariability {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: obs_variability[%d] is %g", ErrInvalid, i, v)
		}
	}

	return nil
}

// Options translates the run parameters into emulator options.
func (c Config) Options() []emulator.Option {
	opts := []emulator.Option{
		emulator.WithBatchSize(c.BatchSize),
		emulator.WithTolerance(c.Tolerance),
		emulator.WithQuorum(c.Quorum),
		emulator.WithDevice(c.Device),
		emulator.WithMaxIterations(c.MaxIterations),
	}
	switch {
	case len(c.ActiveDims) > 0:
		opts = append(opts, emulator.WithActiveDims(c.ActiveDims...))
	case c.AutoActiveDims:
		opts = append(opts, emulator.WithAutoActiveDims(c.MaskThreshold))
	}
	if c.LogObs {
		opts = append(opts, emulator.WithLogObservations())
	}
	if c.ObsVariability != nil {
		opts = append(opts, emulator.WithObsVariability(c.ObsVariability))
	}

	return opts
}

// applyEnv overrides scalar fields from GCEM_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	ints := map[string]*int{
		"GCEM_BATCH_SIZE":     &c.BatchSize,
		"GCEM_MAX_ITERATIONS": &c.MaxIterations,
		"GCEM_DEVICE":         &c.Device,
		"GCEM_DEVICES":        &c.Devices,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s=%q: %w", ErrInvalid, key, v, err)
			}
			*dst = n
		}
	}
	floats := map[string]*float64{
		"GCEM_TOLERANCE": &c.Tolerance,
		"GCEM_QUORUM":    &c.Quorum,
	}
	for key, dst := range floats {
		if v, ok := lookup(key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%w: %s=%q: %w", ErrInvalid, key, v, err)
			}
			*dst = f
		}
	}
	if v, ok := lookup("GCEM_STORE_DIR"); ok {
		c.StoreDir = v
	}

	return nil
}
