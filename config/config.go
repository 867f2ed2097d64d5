// Package config holds the settings of a verification run.
package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/sarchlab/coreverif/timing/latency"
)

// Config configures one verification run.
type Config struct {
	// NumInstructions is the length of the random sequence. Default: 25.
	NumInstructions int `json:"num_instructions"`

	// Seed seeds the instruction generator.
	Seed uint64 `json:"seed"`

	// CreateErrors makes the scoreboard expect mismatches. A run then
	// passes only if at least one mismatch is detected.
	CreateErrors bool `json:"create_errors"`

	// PassiveResults leaves result collection to a result monitor instead
	// of the driver.
	PassiveResults bool `json:"passive_results"`

	// ResetCycles is how many falling edges rst is held. Default: 10.
	ResetCycles int `json:"reset_cycles"`

	// SettleCycles is how many falling edges the BFM waits between seeing a
	// retirement and sampling the state. Default: 1.
	SettleCycles int `json:"settle_cycles"`

	// StallLimit is the number of idle falling edges after which the run
	// fails. Default: 1000.
	StallLimit int `json:"stall_limit"`

	// ClockMHz is the simulated clock frequency. Default: 100.
	ClockMHz float64 `json:"clock_mhz"`

	// MaxCycles bounds the simulation. Default: 1,000,000.
	MaxCycles uint64 `json:"max_cycles"`

	// ProgramPath is the directed program run by core_program_test.
	ProgramPath string `json:"program_path,omitempty"`

	// RecordPath is the sqlite database comparisons are recorded to. Empty
	// disables recording.
	RecordPath string `json:"record_path,omitempty"`

	// Verbose enables debug logging of every monitored value.
	Verbose bool `json:"verbose"`

	// Timing configures the core's stage latencies.
	Timing *latency.TimingConfig `json:"timing"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		NumInstructions: 25,
		Seed:            1,
		ResetCycles:     10,
		SettleCycles:    1,
		StallLimit:      1000,
		ClockMHz:        100,
		MaxCycles:       1_000_000,
		Timing:          latency.DefaultTimingConfig(),
	}
}

// Load reads a JSON configuration. Fields missing from the file keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	c := Default()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}

	if c.Timing == nil {
		c.Timing = latency.DefaultTimingConfig()
	}

	return c, nil
}

// Save writes the configuration as JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to serialize config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// Validate rejects settings the harness cannot run with.
func (c *Config) Validate() error {
	if c.NumInstructions <= 0 {
		return errors.New("num_instructions must be > 0")
	}
	if c.ResetCycles <= 0 {
		return errors.New("reset_cycles must be > 0")
	}
	if c.SettleCycles <= 0 {
		return errors.New("settle_cycles must be > 0")
	}
	if c.StallLimit <= 0 {
		return errors.New("stall_limit must be > 0")
	}
	if c.ClockMHz <= 0 {
		return errors.New("clock_mhz must be > 0")
	}
	if c.MaxCycles == 0 {
		return errors.New("max_cycles must be > 0")
	}

	if c.Timing != nil {
		if err := c.Timing.Validate(); err != nil {
			return errors.Wrap(err, "timing")
		}
	}

	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Timing != nil {
		clone.Timing = c.Timing.Clone()
	}
	return &clone
}
