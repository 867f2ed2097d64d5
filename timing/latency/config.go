package latency

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// TimingConfig holds the stage latencies of the core under verification.
// Changing them changes when retirements happen on the bus, never what the
// core computes.
type TimingConfig struct {
	// ALULatency is the number of cycles an ALU operation spends in the
	// execute stage. Default: 1 cycle.
	ALULatency uint64 `json:"alu_latency"`

	// ShiftLatency is the execute latency of shifts. Default: 1 cycle.
	ShiftLatency uint64 `json:"shift_latency"`

	// LoadLatency is the address generation latency of loads, before the
	// data request goes out. Default: 1 cycle.
	LoadLatency uint64 `json:"load_latency"`

	// DataCache puts a tag-only L1 data cache in front of the data bus.
	// Hits and misses add their latency before the data request.
	DataCache bool `json:"data_cache"`

	// L1HitLatency is the data cache hit latency. Default: 1 cycle.
	L1HitLatency uint64 `json:"l1_hit_latency"`

	// L1MissLatency is the data cache miss latency. Default: 6 cycles.
	L1MissLatency uint64 `json:"l1_miss_latency"`
}

// DefaultTimingConfig returns a TimingConfig for a simple in-order core.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ALULatency:    1,
		ShiftLatency:  1,
		LoadLatency:   1,
		DataCache:     false,
		L1HitLatency:  1,
		L1MissLatency: 6,
	}
}

// LoadConfig loads a TimingConfig from a JSON file. Fields missing from the
// file keep their defaults.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read timing config file")
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "failed to parse timing config")
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to serialize timing config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write timing config file")
	}

	return nil
}

// Validate checks that all latency values are valid (> 0).
func (c *TimingConfig) Validate() error {
	if c.ALULatency == 0 {
		return errors.New("alu_latency must be > 0")
	}
	if c.ShiftLatency == 0 {
		return errors.New("shift_latency must be > 0")
	}
	if c.LoadLatency == 0 {
		return errors.New("load_latency must be > 0")
	}
	if c.DataCache && c.L1HitLatency > c.L1MissLatency {
		return errors.New("l1_hit_latency must be <= l1_miss_latency")
	}
	return nil
}

// Clone returns a copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
