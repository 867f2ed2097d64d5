// Package latency provides the execute-stage timing of the core under
// verification.
package latency

import (
	"github.com/sarchlab/coreverif/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the number of cycles inst spends in the execute stage.
func (t *Table) GetLatency(inst *insts.Instruction) uint64 {
	if inst == nil {
		return 1
	}

	switch inst.Op {
	case insts.OpSLL, insts.OpSRL, insts.OpSRA,
		insts.OpSLLI, insts.OpSRLI, insts.OpSRAI:
		return t.config.ShiftLatency

	case insts.OpLW:
		return t.config.LoadLatency

	case insts.OpUnknown:
		return 1

	default:
		return t.config.ALULatency
	}
}

// IsLoadOp returns true if the instruction is a load operation.
func (t *Table) IsLoadOp(inst *insts.Instruction) bool {
	return inst != nil && inst.IsLoad()
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
