package emu

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/sarchlab/coreverif/insts"
)

// State is the architectural state observed after an instruction retires:
// the register file and the program counter. It is a value type; two states
// are equal exactly when every register and the PC are equal.
type State struct {
	Regs [insts.NumRegs]uint32
	PC   uint32
}

// StateFromUints builds a State from sampled plain integers. Values are
// truncated to 32 bits.
func StateFromUints(regs []uint64, pc uint64) (State, error) {
	var s State

	if len(regs) != insts.NumRegs {
		return s, errors.Errorf(
			"register file has %d entries, want %d", len(regs), insts.NumRegs)
	}

	for i, v := range regs {
		s.Regs[i] = uint32(v)
	}
	s.PC = uint32(pc)

	return s, nil
}

// WithReg returns a copy of s with register reg set to v.
func (s State) WithReg(reg int, v uint32) State {
	s.Regs[reg] = v
	return s
}

func (s State) String() string {
	return fmt.Sprintf("pc=0x%08x regs=%08x", s.PC, s.Regs)
}

// FieldDiff is one field that differs between a predicted and an actual
// state.
type FieldDiff struct {
	Field     string
	Predicted uint32
	Actual    uint32
}

func (d FieldDiff) String() string {
	return fmt.Sprintf("%s: predicted 0x%08x, actual 0x%08x",
		d.Field, d.Predicted, d.Actual)
}

// Diff lists the fields that differ, registers first in index order, then
// the PC. It returns nil for equal states.
func Diff(predicted, actual State) []FieldDiff {
	var diffs []FieldDiff

	for i := range predicted.Regs {
		if predicted.Regs[i] != actual.Regs[i] {
			diffs = append(diffs, FieldDiff{
				Field:     fmt.Sprintf("x%d", i),
				Predicted: predicted.Regs[i],
				Actual:    actual.Regs[i],
			})
		}
	}

	if predicted.PC != actual.PC {
		diffs = append(diffs, FieldDiff{
			Field:     "pc",
			Predicted: predicted.PC,
			Actual:    actual.PC,
		})
	}

	return diffs
}
