// Package emu provides the functional reference model of the core.
package emu

import "github.com/sarchlab/coreverif/insts"

// RegFile represents the architectural register file.
// It contains 32 general-purpose registers (x0-x31) and the program counter.
type RegFile struct {
	// X holds general-purpose registers. X[0] is hardwired to zero.
	X [insts.NumRegs]uint32

	// PC is the program counter.
	PC uint32
}

// ReadReg reads a register value. Register 0 and out-of-range registers
// read as 0.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	if reg == 0 || reg >= insts.NumRegs {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes a value to a register. Writes to register 0 are ignored.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	if reg == 0 || reg >= insts.NumRegs {
		return
	}
	r.X[reg] = value
}

// State returns a snapshot of the register file.
func (r *RegFile) State() State {
	return State{Regs: r.X, PC: r.PC}
}
