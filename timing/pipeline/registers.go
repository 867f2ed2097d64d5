// Package pipeline provides the 5-stage pipeline of the core under
// verification.
package pipeline

import "github.com/sarchlab/coreverif/insts"

// IFIDRegister holds state between Fetch and Decode stages.
type IFIDRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program counter of the fetched instruction.
	PC uint32

	// InstructionWord is the raw 32-bit instruction word.
	InstructionWord uint32
}

// Clear resets the IF/ID register to empty state.
func (r *IFIDRegister) Clear() {
	*r = IFIDRegister{}
}

// IDEXRegister holds state between Decode and Execute stages.
type IDEXRegister struct {
	Valid bool
	PC    uint32

	// Inst is the decoded instruction.
	Inst *insts.Instruction

	// Register values read from the register file.
	Rs1Value uint32
	Rs2Value uint32

	Rd uint8

	// Control signals.
	MemRead  bool // True for load instructions
	RegWrite bool // True if instruction writes to register
	MemToReg bool // True if result comes from memory (load)
}

// Clear resets the ID/EX register to empty state.
func (r *IDEXRegister) Clear() {
	*r = IDEXRegister{}
}

// EXMEMRegister holds state between Execute and Memory stages.
type EXMEMRegister struct {
	Valid bool
	PC    uint32
	Inst  *insts.Instruction

	// ALU result (address for loads, result for ALU ops).
	ALUResult uint32

	Rd uint8

	MemRead  bool
	RegWrite bool
	MemToReg bool
}

// Clear resets the EX/MEM register to empty state.
func (r *EXMEMRegister) Clear() {
	*r = EXMEMRegister{}
}

// MEMWBRegister holds state between Memory and Writeback stages.
type MEMWBRegister struct {
	Valid bool
	PC    uint32
	Inst  *insts.Instruction

	ALUResult uint32

	// Data read from the data bus (for load instructions).
	MemData uint32

	Rd uint8

	RegWrite bool
	MemToReg bool // True if result comes from memory
}

// Clear resets the MEM/WB register to empty state.
func (r *MEMWBRegister) Clear() {
	*r = MEMWBRegister{}
}

// Result returns the value written back.
func (r *MEMWBRegister) Result() uint32 {
	if r.MemToReg {
		return r.MemData
	}
	return r.ALUResult
}
