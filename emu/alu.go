package emu

import "github.com/sarchlab/coreverif/insts"

// ALU implements the integer arithmetic and logic operations.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// ExecuteReg performs a register-register operation: rd = rs1 op rs2.
func (a *ALU) ExecuteReg(inst *insts.Instruction) {
	op1 := a.regFile.ReadReg(inst.Rs1)
	op2 := a.regFile.ReadReg(inst.Rs2)
	a.regFile.WriteReg(inst.Rd, Compute(inst.Op, op1, op2))
}

// ExecuteImm performs a register-immediate operation: rd = rs1 op imm.
func (a *ALU) ExecuteImm(inst *insts.Instruction) {
	op1 := a.regFile.ReadReg(inst.Rs1)
	a.regFile.WriteReg(inst.Rd, Compute(inst.Op, op1, uint32(inst.Imm)))
}

// ExecuteUpper performs LUI: rd = imm.
func (a *ALU) ExecuteUpper(inst *insts.Instruction) {
	a.regFile.WriteReg(inst.Rd, uint32(inst.Imm))
}

// Compute returns op applied to the two operands. Shifts use the low five
// bits of b. Unknown operations yield 0.
func Compute(op insts.Op, a, b uint32) uint32 {
	switch op {
	case insts.OpADD, insts.OpADDI:
		return a + b
	case insts.OpSUB:
		return a - b
	case insts.OpSLL, insts.OpSLLI:
		return a << (b & 0x1F)
	case insts.OpSRL, insts.OpSRLI:
		return a >> (b & 0x1F)
	case insts.OpSRA, insts.OpSRAI:
		return uint32(int32(a) >> (b & 0x1F))
	case insts.OpSLT, insts.OpSLTI:
		return boolToWord(int32(a) < int32(b))
	case insts.OpSLTU, insts.OpSLTIU:
		return boolToWord(a < b)
	case insts.OpXOR, insts.OpXORI:
		return a ^ b
	case insts.OpOR, insts.OpORI:
		return a | b
	case insts.OpAND, insts.OpANDI:
		return a & b
	}
	return 0
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
