package insts

import "github.com/pkg/errors"

// ErrInvalidInstruction is returned when operands violate the encoding rules.
var ErrInvalidInstruction = errors.New("invalid instruction")

type encoding struct {
	format Format
	opcode uint32
	funct3 uint32
	funct7 uint32
}

var encodings = map[Op]encoding{
	OpADD:   {FormatR, opcodeOp, 0b000, 0},
	OpSUB:   {FormatR, opcodeOp, 0b000, funct7Alt},
	OpSLL:   {FormatR, opcodeOp, 0b001, 0},
	OpSLT:   {FormatR, opcodeOp, 0b010, 0},
	OpSLTU:  {FormatR, opcodeOp, 0b011, 0},
	OpXOR:   {FormatR, opcodeOp, 0b100, 0},
	OpSRL:   {FormatR, opcodeOp, 0b101, 0},
	OpSRA:   {FormatR, opcodeOp, 0b101, funct7Alt},
	OpOR:    {FormatR, opcodeOp, 0b110, 0},
	OpAND:   {FormatR, opcodeOp, 0b111, 0},
	OpADDI:  {FormatI, opcodeOpImm, 0b000, 0},
	OpSLTI:  {FormatI, opcodeOpImm, 0b010, 0},
	OpSLTIU: {FormatI, opcodeOpImm, 0b011, 0},
	OpXORI:  {FormatI, opcodeOpImm, 0b100, 0},
	OpORI:   {FormatI, opcodeOpImm, 0b110, 0},
	OpANDI:  {FormatI, opcodeOpImm, 0b111, 0},
	OpSLLI:  {FormatI, opcodeOpImm, 0b001, 0},
	OpSRLI:  {FormatI, opcodeOpImm, 0b101, 0},
	OpSRAI:  {FormatI, opcodeOpImm, 0b101, funct7Alt},
	OpLUI:   {FormatU, opcodeLUI, 0, 0},
	OpLW:    {FormatLoad, opcodeLoad, funct3LW, 0},
}

// IsShiftImm reports whether op is a shift by an immediate amount.
func IsShiftImm(op Op) bool {
	return op == OpSLLI || op == OpSRLI || op == OpSRAI
}

// FormatOf returns the encoding format of op.
func FormatOf(op Op) Format {
	return encodings[op].format
}

// Encode builds an instruction from its operands. Operands that the format
// does not use are ignored. For LUI, imm is the value written to rd and must
// have its low 12 bits clear.
func Encode(op Op, rd, rs1, rs2 uint8, imm int32) (*Instruction, error) {
	enc, ok := encodings[op]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidInstruction, "unsupported op %v", op)
	}

	if rd >= NumRegs || rs1 >= NumRegs || rs2 >= NumRegs {
		return nil, errors.Wrapf(ErrInvalidInstruction,
			"%v: register out of range (rd=%d rs1=%d rs2=%d)", op, rd, rs1, rs2)
	}

	inst := &Instruction{Op: op, Format: enc.format, Rd: rd}
	word := enc.opcode | uint32(rd)<<7

	switch enc.format {
	case FormatR:
		inst.Rs1, inst.Rs2 = rs1, rs2
		word |= enc.funct3<<12 | uint32(rs1)<<15 | uint32(rs2)<<20 | enc.funct7<<25
	case FormatI, FormatLoad:
		if err := checkImm(op, imm); err != nil {
			return nil, err
		}
		inst.Rs1, inst.Imm = rs1, imm
		immBits := uint32(imm) & 0xFFF
		if IsShiftImm(op) {
			immBits = uint32(imm) | enc.funct7<<5
		}
		word |= enc.funct3<<12 | uint32(rs1)<<15 | immBits<<20
	case FormatU:
		if uint32(imm)&^upperImmMask != 0 {
			return nil, errors.Wrapf(ErrInvalidInstruction,
				"%v: immediate 0x%x has low bits set", op, uint32(imm))
		}
		inst.Imm = imm
		word |= uint32(imm)
	}

	inst.Word = word

	return inst, nil
}

// MustEncode is Encode for operands known to be valid. It panics otherwise.
func MustEncode(op Op, rd, rs1, rs2 uint8, imm int32) *Instruction {
	inst, err := Encode(op, rd, rs1, rs2, imm)
	if err != nil {
		panic(err)
	}
	return inst
}

func checkImm(op Op, imm int32) error {
	if IsShiftImm(op) {
		if imm < 0 || imm > shamtMax {
			return errors.Wrapf(ErrInvalidInstruction,
				"%v: shift amount %d out of range", op, imm)
		}
		return nil
	}

	if imm < immMin || imm > immMax {
		return errors.Wrapf(ErrInvalidInstruction,
			"%v: immediate %d out of range", op, imm)
	}

	return nil
}
