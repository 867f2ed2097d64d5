// Package insts provides the instruction set driven into the core under
// verification.
//
// The core implements an RV32I integer subset:
//   - Register-register ALU: ADD, SUB, SLL, SLT, SLTU, XOR, SRL, SRA, OR, AND
//   - Register-immediate ALU: ADDI, SLTI, SLTIU, XORI, ORI, ANDI, SLLI, SRLI, SRAI
//   - Upper immediate: LUI
//   - Load: LW
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x02A08093) // ADDI x1, x1, 42
//	fmt.Println(inst)
//
//	gen := insts.NewGenerator(1)
//	word := gen.Next().Word
package insts

import "fmt"

// NumRegs is the number of integer registers. Register 0 always reads as 0.
const NumRegs = 32

// Op represents an opcode.
type Op uint8

// Opcodes.
const (
	OpUnknown Op = iota
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI
	OpLUI
	OpLW
)

var opNames = map[Op]string{
	OpUnknown: "unknown",
	OpADD:     "add",
	OpSUB:     "sub",
	OpSLL:     "sll",
	OpSLT:     "slt",
	OpSLTU:    "sltu",
	OpXOR:     "xor",
	OpSRL:     "srl",
	OpSRA:     "sra",
	OpOR:      "or",
	OpAND:     "and",
	OpADDI:    "addi",
	OpSLTI:    "slti",
	OpSLTIU:   "sltiu",
	OpXORI:    "xori",
	OpORI:     "ori",
	OpANDI:    "andi",
	OpSLLI:    "slli",
	OpSRLI:    "srli",
	OpSRAI:    "srai",
	OpLUI:     "lui",
	OpLW:      "lw",
}

func (o Op) String() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR              // Register-register
	FormatI              // Register-immediate, including shifts by immediate
	FormatU              // Upper immediate
	FormatLoad           // I-type load
)

// Major opcodes, bits [6:0].
const (
	opcodeOp     = 0b0110011
	opcodeOpImm  = 0b0010011
	opcodeLUI    = 0b0110111
	opcodeLoad   = 0b0000011
	funct7Alt    = 0b0100000
	funct3LW     = 0b010
	immMin       = -2048
	immMax       = 2047
	shamtMax     = 31
	upperImmMask = 0xFFFFF000
)

// Instruction represents a decoded instruction.
type Instruction struct {
	Op     Op     // Operation code
	Format Format // Encoding format

	Rd  uint8 // Destination register
	Rs1 uint8 // First source register
	Rs2 uint8 // Second source register (FormatR only)

	// Imm is the sign-extended immediate. For shifts it is the shift amount,
	// for LUI it is the value placed in Rd (low 12 bits zero).
	Imm int32

	// Word is the 32-bit encoding.
	Word uint32
}

// WritesRd reports whether the instruction updates its destination register.
func (i *Instruction) WritesRd() bool {
	return i.Op != OpUnknown && i.Rd != 0
}

// IsLoad reports whether the instruction accesses data memory.
func (i *Instruction) IsLoad() bool {
	return i.Format == FormatLoad
}

func (i *Instruction) String() string {
	switch i.Format {
	case FormatR:
		return fmt.Sprintf("%s x%d, x%d, x%d", i.Op, i.Rd, i.Rs1, i.Rs2)
	case FormatI:
		return fmt.Sprintf("%s x%d, x%d, %d", i.Op, i.Rd, i.Rs1, i.Imm)
	case FormatU:
		return fmt.Sprintf("%s x%d, 0x%x", i.Op, i.Rd, uint32(i.Imm)>>12)
	case FormatLoad:
		return fmt.Sprintf("%s x%d, %d(x%d)", i.Op, i.Rd, i.Imm, i.Rs1)
	default:
		return fmt.Sprintf("unknown 0x%08x", i.Word)
	}
}
