package insts

// Decoder decodes machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit instruction word. Words outside the supported
// subset decode to OpUnknown with FormatUnknown.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{Op: OpUnknown, Format: FormatUnknown, Word: word}

	switch word & 0x7F { // bits [6:0]
	case opcodeOp:
		d.decodeOp(word, inst)
	case opcodeOpImm:
		d.decodeOpImm(word, inst)
	case opcodeLUI:
		d.decodeLUI(word, inst)
	case opcodeLoad:
		d.decodeLoad(word, inst)
	}

	return inst
}

func fields(word uint32) (rd, funct3, rs1, rs2, funct7 uint32) {
	rd = (word >> 7) & 0x1F     // bits [11:7]
	funct3 = (word >> 12) & 0x7 // bits [14:12]
	rs1 = (word >> 15) & 0x1F   // bits [19:15]
	rs2 = (word >> 20) & 0x1F   // bits [24:20]
	funct7 = (word >> 25)       // bits [31:25]
	return
}

// immI extracts the sign-extended I-type immediate, bits [31:20].
func immI(word uint32) int32 {
	return int32(word) >> 20
}

// decodeOp decodes register-register ALU instructions.
// Format: funct7 | rs2 | rs1 | funct3 | rd | 0110011
func (d *Decoder) decodeOp(word uint32, inst *Instruction) {
	rd, funct3, rs1, rs2, funct7 := fields(word)

	var op Op
	switch {
	case funct7 == 0:
		op = [...]Op{OpADD, OpSLL, OpSLT, OpSLTU, OpXOR, OpSRL, OpOR, OpAND}[funct3]
	case funct7 == funct7Alt && funct3 == 0b000:
		op = OpSUB
	case funct7 == funct7Alt && funct3 == 0b101:
		op = OpSRA
	default:
		return
	}

	inst.Op = op
	inst.Format = FormatR
	inst.Rd = uint8(rd)
	inst.Rs1 = uint8(rs1)
	inst.Rs2 = uint8(rs2)
}

// decodeOpImm decodes register-immediate ALU instructions.
// Format: imm[11:0] | rs1 | funct3 | rd | 0010011
// Shifts: funct7 | shamt | rs1 | funct3 | rd | 0010011
func (d *Decoder) decodeOpImm(word uint32, inst *Instruction) {
	rd, funct3, rs1, shamt, funct7 := fields(word)
	imm := immI(word)

	var op Op
	switch funct3 {
	case 0b000:
		op = OpADDI
	case 0b010:
		op = OpSLTI
	case 0b011:
		op = OpSLTIU
	case 0b100:
		op = OpXORI
	case 0b110:
		op = OpORI
	case 0b111:
		op = OpANDI
	case 0b001:
		if funct7 != 0 {
			return
		}
		op, imm = OpSLLI, int32(shamt)
	case 0b101:
		switch funct7 {
		case 0:
			op = OpSRLI
		case funct7Alt:
			op = OpSRAI
		default:
			return
		}
		imm = int32(shamt)
	}

	inst.Op = op
	inst.Format = FormatI
	inst.Rd = uint8(rd)
	inst.Rs1 = uint8(rs1)
	inst.Imm = imm
}

// decodeLUI decodes LUI.
// Format: imm[31:12] | rd | 0110111
func (d *Decoder) decodeLUI(word uint32, inst *Instruction) {
	inst.Op = OpLUI
	inst.Format = FormatU
	inst.Rd = uint8((word >> 7) & 0x1F)
	inst.Imm = int32(word & upperImmMask)
}

// decodeLoad decodes LW. Other load widths are not part of the subset.
// Format: imm[11:0] | rs1 | 010 | rd | 0000011
func (d *Decoder) decodeLoad(word uint32, inst *Instruction) {
	rd, funct3, rs1, _, _ := fields(word)
	if funct3 != funct3LW {
		return
	}

	inst.Op = OpLW
	inst.Format = FormatLoad
	inst.Rd = uint8(rd)
	inst.Rs1 = uint8(rs1)
	inst.Imm = immI(word)
}
