package emu

import "github.com/sarchlab/coreverif/insts"

// DataMemory is the data side of the memory bus.
type DataMemory interface {
	Read32(addr uint32) uint32
}

// EchoMemory answers every read with the requested address. It is the
// memory stub the bus functional model puts on the data bus.
type EchoMemory struct{}

// Read32 returns addr.
func (EchoMemory) Read32(addr uint32) uint32 {
	return addr
}

// LoadStoreUnit implements load operations.
type LoadStoreUnit struct {
	regFile *RegFile
	memory  DataMemory
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and memory.
func NewLoadStoreUnit(regFile *RegFile, memory DataMemory) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		memory:  memory,
	}
}

// Address returns the effective address rs1 + imm.
func (lsu *LoadStoreUnit) Address(inst *insts.Instruction) uint32 {
	return lsu.regFile.ReadReg(inst.Rs1) + uint32(inst.Imm)
}

// LW performs a 32-bit load: rd = mem[rs1 + imm]
func (lsu *LoadStoreUnit) LW(inst *insts.Instruction) {
	value := lsu.memory.Read32(lsu.Address(inst))
	lsu.regFile.WriteReg(inst.Rd, value)
}
