package pipeline

import (
	"github.com/sarchlab/coreverif/emu"
	"github.com/sarchlab/coreverif/insts"
	"github.com/sarchlab/coreverif/timing/cache"
)

// DecodeStage handles instruction decode and register read.
type DecodeStage struct {
	regFile *emu.RegFile
	decoder *insts.Decoder
}

// NewDecodeStage creates a new decode stage.
func NewDecodeStage(regFile *emu.RegFile) *DecodeStage {
	return &DecodeStage{
		regFile: regFile,
		decoder: insts.NewDecoder(),
	}
}

// Decode decodes the instruction and reads register values. Unknown
// instructions flow through the pipeline as no-ops.
func (s *DecodeStage) Decode(word uint32, pc uint32) IDEXRegister {
	inst := s.decoder.Decode(word)

	return IDEXRegister{
		Valid:    true,
		PC:       pc,
		Inst:     inst,
		Rs1Value: s.regFile.ReadReg(inst.Rs1),
		Rs2Value: s.regFile.ReadReg(inst.Rs2),
		Rd:       inst.Rd,
		MemRead:  inst.IsLoad(),
		RegWrite: inst.WritesRd(),
		MemToReg: inst.IsLoad(),
	}
}

// ExecuteStage handles ALU operations and address calculation.
type ExecuteStage struct{}

// NewExecuteStage creates a new execute stage.
func NewExecuteStage() *ExecuteStage {
	return &ExecuteStage{}
}

// Execute returns the ALU result, or the effective address for loads.
func (s *ExecuteStage) Execute(idex *IDEXRegister) uint32 {
	inst := idex.Inst

	switch inst.Format {
	case insts.FormatR:
		return emu.Compute(inst.Op, idex.Rs1Value, idex.Rs2Value)
	case insts.FormatI:
		return emu.Compute(inst.Op, idex.Rs1Value, uint32(inst.Imm))
	case insts.FormatU:
		return uint32(inst.Imm)
	case insts.FormatLoad:
		return idex.Rs1Value + uint32(inst.Imm)
	}

	return 0
}

// MemoryStage runs the data bus handshake for loads: optional cache lookup
// latency, then data_req until data_valid arrives.
type MemoryStage struct {
	dcache *cache.Cache

	looked    bool
	wait      uint64
	requested bool
}

// NewMemoryStage creates a memory stage. dcache may be nil.
func NewMemoryStage(dcache *cache.Cache) *MemoryStage {
	return &MemoryStage{dcache: dcache}
}

// Access advances the instruction in EX/MEM by one cycle. It returns the
// loaded data and false once the access completed, or true while stalled.
func (s *MemoryStage) Access(
	exmem *EXMEMRegister,
	dataValid bool,
	rdata uint32,
) (uint32, bool) {
	if !exmem.MemRead {
		return 0, false
	}

	if s.dcache != nil && !s.looked {
		s.looked = true
		s.wait = s.dcache.Read(uint64(exmem.ALUResult)).Latency
	}

	if s.wait > 0 {
		s.wait--
		return 0, true
	}

	if !s.requested {
		s.requested = true
		return 0, true
	}

	if !dataValid {
		return 0, true
	}

	s.Reset()

	return rdata, false
}

// Requesting reports whether data_req is asserted.
func (s *MemoryStage) Requesting() bool {
	return s.requested
}

// Reset abandons any access in progress.
func (s *MemoryStage) Reset() {
	s.looked = false
	s.wait = 0
	s.requested = false
}

// Flush empties the data cache.
func (s *MemoryStage) Flush() {
	if s.dcache != nil {
		s.dcache.Reset()
	}
}

// CacheStats returns the data cache statistics, zero without a cache.
func (s *MemoryStage) CacheStats() cache.Statistics {
	if s.dcache == nil {
		return cache.Statistics{}
	}
	return s.dcache.Stats()
}

// WritebackStage handles writing results back to the register file.
type WritebackStage struct {
	regFile *emu.RegFile
}

// NewWritebackStage creates a new writeback stage.
func NewWritebackStage(regFile *emu.RegFile) *WritebackStage {
	return &WritebackStage{regFile: regFile}
}

// Writeback writes value to the destination register if the instruction
// writes one, and advances the PC past it. It reports whether a register
// was written.
func (s *WritebackStage) Writeback(memwb *MEMWBRegister, value uint32) bool {
	written := memwb.RegWrite && memwb.Rd != 0
	if written {
		s.regFile.WriteReg(memwb.Rd, value)
	}

	s.regFile.PC = memwb.PC + 4

	return written
}
