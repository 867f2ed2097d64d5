package pipeline

import (
	"github.com/sarchlab/coreverif/emu"
	"github.com/sarchlab/coreverif/timing/cache"
	"github.com/sarchlab/coreverif/timing/latency"
)

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the number of cycles simulated since reset.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// FetchStalls counts cycles spent requesting an instruction.
	FetchStalls uint64
	// ExecStalls counts extra cycles spent in multi-cycle execution.
	ExecStalls uint64
	// MemStalls counts cycles spent waiting for the data bus or cache.
	MemStalls uint64
	// Cache holds the data cache statistics, if a cache is present.
	Cache cache.Statistics
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Inputs are the pipeline's input pins, sampled at a rising edge.
type Inputs struct {
	Reset     bool
	InstValid bool
	InstData  uint32
	DataValid bool
	RData     uint32
}

// RegWrite is a register file update.
type RegWrite struct {
	Rd    uint8
	Value uint32
}

// Outputs are the pipeline's output pins after a rising edge.
type Outputs struct {
	InstReq  bool
	InstAddr uint32
	DataReq  bool
	DataAddr uint32

	// Write is the register written back this cycle, or nil.
	Write *RegWrite
}

// Fault corrupts written-back values. It models a broken datapath for
// negative tests of the harness.
type Fault struct {
	// AfterRetired is the number of clean retirements before the fault
	// starts.
	AfterRetired uint64
	// XORMask is applied to every value written back once active.
	XORMask uint32
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithLatencyTable sets a custom latency table for instruction timing.
// Multi-cycle operations stall the pipeline in the execute stage.
func WithLatencyTable(table *latency.Table) PipelineOption {
	return func(p *Pipeline) {
		p.latencyTable = table
	}
}

// WithDCache puts a tag-only L1 data cache in front of the data bus.
func WithDCache(config cache.Config) PipelineOption {
	return func(p *Pipeline) {
		p.memoryStage = NewMemoryStage(cache.New(config))
	}
}

// WithFault injects a writeback fault.
func WithFault(f Fault) PipelineOption {
	return func(p *Pipeline) {
		p.fault = &f
	}
}

// WithHangAfter makes the pipeline stop requesting instructions after n
// retirements. With n == 0 it never requests one after reset.
func WithHangAfter(n uint64) PipelineOption {
	return func(p *Pipeline) {
		p.hang = true
		p.hangAfter = n
	}
}

// Pipeline implements a 5-stage pipelined core that fetches and loads over
// request/valid handshakes.
// Stages: Fetch (IF) -> Decode (ID) -> Execute (EX) -> Memory (MEM) -> Writeback (WB)
//
// At most one instruction is in flight. The next fetch request is raised
// in the cycle the previous instruction writes back, so data hazards
// cannot occur.
type Pipeline struct {
	// Pipeline registers
	ifid  IFIDRegister
	idex  IDEXRegister
	exmem EXMEMRegister
	memwb MEMWBRegister

	// Pipeline stages
	decodeStage    *DecodeStage
	executeStage   *ExecuteStage
	memoryStage    *MemoryStage
	writebackStage *WritebackStage

	// Instruction timing
	latencyTable *latency.Table
	exLatency    uint64 // Remaining cycles for execute stage

	regFile *emu.RegFile

	fetching  bool
	fault     *Fault
	hang      bool
	hangAfter uint64

	stats Statistics
}

// NewPipeline creates a new 5-stage pipeline. The pipeline stays idle until
// it has been reset.
func NewPipeline(regFile *emu.RegFile, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		decodeStage:    NewDecodeStage(regFile),
		executeStage:   NewExecuteStage(),
		memoryStage:    NewMemoryStage(nil),
		writebackStage: NewWritebackStage(regFile),
		latencyTable:   latency.NewTable(),
		regFile:        regFile,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// PC returns the current program counter.
func (p *Pipeline) PC() uint32 {
	return p.regFile.PC
}

// Busy reports whether an instruction is in flight.
func (p *Pipeline) Busy() bool {
	return p.ifid.Valid || p.idex.Valid || p.exmem.Valid || p.memwb.Valid
}

// Fetching reports whether the pipeline is requesting an instruction.
func (p *Pipeline) Fetching() bool {
	return p.fetching
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	s := p.stats
	s.Cache = p.memoryStage.CacheStats()
	return s
}

// Tick advances the pipeline by one cycle.
func (p *Pipeline) Tick(in Inputs) Outputs {
	if in.Reset {
		p.Reset()
		return Outputs{}
	}

	p.stats.Cycles++

	// inst_addr is registered: it shows the PC from before this cycle.
	out := Outputs{InstAddr: p.regFile.PC}

	// Stage 5: Writeback
	if p.memwb.Valid {
		out.Write = p.writeback()
		p.memwb.Clear()
		p.fetching = p.mayFetch()
	}

	// Stage 4: Memory
	if p.exmem.Valid {
		data, stall := p.memoryStage.Access(&p.exmem, in.DataValid, in.RData)
		if stall {
			p.stats.MemStalls++
		} else {
			p.memwb = MEMWBRegister{
				Valid:     true,
				PC:        p.exmem.PC,
				Inst:      p.exmem.Inst,
				ALUResult: p.exmem.ALUResult,
				MemData:   data,
				Rd:        p.exmem.Rd,
				RegWrite:  p.exmem.RegWrite,
				MemToReg:  p.exmem.MemToReg,
			}
			p.exmem.Clear()
		}
	}

	// Stage 3: Execute
	if p.idex.Valid && !p.exmem.Valid {
		p.tickExecute()
	}

	// Stage 2: Decode
	if p.ifid.Valid && !p.idex.Valid {
		p.idex = p.decodeStage.Decode(p.ifid.InstructionWord, p.ifid.PC)
		p.ifid.Clear()
	}

	// Stage 1: Fetch
	if p.fetching {
		if in.InstValid {
			p.ifid = IFIDRegister{
				Valid:           true,
				PC:              p.regFile.PC,
				InstructionWord: in.InstData,
			}
			p.fetching = false
		} else {
			p.stats.FetchStalls++
		}
	}

	out.InstReq = p.fetching
	out.DataReq = p.memoryStage.Requesting()
	if out.DataReq {
		out.DataAddr = p.exmem.ALUResult
	}

	return out
}

func (p *Pipeline) tickExecute() {
	if p.exLatency == 0 {
		p.exLatency = p.latencyTable.GetLatency(p.idex.Inst)
	}

	p.exLatency--
	if p.exLatency > 0 {
		p.stats.ExecStalls++
		return
	}

	p.exmem = EXMEMRegister{
		Valid:     true,
		PC:        p.idex.PC,
		Inst:      p.idex.Inst,
		ALUResult: p.executeStage.Execute(&p.idex),
		Rd:        p.idex.Rd,
		MemRead:   p.idex.MemRead,
		RegWrite:  p.idex.RegWrite,
		MemToReg:  p.idex.MemToReg,
	}
	p.idex.Clear()
}

func (p *Pipeline) writeback() *RegWrite {
	value := p.memwb.Result()
	if p.fault != nil && p.stats.Instructions >= p.fault.AfterRetired {
		value ^= p.fault.XORMask
	}

	written := p.writebackStage.Writeback(&p.memwb, value)
	p.stats.Instructions++

	if !written {
		return nil
	}

	return &RegWrite{Rd: p.memwb.Rd, Value: value}
}

func (p *Pipeline) mayFetch() bool {
	return !p.hang || p.stats.Instructions < p.hangAfter
}

// Reset clears all pipeline and architectural state. Once reset, the
// pipeline requests its first instruction.
func (p *Pipeline) Reset() {
	p.ifid.Clear()
	p.idex.Clear()
	p.exmem.Clear()
	p.memwb.Clear()
	p.memoryStage.Reset()
	p.memoryStage.Flush()
	p.exLatency = 0

	*p.regFile = emu.RegFile{}
	p.stats = Statistics{}
	p.fetching = p.mayFetch()
}

// LatencyTable returns the latency table.
func (p *Pipeline) LatencyTable() *latency.Table {
	return p.latencyTable
}
