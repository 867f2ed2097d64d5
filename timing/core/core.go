// Package core provides the signal-level model of the core under
// verification. It wraps the pipeline and exposes its ports as hdl signals
// in a bundle, updating them on every rising clock edge.
package core

import (
	"github.com/sarchlab/coreverif/emu"
	"github.com/sarchlab/coreverif/hdl"
	"github.com/sarchlab/coreverif/insts"
	"github.com/sarchlab/coreverif/timing/pipeline"
)

// Port names.
const (
	PortRst          = "rst"
	PortInstReq      = "inst_req"
	PortInstValid    = "inst_valid"
	PortInstData     = "inst_data"
	PortInstAddr     = "inst_addr"
	PortDataReq      = "data_req"
	PortDataAddr     = "data_addr"
	PortRData        = "rdata"
	PortDataValid    = "data_valid"
	PortRegisterFile = "register_file"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the number of cycles since the last reset.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Stalls is the number of cycles spent waiting on the buses or in
	// multi-cycle execution.
	Stalls uint64
}

// Core is the core under verification.
type Core struct {
	// Pipeline is the underlying 5-stage pipeline.
	Pipeline *pipeline.Pipeline

	regFile *emu.RegFile

	rst       *hdl.Signal
	instReq   *hdl.Signal
	instValid *hdl.Signal
	instData  *hdl.Signal
	instAddr  *hdl.Signal
	dataReq   *hdl.Signal
	dataAddr  *hdl.Signal
	rdata     *hdl.Signal
	dataValid *hdl.Signal
	registers *hdl.Array
}

// NewCore creates a core and declares its ports in bundle.
func NewCore(bundle *hdl.Bundle, opts ...pipeline.PipelineOption) *Core {
	regFile := &emu.RegFile{}

	return &Core{
		Pipeline:  pipeline.NewPipeline(regFile, opts...),
		regFile:   regFile,
		rst:       bundle.NewSignal(PortRst, 1),
		instReq:   bundle.NewSignal(PortInstReq, 1),
		instValid: bundle.NewSignal(PortInstValid, 1),
		instData:  bundle.NewSignal(PortInstData, 32),
		instAddr:  bundle.NewSignal(PortInstAddr, 32),
		dataReq:   bundle.NewSignal(PortDataReq, 1),
		dataAddr:  bundle.NewSignal(PortDataAddr, 32),
		rdata:     bundle.NewSignal(PortRData, 32),
		dataValid: bundle.NewSignal(PortDataValid, 1),
		registers: bundle.NewArray(PortRegisterFile, insts.NumRegs, 32),
	}
}

// Tick samples the input ports, advances the pipeline by one cycle and
// drives the output ports. Output writes take effect when the bundle
// commits.
func (c *Core) Tick() {
	in := pipeline.Inputs{
		Reset:     c.rst.Bool(),
		InstValid: c.instValid.Bool(),
		InstData:  uint32(c.instData.Uint()),
		DataValid: c.dataValid.Bool(),
		RData:     uint32(c.rdata.Uint()),
	}

	out := c.Pipeline.Tick(in)

	c.instReq.SetBool(out.InstReq)
	c.instAddr.Set(uint64(out.InstAddr))
	c.dataReq.SetBool(out.DataReq)
	c.dataAddr.Set(uint64(out.DataAddr))

	if in.Reset {
		for i := 0; i < c.registers.Len(); i++ {
			c.registers.At(i).Set(0)
		}
	}

	if out.Write != nil {
		c.registers.At(int(out.Write.Rd)).Set(uint64(out.Write.Value))
	}
}

// PC returns the program counter.
func (c *Core) PC() uint32 {
	return c.regFile.PC
}

// RegFile returns the architectural register file, ahead of the
// register_file port by up to one commit.
func (c *Core) RegFile() *emu.RegFile {
	return c.regFile
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	s := c.Pipeline.Stats()
	return Stats{
		Cycles:       s.Cycles,
		Instructions: s.Instructions,
		Stalls:       s.FetchStalls + s.ExecStalls + s.MemStalls,
	}
}
