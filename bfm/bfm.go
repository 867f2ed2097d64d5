// Package bfm provides the bus functional model of the core under
// verification.
//
// The BFM turns instructions into pulsed request/valid handshakes on the
// core's instruction bus, answers data loads with the requested address, and
// rebuilds the architectural state after every retirement. Three processes
// run on the kernel scheduler once the BFM is started, all synchronised to
// the falling clock edge:
//
//   - the driver process answers instruction and data requests,
//   - the command sampler captures every instruction on the 0->1 transition
//     of inst_valid,
//   - the result sampler snapshots the register file and PC after every
//     0->1 transition of inst_req, and fails the run when the core stops
//     retiring.
package bfm

import (
	"fmt"
	"io"
	"log"

	"github.com/pkg/errors"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/coreverif/emu"
	"github.com/sarchlab/coreverif/insts"
	"github.com/sarchlab/coreverif/kernel"
)

// Defaults.
const (
	DefaultResetCycles  = 10
	DefaultSettleCycles = 1
	DefaultStallLimit   = 1000
)

var (
	// ErrStall is returned by the result sampler when the core has not
	// retired an instruction for the stall limit.
	ErrStall = errors.New("core stalled")

	// ErrNotReset is returned by Start before Reset completed.
	ErrNotReset = errors.New("bfm has not been reset")

	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("bfm already started")
)

// HookPosInstructionDriven marks an instruction driven onto inst_data. The
// hook item is the *insts.Instruction.
var HookPosInstructionDriven = &sim.HookPos{Name: "InstructionDriven"}

// HookPosCommandSampled marks a command captured by the command sampler.
// The hook item is the RawCommand.
var HookPosCommandSampled = &sim.HookPos{Name: "CommandSampled"}

// HookPosResultSampled marks a state snapshot taken by the result sampler.
// The hook item is the emu.State.
var HookPosResultSampled = &sim.HookPos{Name: "ResultSampled"}

// RawCommand is an instruction word as sampled off inst_data.
type RawCommand uint32

func (c RawCommand) String() string {
	return fmt.Sprintf("0x%08x", uint32(c))
}

// Option configures a BFM.
type Option func(*BFM)

// WithResetCycles sets how many falling edges reset is held.
func WithResetCycles(n int) Option {
	return func(b *BFM) {
		b.resetCycles = n
	}
}

// WithSettleCycles sets how many falling edges the result sampler waits
// between seeing inst_req rise and sampling the state.
func WithSettleCycles(n int) Option {
	return func(b *BFM) {
		b.settleCycles = n
	}
}

// WithStallLimit sets the number of consecutive idle falling edges after
// which the result sampler fails with ErrStall.
func WithStallLimit(n int) Option {
	return func(b *BFM) {
		b.stallLimit = n
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *log.Logger) Option {
	return func(b *BFM) {
		b.logger = l
	}
}

// BFM is the bus functional model. One BFM exists per simulation; the
// driver and the monitors share it.
type BFM struct {
	sim.HookableBase

	clock  *kernel.Clock
	pins   *Pins
	logger *log.Logger

	resetCycles  int
	settleCycles int
	stallLimit   int

	stimulus *kernel.Queue[*insts.Instruction]
	commands *kernel.Queue[RawCommand]
	results  *kernel.Queue[emu.State]

	isReset bool
	started bool
	idle    int
	procs   []*kernel.Process
}

// New creates a BFM on the given clock and pins.
func New(clock *kernel.Clock, pins *Pins, opts ...Option) *BFM {
	s := clock.Scheduler()

	b := &BFM{
		clock:        clock,
		pins:         pins,
		logger:       log.New(io.Discard, "", 0),
		resetCycles:  DefaultResetCycles,
		settleCycles: DefaultSettleCycles,
		stallLimit:   DefaultStallLimit,
		stimulus:     kernel.NewQueue[*insts.Instruction](s, "bfm.stimulus", 1),
		commands:     kernel.NewQueue[RawCommand](s, "bfm.commands", 0),
		results:      kernel.NewQueue[emu.State](s, "bfm.results", 0),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Clock returns the clock the BFM is synchronised to.
func (b *BFM) Clock() *kernel.Clock {
	return b.clock
}

// Reset puts the core into a known state. It drives every input to its
// inactive value and holds rst for the configured number of cycles.
func (b *BFM) Reset(p *kernel.Process) error {
	b.clock.FallingEdges(p, 1)

	b.pins.InstValid.SetBool(false)
	b.pins.InstData.Set(0)
	b.pins.DataValid.SetBool(false)
	b.pins.RData.Set(0)
	b.pins.Rst.SetBool(true)

	b.clock.FallingEdges(p, b.resetCycles)

	b.pins.Rst.SetBool(false)

	b.clock.FallingEdges(p, 1)

	b.isReset = true
	b.logger.Printf("bfm: reset released at cycle %d", b.clock.Cycle())

	return nil
}

// Start spawns the driver process, the command sampler and the result
// sampler, in that order.
func (b *BFM) Start() error {
	if !b.isReset {
		return ErrNotReset
	}
	if b.started {
		return ErrAlreadyStarted
	}
	b.started = true

	s := b.clock.Scheduler()
	b.procs = []*kernel.Process{
		s.Spawn("bfm.driver", b.drive),
		s.Spawn("bfm.command_sampler", b.sampleCommands),
		s.Spawn("bfm.result_sampler", b.sampleResults),
	}

	b.logger.Printf("bfm: started at cycle %d", b.clock.Cycle())

	return nil
}

// Started reports whether Start succeeded.
func (b *BFM) Started() bool {
	return b.started
}

// Processes returns the processes spawned by Start, in spawn order.
func (b *BFM) Processes() []*kernel.Process {
	return b.procs
}

// SendInstruction queues inst for the driver process, suspending p while
// the previous instruction has not been driven yet.
func (b *BFM) SendInstruction(p *kernel.Process, inst *insts.Instruction) {
	b.stimulus.Put(p, inst)
}

// GetCommand suspends p until a command has been sampled and returns it.
func (b *BFM) GetCommand(p *kernel.Process) RawCommand {
	return b.commands.Get(p)
}

// GetResult suspends p until a state snapshot has been sampled and
// returns it.
func (b *BFM) GetResult(p *kernel.Process) emu.State {
	return b.results.Get(p)
}

// IdleCycles returns the result sampler's count of falling edges since the
// last retirement.
func (b *BFM) IdleCycles() int {
	return b.idle
}

func (b *BFM) drive(p *kernel.Process) error {
	for {
		b.clock.FallingEdges(p, 1)

		if b.pins.InstReq.Bool() {
			if inst, ok := b.stimulus.GetNoWait(); ok {
				b.pins.InstData.Set(uint64(inst.Word))
				b.pins.InstValid.SetBool(true)
				b.invoke(HookPosInstructionDriven, inst)
			}
		} else {
			b.pins.InstValid.SetBool(false)
		}

		if b.pins.DataReq.Bool() {
			b.pins.RData.Set(b.pins.DataAddr.Uint())
			b.pins.DataValid.SetBool(true)
		} else {
			b.pins.DataValid.SetBool(false)
		}
	}
}

func (b *BFM) sampleCommands(p *kernel.Process) error {
	prevValid := false

	for {
		b.clock.FallingEdges(p, 1)

		valid := b.pins.InstValid.Bool()
		if valid && !prevValid {
			cmd := RawCommand(b.pins.InstData.Uint())
			b.commands.Put(p, cmd)
			b.invoke(HookPosCommandSampled, cmd)
		}

		prevValid = valid
	}
}

func (b *BFM) sampleResults(p *kernel.Process) error {
	prevReq := false

	for {
		b.clock.FallingEdges(p, 1)

		req := b.pins.InstReq.Bool()

		if req && !prevReq {
			// inst_addr shows the new PC one cycle after the request.
			b.clock.FallingEdges(p, b.settleCycles)

			state, err := b.snapshot()
			if err != nil {
				return err
			}

			b.results.Put(p, state)
			b.invoke(HookPosResultSampled, state)
			b.idle = 0
		} else {
			b.idle++
			if b.idle >= b.stallLimit {
				b.logger.Printf("bfm: no retirement for %d cycles", b.idle)
				return errors.Wrapf(ErrStall,
					"no retirement for %d cycles at cycle %d",
					b.idle, b.clock.Cycle())
			}
		}

		prevReq = req
	}
}

func (b *BFM) snapshot() (emu.State, error) {
	state, err := emu.StateFromUints(
		b.pins.RegisterFile.Uints(), b.pins.InstAddr.Uint())
	if err != nil {
		return state, errors.Wrap(err, "bfm snapshot")
	}
	return state, nil
}

func (b *BFM) invoke(pos *sim.HookPos, item interface{}) {
	if b.NumHooks() == 0 {
		return
	}

	b.InvokeHook(sim.HookCtx{
		Domain: b,
		Pos:    pos,
		Item:   item,
		Detail: b.clock.Cycle(),
	})
}
