package emu

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/coreverif/insts"
)

// ErrUnknownInstruction is returned when the emulator is asked to execute an
// instruction outside the supported subset.
var ErrUnknownInstruction = errors.New("unknown instruction")

// Emulator executes instructions functionally, one at a time, threading its
// architectural state from one instruction to the next. It is the golden
// model the scoreboard predicts with.
type Emulator struct {
	regFile *RegFile
	memory  DataMemory
	decoder *insts.Decoder

	// Execution units
	alu *ALU
	lsu *LoadStoreUnit

	resetPC          uint32
	instructionCount uint64
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMemory sets the data memory. The default is EchoMemory.
func WithMemory(m DataMemory) EmulatorOption {
	return func(e *Emulator) {
		e.memory = m
	}
}

// WithResetPC sets the program counter after reset.
func WithResetPC(pc uint32) EmulatorOption {
	return func(e *Emulator) {
		e.resetPC = pc
	}
}

// NewEmulator creates a new emulator in its reset state.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile: &RegFile{},
		memory:  EchoMemory{},
		decoder: insts.NewDecoder(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.Reset()

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// State returns the current architectural state.
func (e *Emulator) State() State {
	return e.regFile.State()
}

// Reset clears all registers and sets the PC to the reset address.
func (e *Emulator) Reset() {
	*e.regFile = RegFile{PC: e.resetPC}
	e.alu = NewALU(e.regFile)
	e.lsu = NewLoadStoreUnit(e.regFile, e.memory)
	e.instructionCount = 0
}

// Step decodes and executes one instruction word.
func (e *Emulator) Step(word uint32) (State, error) {
	return e.Execute(e.decoder.Decode(word))
}

// Execute executes one instruction against the running state and returns
// the resulting state. An unknown instruction leaves the state untouched
// and returns ErrUnknownInstruction.
func (e *Emulator) Execute(inst *insts.Instruction) (State, error) {
	switch inst.Format {
	case insts.FormatR:
		e.alu.ExecuteReg(inst)
	case insts.FormatI:
		e.alu.ExecuteImm(inst)
	case insts.FormatU:
		e.alu.ExecuteUpper(inst)
	case insts.FormatLoad:
		e.lsu.LW(inst)
	default:
		return e.State(), errors.Wrapf(ErrUnknownInstruction,
			"0x%08x at pc 0x%x", inst.Word, e.regFile.PC)
	}

	e.regFile.PC += 4
	e.instructionCount++

	return e.State(), nil
}
