package tb

import (
	"io"
	"log"

	"github.com/pkg/errors"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/coreverif/bfm"
	"github.com/sarchlab/coreverif/emu"
	"github.com/sarchlab/coreverif/insts"
)

var (
	// ErrDesync is returned by Check when one of the FIFOs still holds data
	// after pairing.
	ErrDesync = errors.New("command/result pairing out of sync")

	// ErrMismatch is reported by the runner when a test fails its verdict.
	ErrMismatch = errors.New("scoreboard verdict failed")
)

// HookPosCompared marks one command/result comparison. The hook item is a
// Comparison.
var HookPosCompared = &sim.HookPos{Name: "Compared"}

// GoldenModel predicts the architectural state after an instruction.
type GoldenModel interface {
	Execute(inst *insts.Instruction) (emu.State, error)
}

// Comparison is the outcome of checking one instruction.
type Comparison struct {
	Index       int
	Command     bfm.RawCommand
	Instruction *insts.Instruction
	Predicted   emu.State
	Actual      emu.State
	Diffs       []emu.FieldDiff
	Err         error
}

// Passed reports whether the prediction matched.
func (c Comparison) Passed() bool {
	return c.Err == nil && len(c.Diffs) == 0
}

// Report summarises a check.
type Report struct {
	Compared       int
	Mismatches     int
	Discarded      bool
	ErrorsExpected bool
	Passed         bool
	Diffs          [][]emu.FieldDiff
}

// Scoreboard pairs sampled commands with the snapshots that follow them and
// compares each snapshot with the golden model.
type Scoreboard struct {
	sim.HookableBase

	CmdFIFO    *AnalysisFIFO[bfm.RawCommand]
	ResultFIFO *AnalysisFIFO[emu.State]

	model          GoldenModel
	decoder        *insts.Decoder
	errorsExpected bool
	logger         *log.Logger

	discardPending bool
	passed         bool
	compared       int
}

// NewScoreboard creates a scoreboard. errorsExpected inverts the verdict:
// the check then passes only when at least one mismatch was found.
func NewScoreboard(
	cmds *AnalysisFIFO[bfm.RawCommand],
	results *AnalysisFIFO[emu.State],
	model GoldenModel,
	errorsExpected bool,
) *Scoreboard {
	return &Scoreboard{
		CmdFIFO:        cmds,
		ResultFIFO:     results,
		model:          model,
		decoder:        insts.NewDecoder(),
		errorsExpected: errorsExpected,
		logger:         log.New(io.Discard, "", 0),
		discardPending: true,
		passed:         true,
	}
}

// SetLogger sets the logger for PASSED/FAILED lines.
func (sb *Scoreboard) SetLogger(l *log.Logger) {
	sb.logger = l
}

// ErrorsExpected reports whether the scoreboard runs as a self-check.
func (sb *Scoreboard) ErrorsExpected() bool {
	return sb.errorsExpected
}

// Check compares everything buffered so far. The first snapshot, taken
// right after reset, has no command and is dropped.
func (sb *Scoreboard) Check() (Report, error) {
	report := Report{ErrorsExpected: sb.errorsExpected}

	if sb.discardPending {
		if _, ok := sb.ResultFIFO.TryGet(); ok {
			sb.discardPending = false
			report.Discarded = true
		}
	}

	for sb.CmdFIFO.Len() > 0 && sb.ResultFIFO.Len() > 0 {
		actual, _ := sb.ResultFIFO.TryGet()
		cmd, _ := sb.CmdFIFO.TryGet()

		c := sb.compare(cmd, actual)

		report.Compared++
		if !c.Passed() {
			report.Mismatches++
			report.Diffs = append(report.Diffs, c.Diffs)
		}
	}

	report.Passed = sb.verdict()

	if sb.CmdFIFO.Len() > 0 || sb.ResultFIFO.Len() > 0 {
		return report, errors.Wrapf(ErrDesync,
			"%d commands and %d results left",
			sb.CmdFIFO.Len(), sb.ResultFIFO.Len())
	}

	return report, nil
}

func (sb *Scoreboard) compare(cmd bfm.RawCommand, actual emu.State) Comparison {
	c := Comparison{
		Index:       sb.compared,
		Command:     cmd,
		Instruction: sb.decoder.Decode(uint32(cmd)),
		Actual:      actual,
	}
	sb.compared++

	c.Predicted, c.Err = sb.model.Execute(c.Instruction)
	if c.Err == nil {
		c.Diffs = emu.Diff(c.Predicted, actual)
	}

	switch {
	case c.Err != nil:
		sb.passed = false
		sb.logger.Printf("FAILED: %s: golden model: %v", c.Instruction, c.Err)
	case len(c.Diffs) > 0:
		sb.passed = false
		sb.logger.Printf("FAILED: %s", c.Instruction)
		for _, d := range c.Diffs {
			sb.logger.Printf("  %s", d)
		}
	default:
		sb.logger.Printf("PASSED: %s", c.Instruction)
	}

	if sb.NumHooks() > 0 {
		sb.InvokeHook(sim.HookCtx{
			Domain: sb,
			Pos:    HookPosCompared,
			Item:   c,
		})
	}

	return c
}

func (sb *Scoreboard) verdict() bool {
	if sb.errorsExpected {
		return !sb.passed
	}
	return sb.passed
}
