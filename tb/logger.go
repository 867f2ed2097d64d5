package tb

import (
	"log"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/coreverif/bfm"
)

// TransactionLogger is a hook that prints bus transactions and scoreboard
// comparisons.
type TransactionLogger struct {
	sim.LogHookBase
}

// NewTransactionLogger creates a transaction logger writing to logger.
func NewTransactionLogger(logger *log.Logger) *TransactionLogger {
	h := new(TransactionLogger)
	h.Logger = logger
	return h
}

// Func logs the hooked item.
func (h *TransactionLogger) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case bfm.HookPosInstructionDriven,
		bfm.HookPosCommandSampled,
		bfm.HookPosResultSampled:
		h.Printf("cycle %v, %s: %v", ctx.Detail, ctx.Pos.Name, ctx.Item)
	case HookPosCompared:
		c := ctx.Item.(Comparison)
		verdict := "PASSED"
		if !c.Passed() {
			verdict = "FAILED"
		}
		h.Printf("compare %d, %s: %s", c.Index, c.Instruction, verdict)
	case HookPosTestFinished:
		r := ctx.Item.(Result)
		h.Printf("test %s finished after %d cycles: %s",
			r.Test, r.Cycles, r.Verdict())
	}
}
