package tb

import (
	"io"
	"log"

	"github.com/sarchlab/coreverif/bfm"
	"github.com/sarchlab/coreverif/emu"
	"github.com/sarchlab/coreverif/kernel"
)

// EnvConfig configures an Env.
type EnvConfig struct {
	// CreateErrors makes the scoreboard expect mismatches.
	CreateErrors bool

	// PassiveResults collects results with a monitor instead of the driver.
	PassiveResults bool

	// Verbose logs every monitored value.
	Verbose bool

	Logger *log.Logger
}

// Env wires the sequencer, driver, monitors and scoreboard around one BFM.
type Env struct {
	BFM           *bfm.BFM
	Sequencer     *Sequencer
	Driver        *Driver
	CmdMonitor    *Monitor[bfm.RawCommand]
	ResultMonitor *Monitor[emu.State]
	Scoreboard    *Scoreboard

}

// NewEnv builds the environment. The result monitor only exists in passive
// mode; otherwise the driver publishes the results.
func NewEnv(b *bfm.BFM, model GoldenModel, cfg EnvConfig) *Env {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}

	s := b.Clock().Scheduler()

	e := &Env{
		BFM:       b,
		Sequencer: NewSequencer(s, "sequencer"),
	}

	e.Driver = NewDriver(b, e.Sequencer, cfg.PassiveResults)
	e.Driver.SetLogger(cfg.Logger)

	e.CmdMonitor = mustMonitor[bfm.RawCommand](b, CommandStream)
	e.CmdMonitor.SetLogger(cfg.Logger, cfg.Verbose)

	e.Scoreboard = NewScoreboard(
		NewAnalysisFIFO[bfm.RawCommand](s, "scoreboard.cmd_fifo"),
		NewAnalysisFIFO[emu.State](s, "scoreboard.result_fifo"),
		model,
		cfg.CreateErrors,
	)
	e.Scoreboard.SetLogger(cfg.Logger)

	e.CmdMonitor.AP.Connect(e.Scoreboard.CmdFIFO)

	if cfg.PassiveResults {
		e.ResultMonitor = mustMonitor[emu.State](b, ResultStream)
		e.ResultMonitor.SetLogger(cfg.Logger, cfg.Verbose)
		e.ResultMonitor.AP.Connect(e.Scoreboard.ResultFIFO)
	} else {
		e.Driver.AP.Connect(e.Scoreboard.ResultFIFO)
	}

	return e
}

// Start spawns the driver and then the monitors.
func (e *Env) Start() {
	s := e.BFM.Clock().Scheduler()

	s.Spawn("driver", e.Driver.Run)
	s.Spawn(e.CmdMonitor.Name(), e.CmdMonitor.Run)
	if e.ResultMonitor != nil {
		s.Spawn(e.ResultMonitor.Name(), e.ResultMonitor.Run)
	}
}

func mustMonitor[T any](b *bfm.BFM, stream Stream) *Monitor[T] {
	m, err := NewMonitor[T](b, stream)
	if err != nil {
		panic(err)
	}
	return m
}

// Drain waits for the snapshot that follows the last instruction, so that
// N instructions yield N+1 snapshots.
func (e *Env) Drain(p *kernel.Process) {
	if e.ResultMonitor == nil {
		e.Driver.Drain(p)
		return
	}

	for e.ResultMonitor.Count() < e.Driver.Sent()+1 {
		p.Await(e.ResultMonitor.Published())
	}
}
