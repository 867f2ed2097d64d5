package tb

import (
	"io"
	"log"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/coreverif/bfm"
	"github.com/sarchlab/coreverif/config"
	"github.com/sarchlab/coreverif/emu"
	"github.com/sarchlab/coreverif/hdl"
	"github.com/sarchlab/coreverif/kernel"
	"github.com/sarchlab/coreverif/timing/cache"
	"github.com/sarchlab/coreverif/timing/core"
	"github.com/sarchlab/coreverif/timing/latency"
	"github.com/sarchlab/coreverif/timing/pipeline"
)

// HookPosTestStarted marks the start of a test. The item is the test name.
var HookPosTestStarted = &sim.HookPos{Name: "TestStarted"}

// HookPosTestFinished marks the end of a test. The item is the Result.
var HookPosTestFinished = &sim.HookPos{Name: "TestFinished"}

// Result is the outcome of one test run.
type Result struct {
	Test   string
	RunID  string
	Seed   uint64
	Cycles uint64
	Report Report
	Err    error

	// Pipeline holds the core's own counters at the end of the run.
	Pipeline pipeline.Statistics
}

// Passed reports whether the test passed.
func (r Result) Passed() bool {
	return r.Err == nil && r.Report.Passed
}

// Verdict returns "PASSED" or "FAILED".
func (r Result) Verdict() string {
	if r.Passed() {
		return "PASSED"
	}
	return "FAILED"
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets the logger for diagnostics and scoreboard lines.
func WithRunnerLogger(l *log.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithHook attaches h to the BFM and scoreboard of every run, in addition to
// the runner itself.
func WithHook(h sim.Hook) RunnerOption {
	return func(r *Runner) {
		r.AcceptHook(h)
	}
}

// Runner builds a fresh simulation for every test and runs it to
// completion.
type Runner struct {
	sim.HookableBase

	config *config.Config
	logger *log.Logger

	lastEnv  *Env
	lastCore *core.Core
}

// NewRunner creates a runner with the given base configuration. Tests may
// adjust a copy of it in their Setup.
func NewRunner(cfg *config.Config, opts ...RunnerOption) *Runner {
	r := &Runner{
		config: cfg,
		logger: log.New(io.Discard, "", 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// LastEnv returns the environment of the most recent run.
func (r *Runner) LastEnv() *Env {
	return r.lastEnv
}

// Run runs the registered test called name.
func (r *Runner) Run(name string) Result {
	t, err := Lookup(name)
	if err != nil {
		return Result{Test: name, Err: err}
	}
	return r.RunTest(t)
}

// RunTest runs t. Setup errors, fatal process errors, pairing
// desynchronisation and a failed verdict all end up in Result.Err.
func (r *Runner) RunTest(t *Test) Result {
	result := Result{
		Test:  t.Name,
		RunID: xid.New().String(),
		Seed:  r.config.Seed,
	}

	bench := &Bench{Config: r.config.Clone()}
	if t.Setup != nil {
		if err := t.Setup(bench); err != nil {
			result.Err = errors.Wrapf(err, "%s setup", t.Name)
			return result
		}
	}

	if err := bench.Config.Validate(); err != nil {
		result.Err = errors.Wrap(err, "invalid config")
		return result
	}

	r.invoke(HookPosTestStarted, t.Name)

	result.Cycles, result.Report, result.Err = r.simulate(t, bench)
	result.Pipeline = r.lastCore.Pipeline.Stats()
	if result.Err == nil && !result.Report.Passed {
		result.Err = errors.Wrapf(ErrMismatch,
			"%d of %d comparisons failed",
			result.Report.Mismatches, result.Report.Compared)
	}

	r.logger.Printf("%s: %s (%d compared, %d mismatches, %d cycles)",
		t.Name, result.Verdict(), result.Report.Compared,
		result.Report.Mismatches, result.Cycles)

	r.invoke(HookPosTestFinished, result)

	return result
}

func (r *Runner) simulate(t *Test, bench *Bench) (uint64, Report, error) {
	cfg := bench.Config

	s := kernel.NewScheduler()
	defer s.Close()

	engine := sim.NewSerialEngine()
	clk := kernel.NewClock("clk", engine, sim.Freq(cfg.ClockMHz)*sim.MHz, s,
		kernel.WithMaxCycles(cfg.MaxCycles))

	bundle := hdl.NewBundle("dut")
	clk.Attach(bundle)

	dut := core.NewCore(bundle, r.coreOptions(bench)...)
	clk.Register(dut)
	r.lastCore = dut

	pins, err := bfm.PinsFrom(bundle)
	if err != nil {
		return 0, Report{}, err
	}

	b := bfm.New(clk, pins,
		bfm.WithResetCycles(cfg.ResetCycles),
		bfm.WithSettleCycles(cfg.SettleCycles),
		bfm.WithStallLimit(cfg.StallLimit),
		bfm.WithLogger(r.logger),
	)

	env := NewEnv(b, emu.NewEmulator(), EnvConfig{
		CreateErrors:   cfg.CreateErrors,
		PassiveResults: cfg.PassiveResults,
		Verbose:        cfg.Verbose,
		Logger:         r.logger,
	})
	r.lastEnv = env

	for _, h := range r.Hooks() {
		b.AcceptHook(h)
		env.Scoreboard.AcceptHook(h)
	}

	objection := NewObjection(clk.Stop)
	env.Start()
	s.Spawn("test."+t.Name, func(p *kernel.Process) error {
		objection.Raise()

		if err := t.Run(p, env, bench); err != nil {
			return err
		}
		env.Drain(p)

		return objection.Drop()
	})

	if err := clk.Run(); err != nil {
		return clk.Cycle(), Report{}, err
	}

	report, err := env.Scoreboard.Check()

	return clk.Cycle(), report, err
}

func (r *Runner) coreOptions(bench *Bench) []pipeline.PipelineOption {
	timing := bench.Config.Timing
	if timing == nil {
		timing = latency.DefaultTimingConfig()
	}

	opts := []pipeline.PipelineOption{
		pipeline.WithLatencyTable(latency.NewTableWithConfig(timing)),
	}

	if timing.DataCache {
		dcache := cache.DefaultL1DConfig()
		dcache.HitLatency = timing.L1HitLatency
		dcache.MissLatency = timing.L1MissLatency
		opts = append(opts, pipeline.WithDCache(dcache))
	}

	return append(opts, bench.CoreOptions...)
}

func (r *Runner) invoke(pos *sim.HookPos, item interface{}) {
	if r.NumHooks() == 0 {
		return
	}

	r.InvokeHook(sim.HookCtx{
		Domain: r,
		Pos:    pos,
		Item:   item,
	})
}
