package bfm_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/coreverif/bfm"
	"github.com/sarchlab/coreverif/emu"
	"github.com/sarchlab/coreverif/hdl"
	"github.com/sarchlab/coreverif/insts"
	"github.com/sarchlab/coreverif/kernel"
	"github.com/sarchlab/coreverif/timing/core"
	"github.com/sarchlab/coreverif/timing/pipeline"
)

// scriptedCore replaces the core with a per-cycle script.
type scriptedCore struct {
	clock  *kernel.Clock
	pins   *bfm.Pins
	script func(cycle uint64, pins *bfm.Pins)
}

func (c *scriptedCore) Tick() {
	c.script(c.clock.Cycle(), c.pins)
}

func declarePins(b *hdl.Bundle) {
	for _, name := range []string{
		bfm.SignalRst, bfm.SignalInstReq, bfm.SignalInstValid,
		bfm.SignalDataReq, bfm.SignalDataValid,
	} {
		b.NewSignal(name, 1)
	}
	for _, name := range []string{
		bfm.SignalInstData, bfm.SignalInstAddr, bfm.SignalDataAddr,
		bfm.SignalRData,
	} {
		b.NewSignal(name, 32)
	}
	b.NewArray(bfm.SignalRegisterFile, insts.NumRegs, 32)
}

type hookCounter struct {
	counts map[*sim.HookPos]int
}

func (h *hookCounter) Func(ctx sim.HookCtx) {
	h.counts[ctx.Pos]++
}

var _ = Describe("BFM", func() {
	var (
		bundle *hdl.Bundle
		sched  *kernel.Scheduler
		clk    *kernel.Clock
		pins   *bfm.Pins
		b      *bfm.BFM
	)

	build := func(opts ...bfm.Option) {
		var err error
		pins, err = bfm.PinsFrom(bundle)
		Expect(err).NotTo(HaveOccurred())
		b = bfm.New(clk, pins, opts...)
	}

	withScript := func(script func(cycle uint64, pins *bfm.Pins), opts ...bfm.Option) {
		declarePins(bundle)
		build(opts...)
		clk.Register(&scriptedCore{clock: clk, pins: pins, script: script})
	}

	withCore := func(coreOpts []pipeline.PipelineOption, opts ...bfm.Option) {
		clk.Register(core.NewCore(bundle, coreOpts...))
		build(opts...)
	}

	// test spawns the test body after the core has been registered.
	test := func(body func(p *kernel.Process) error) {
		sched.Spawn("test", func(p *kernel.Process) error {
			Expect(b.Reset(p)).To(Succeed())
			Expect(b.Start()).To(Succeed())
			return body(p)
		})
	}

	BeforeEach(func() {
		bundle = hdl.NewBundle("dut")
		sched = kernel.NewScheduler()
		clk = kernel.NewClock("clk", sim.NewSerialEngine(), 100*sim.MHz, sched,
			kernel.WithMaxCycles(5000))
		clk.Attach(bundle)
	})

	AfterEach(func() {
		sched.Close()
	})

	Describe("PinsFrom", func() {
		It("should fail on a missing signal", func() {
			bundle.NewSignal(bfm.SignalRst, 1)

			_, err := bfm.PinsFrom(bundle)

			Expect(errors.Is(err, hdl.ErrUnknownSignal)).To(BeTrue())
		})
	})

	Describe("Start", func() {
		BeforeEach(func() {
			withScript(func(uint64, *bfm.Pins) {})
		})

		It("should require a reset first", func() {
			Expect(b.Start()).To(MatchError(bfm.ErrNotReset))
		})

		It("should refuse to start twice", func() {
			sched.Spawn("test", func(p *kernel.Process) error {
				Expect(b.Reset(p)).To(Succeed())
				Expect(b.Start()).To(Succeed())
				Expect(b.Start()).To(MatchError(bfm.ErrAlreadyStarted))
				clk.Stop()
				return nil
			})

			Expect(clk.Run()).To(Succeed())
			Expect(b.Processes()).To(HaveLen(3))
			Expect(b.Processes()[0].Name()).To(Equal("bfm.driver"))
			Expect(b.Processes()[2].Name()).To(Equal("bfm.result_sampler"))
		})
	})

	Describe("Reset", func() {
		It("should hold rst for the configured number of cycles", func() {
			var rstCycles []uint64
			withScript(func(cycle uint64, pins *bfm.Pins) {
				if pins.Rst.Bool() {
					rstCycles = append(rstCycles, cycle)
				}
			}, bfm.WithResetCycles(4))

			sched.Spawn("test", func(p *kernel.Process) error {
				Expect(b.Reset(p)).To(Succeed())
				Expect(pins.Rst.Bool()).To(BeFalse())
				v, resolved := pins.InstValid.Value()
				Expect(resolved).To(BeTrue())
				Expect(v).To(BeZero())
				clk.Stop()
				return nil
			})

			Expect(clk.Run()).To(Succeed())
			Expect(rstCycles).To(Equal([]uint64{2, 3, 4, 5}))
		})
	})

	Describe("command sampling", func() {
		It("should capture a held inst_valid exactly once", func() {
			withScript(func(cycle uint64, pins *bfm.Pins) {
				held := cycle >= 20 && cycle < 25
				again := cycle == 40
				pins.InstReq.SetBool(held || again)
			})

			first := insts.MustEncode(insts.OpADDI, 1, 0, 0, 1)
			second := insts.MustEncode(insts.OpADDI, 2, 0, 0, 2)

			var (
				cmds     []bfm.RawCommand
				validRun int
			)
			test(func(p *kernel.Process) error {
				b.SendInstruction(p, first)
				for clk.Cycle() < 30 {
					clk.FallingEdges(p, 1)
					if pins.InstValid.Bool() {
						validRun++
					}
				}
				b.SendInstruction(p, second)
				cmds = append(cmds, b.GetCommand(p), b.GetCommand(p))
				clk.Stop()
				return nil
			})

			Expect(clk.Run()).To(Succeed())
			Expect(validRun).To(Equal(5))
			Expect(cmds).To(Equal([]bfm.RawCommand{
				bfm.RawCommand(first.Word),
				bfm.RawCommand(second.Word),
			}))
			Expect(clk.Cycle()).To(Equal(uint64(41)))
		})
	})

	Describe("result sampling", func() {
		It("should sample one settle cycle after the request rises", func() {
			withScript(func(cycle uint64, pins *bfm.Pins) {
				switch cycle {
				case 20:
					pins.InstReq.SetBool(true)
					pins.InstAddr.Set(0x10)
					pins.RegisterFile.At(1).Set(0xAA)
				case 21:
					pins.InstAddr.Set(0x14)
					pins.RegisterFile.At(1).Set(0xBB)
				case 22:
					pins.InstAddr.Set(0x18)
					pins.RegisterFile.At(1).Set(0xCC)
				}
			})

			var snapshot emu.State
			test(func(p *kernel.Process) error {
				snapshot = b.GetResult(p)
				clk.Stop()
				return nil
			})

			Expect(clk.Run()).To(Succeed())
			Expect(snapshot.PC).To(Equal(uint32(0x14)))
			Expect(snapshot.Regs[1]).To(Equal(uint32(0xBB)))
			Expect(clk.Cycle()).To(Equal(uint64(21)))
		})

		It("should honour a longer settle time", func() {
			withScript(func(cycle uint64, pins *bfm.Pins) {
				if cycle >= 20 {
					pins.InstReq.SetBool(true)
					pins.InstAddr.Set(cycle)
				}
			}, bfm.WithSettleCycles(3))

			var snapshot emu.State
			test(func(p *kernel.Process) error {
				snapshot = b.GetResult(p)
				clk.Stop()
				return nil
			})

			Expect(clk.Run()).To(Succeed())
			Expect(snapshot.PC).To(Equal(uint32(23)))
		})
	})

	Describe("stall detection", func() {
		It("should fail at exactly the stall limit", func() {
			withCore([]pipeline.PipelineOption{pipeline.WithHangAfter(0)})

			var started uint64
			test(func(p *kernel.Process) error {
				started = clk.Cycle()
				return nil
			})

			err := clk.Run()

			Expect(errors.Is(err, bfm.ErrStall)).To(BeTrue())
			Expect(b.IdleCycles()).To(Equal(bfm.DefaultStallLimit))
			Expect(clk.Cycle() - started).To(Equal(uint64(bfm.DefaultStallLimit)))
		})

		It("should reset the count on every retirement", func() {
			withScript(func(cycle uint64, pins *bfm.Pins) {
				pins.InstReq.SetBool(cycle%10 == 0)
			}, bfm.WithStallLimit(15))

			test(func(p *kernel.Process) error {
				clk.FallingEdges(p, 200)
				clk.Stop()
				return nil
			})

			Expect(clk.Run()).To(Succeed())
			Expect(b.IdleCycles()).To(BeNumerically("<", 15))
		})
	})

	Describe("data bus", func() {
		It("should echo the requested address", func() {
			var seen []uint64
			withScript(func(cycle uint64, pins *bfm.Pins) {
				if pins.DataValid.Bool() {
					seen = append(seen, pins.RData.Uint())
				}
				pins.DataReq.SetBool(cycle == 20)
				pins.DataAddr.Set(0x1234)
			})

			test(func(p *kernel.Process) error {
				clk.FallingEdges(p, 15)
				clk.Stop()
				return nil
			})

			Expect(clk.Run()).To(Succeed())
			Expect(seen).To(Equal([]uint64{0x1234}))
		})
	})

	Describe("with the core", func() {
		It("should produce one snapshot per instruction plus the reset state", func() {
			hooks := &hookCounter{counts: map[*sim.HookPos]int{}}
			withCore(nil)
			b.AcceptHook(hooks)

			program := []*insts.Instruction{
				insts.MustEncode(insts.OpADDI, 1, 0, 0, 7),
				insts.MustEncode(insts.OpLW, 2, 1, 0, 1),
				insts.MustEncode(insts.OpADD, 3, 1, 2, 0),
			}

			var results []emu.State
			test(func(p *kernel.Process) error {
				for _, inst := range program {
					b.SendInstruction(p, inst)
				}
				for len(results) < len(program)+1 {
					results = append(results, b.GetResult(p))
				}
				clk.Stop()
				return nil
			})

			Expect(clk.Run()).To(Succeed())

			golden := emu.NewEmulator()
			Expect(results[0]).To(Equal(emu.State{}))
			for i, inst := range program {
				want, err := golden.Execute(inst)
				Expect(err).NotTo(HaveOccurred())
				Expect(results[i+1]).To(Equal(want))
			}

			Expect(hooks.counts[bfm.HookPosInstructionDriven]).To(Equal(3))
			Expect(hooks.counts[bfm.HookPosCommandSampled]).To(Equal(3))
			Expect(hooks.counts[bfm.HookPosResultSampled]).To(Equal(4))
		})
	})
})
