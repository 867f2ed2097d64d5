package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/coreverif/emu"
	"github.com/sarchlab/coreverif/insts"
	"github.com/sarchlab/coreverif/timing/cache"
	"github.com/sarchlab/coreverif/timing/latency"
	"github.com/sarchlab/coreverif/timing/pipeline"
)

// responder plays the bus side between rising edges: it answers fetch
// requests from a word list and echoes load addresses.
type responder struct {
	words []uint32
	in    pipeline.Inputs
}

func (r *responder) respond(out pipeline.Outputs) {
	r.in.Reset = false

	if out.InstReq {
		if len(r.words) > 0 {
			r.in.InstData = r.words[0]
			r.in.InstValid = true
			r.words = r.words[1:]
		}
	} else {
		r.in.InstValid = false
	}

	if out.DataReq {
		r.in.RData = out.DataAddr
		r.in.DataValid = true
	} else {
		r.in.DataValid = false
	}
}

var _ = Describe("Pipeline", func() {
	var (
		regFile *emu.RegFile
		p       *pipeline.Pipeline
		bus     *responder
		cycle   int
		outs    []pipeline.Outputs
	)

	word := func(op insts.Op, rd, rs1, rs2 uint8, imm int32) uint32 {
		return insts.MustEncode(op, rd, rs1, rs2, imm).Word
	}

	tick := func() pipeline.Outputs {
		out := p.Tick(bus.in)
		outs = append(outs, out)
		cycle++
		bus.respond(out)
		return out
	}

	reset := func() {
		bus.in.Reset = true
		tick()
	}

	// runUntilRetired ticks until n instructions retired and returns the
	// cycles at which they did.
	runUntilRetired := func(n int) []int {
		var retired []int
		last := p.Stats().Instructions
		for i := 0; i < 200 && len(retired) < n; i++ {
			tick()
			if got := p.Stats().Instructions; got != last {
				retired = append(retired, cycle)
				last = got
			}
		}
		Expect(retired).To(HaveLen(n))
		return retired
	}

	setup := func(opts ...pipeline.PipelineOption) {
		regFile = &emu.RegFile{}
		p = pipeline.NewPipeline(regFile, opts...)
	}

	BeforeEach(func() {
		bus = &responder{}
		cycle = 0
		outs = nil
		setup()
	})

	It("should stay idle until reset", func() {
		for i := 0; i < 5; i++ {
			Expect(tick().InstReq).To(BeFalse())
		}
	})

	It("should request the first instruction after reset", func() {
		reset()
		Expect(outs[0].InstReq).To(BeFalse())

		out := tick()
		Expect(out.InstReq).To(BeTrue())
		Expect(out.InstAddr).To(BeZero())
	})

	It("should execute an immediate instruction", func() {
		bus.words = []uint32{word(insts.OpADDI, 1, 0, 0, 5)}
		reset()

		runUntilRetired(1)

		last := outs[len(outs)-1]
		Expect(last.Write).To(Equal(&pipeline.RegWrite{Rd: 1, Value: 5}))
		Expect(last.InstReq).To(BeTrue())
		Expect(last.InstAddr).To(BeZero())
		Expect(regFile.X[1]).To(Equal(uint32(5)))
		Expect(p.PC()).To(Equal(uint32(4)))

		Expect(tick().InstAddr).To(Equal(uint32(4)))
	})

	It("should take five cycles from capture to writeback", func() {
		bus.words = []uint32{
			word(insts.OpADDI, 1, 0, 0, 1),
			word(insts.OpADDI, 2, 0, 0, 2),
		}
		reset()

		retired := runUntilRetired(2)

		// request, capture, ID, EX, MEM, WB
		Expect(retired[0]).To(Equal(1 + 6))
		Expect(retired[1] - retired[0]).To(Equal(5))
	})

	It("should forward earlier results to later instructions", func() {
		bus.words = []uint32{
			word(insts.OpADDI, 1, 0, 0, 40),
			word(insts.OpADDI, 2, 0, 0, 2),
			word(insts.OpADD, 3, 1, 2, 0),
		}
		reset()

		runUntilRetired(3)

		Expect(regFile.X[3]).To(Equal(uint32(42)))
		Expect(p.Busy()).To(BeFalse())
	})

	It("should load over the data bus", func() {
		bus.words = []uint32{
			word(insts.OpADDI, 2, 0, 0, 0x100),
			word(insts.OpLW, 4, 2, 0, 8),
		}
		reset()

		retired := runUntilRetired(2)

		Expect(regFile.X[4]).To(Equal(uint32(0x108)))
		Expect(retired[1] - retired[0]).To(Equal(6))

		var requests int
		for _, out := range outs {
			if out.DataReq {
				requests++
				Expect(out.DataAddr).To(Equal(uint32(0x108)))
			}
		}
		Expect(requests).To(Equal(1))
		Expect(p.Stats().MemStalls).To(Equal(uint64(1)))
	})

	It("should stall for multi-cycle execution", func() {
		config := latency.DefaultTimingConfig()
		config.ALULatency = 3
		setup(pipeline.WithLatencyTable(latency.NewTableWithConfig(config)))

		bus.words = []uint32{
			word(insts.OpXORI, 1, 0, 0, 1),
			word(insts.OpXORI, 2, 0, 0, 1),
		}
		reset()

		retired := runUntilRetired(2)

		Expect(retired[1] - retired[0]).To(Equal(7))
		Expect(p.Stats().ExecStalls).To(Equal(uint64(4)))
	})

	It("should add cache latency to loads", func() {
		setup(pipeline.WithDCache(cache.Config{
			Size:          1024,
			Associativity: 2,
			BlockSize:     64,
			HitLatency:    1,
			MissLatency:   4,
		}))

		bus.words = []uint32{
			word(insts.OpLW, 1, 0, 0, 0x40),
			word(insts.OpLW, 2, 0, 0, 0x44),
			word(insts.OpLW, 3, 0, 0, 0x48),
		}
		reset()

		retired := runUntilRetired(3)

		Expect(regFile.X[2]).To(Equal(uint32(0x44)))
		Expect(retired[2] - retired[1]).To(Equal(6 + 1))
		Expect(p.Stats().Cache.Misses).To(Equal(uint64(1)))
		Expect(p.Stats().Cache.Hits).To(Equal(uint64(2)))
	})

	It("should empty the data cache on reset", func() {
		setup(pipeline.WithDCache(cache.Config{
			Size:          1024,
			Associativity: 2,
			BlockSize:     64,
			HitLatency:    1,
			MissLatency:   4,
		}))

		bus.words = []uint32{
			word(insts.OpLW, 1, 0, 0, 0x40),
			word(insts.OpLW, 2, 0, 0, 0x44),
		}
		reset()
		runUntilRetired(2)

		bus.words = []uint32{word(insts.OpLW, 3, 0, 0, 0x48)}
		reset()
		runUntilRetired(1)

		Expect(p.Stats().Cache.Misses).To(Equal(uint64(1)))
		Expect(p.Stats().Cache.Hits).To(BeZero())
	})

	It("should retire unknown instructions as no-ops", func() {
		bus.words = []uint32{0xFFFFFFFF}
		reset()

		runUntilRetired(1)

		Expect(regFile.X).To(Equal([insts.NumRegs]uint32{}))
		Expect(p.PC()).To(Equal(uint32(4)))
	})

	It("should corrupt written values once a fault is active", func() {
		setup(pipeline.WithFault(pipeline.Fault{AfterRetired: 1, XORMask: 0x1}))
		bus.words = []uint32{
			word(insts.OpADDI, 1, 0, 0, 4),
			word(insts.OpADDI, 2, 0, 0, 4),
		}
		reset()

		runUntilRetired(2)

		Expect(regFile.X[1]).To(Equal(uint32(4)))
		Expect(regFile.X[2]).To(Equal(uint32(5)))
	})

	It("should stop requesting after the hang point", func() {
		setup(pipeline.WithHangAfter(1))
		bus.words = []uint32{
			word(insts.OpADDI, 1, 0, 0, 1),
			word(insts.OpADDI, 2, 0, 0, 2),
		}
		reset()

		runUntilRetired(1)
		for i := 0; i < 20; i++ {
			Expect(tick().InstReq).To(BeFalse())
		}
		Expect(p.Fetching()).To(BeFalse())
	})

	It("should clear architectural state on reset", func() {
		bus.words = []uint32{word(insts.OpADDI, 1, 0, 0, 9)}
		reset()
		runUntilRetired(1)

		reset()

		Expect(regFile.X[1]).To(BeZero())
		Expect(p.PC()).To(BeZero())
		Expect(p.Stats().Instructions).To(BeZero())
	})
})
