package emu_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/coreverif/emu"
	"github.com/sarchlab/coreverif/insts"
)

type fixedMemory map[uint32]uint32

func (m fixedMemory) Read32(addr uint32) uint32 {
	return m[addr]
}

var _ = Describe("Emulator", func() {
	var e *emu.Emulator

	BeforeEach(func() {
		e = emu.NewEmulator()
	})

	exec := func(op insts.Op, rd, rs1, rs2 uint8, imm int32) emu.State {
		s, err := e.Execute(insts.MustEncode(op, rd, rs1, rs2, imm))
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	Describe("NewEmulator", func() {
		It("should start from the reset state", func() {
			Expect(e.State()).To(Equal(emu.State{}))
			Expect(e.InstructionCount()).To(BeZero())
		})

		It("should honour the reset PC", func() {
			e = emu.NewEmulator(emu.WithResetPC(0x100))
			Expect(e.State().PC).To(Equal(uint32(0x100)))
		})
	})

	Describe("Execute", func() {
		It("should advance the PC by 4 per instruction", func() {
			exec(insts.OpADDI, 1, 0, 0, 1)
			s := exec(insts.OpADDI, 2, 0, 0, 2)

			Expect(s.PC).To(Equal(uint32(8)))
			Expect(e.InstructionCount()).To(Equal(uint64(2)))
		})

		It("should thread state from one instruction to the next", func() {
			exec(insts.OpADDI, 1, 0, 0, 40)
			exec(insts.OpADDI, 2, 0, 0, 2)
			s := exec(insts.OpADD, 3, 1, 2, 0)

			Expect(s.Regs[3]).To(Equal(uint32(42)))
		})

		It("should keep x0 at zero", func() {
			s := exec(insts.OpADDI, 0, 0, 0, 7)
			Expect(s.Regs[0]).To(BeZero())
		})

		It("should sign-extend immediates", func() {
			s := exec(insts.OpADDI, 1, 0, 0, -1)
			Expect(s.Regs[1]).To(Equal(uint32(0xFFFFFFFF)))
		})

		It("should place the upper immediate", func() {
			s := exec(insts.OpLUI, 5, 0, 0, 0x12345000)
			Expect(s.Regs[5]).To(Equal(uint32(0x12345000)))
		})

		It("should load the address from echo memory", func() {
			exec(insts.OpADDI, 2, 0, 0, 0x100)
			s := exec(insts.OpLW, 4, 2, 0, 8)

			Expect(s.Regs[4]).To(Equal(uint32(0x108)))
		})

		It("should load from the configured memory", func() {
			e = emu.NewEmulator(emu.WithMemory(fixedMemory{0x10: 0xCAFE}))
			s := exec(insts.OpLW, 1, 0, 0, 0x10)

			Expect(s.Regs[1]).To(Equal(uint32(0xCAFE)))
		})

		It("should reject unknown instructions without changing state", func() {
			exec(insts.OpADDI, 1, 0, 0, 3)
			before := e.State()

			s, err := e.Step(0xFFFFFFFF)

			Expect(errors.Is(err, emu.ErrUnknownInstruction)).To(BeTrue())
			Expect(s).To(Equal(before))
		})
	})

	Describe("Step", func() {
		It("should decode and execute a word", func() {
			s, err := e.Step(0xFFF00093) // addi x1, x0, -1
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Regs[1]).To(Equal(uint32(0xFFFFFFFF)))
		})
	})

	Describe("Reset", func() {
		It("should clear registers and the instruction count", func() {
			exec(insts.OpADDI, 1, 0, 0, 3)
			e.Reset()

			Expect(e.State()).To(Equal(emu.State{}))
			Expect(e.InstructionCount()).To(BeZero())
		})
	})
})

var _ = DescribeTable("Compute",
	func(op insts.Op, a, b, want uint32) {
		Expect(emu.Compute(op, a, b)).To(Equal(want))
	},
	Entry("add wraps", insts.OpADD, uint32(0xFFFFFFFF), uint32(2), uint32(1)),
	Entry("sub", insts.OpSUB, uint32(5), uint32(7), uint32(0xFFFFFFFE)),
	Entry("sll uses five bits", insts.OpSLL, uint32(1), uint32(33), uint32(2)),
	Entry("srl is logical", insts.OpSRL, uint32(0x80000000), uint32(31), uint32(1)),
	Entry("sra is arithmetic", insts.OpSRA, uint32(0x80000000), uint32(31), uint32(0xFFFFFFFF)),
	Entry("slt is signed", insts.OpSLT, uint32(0xFFFFFFFF), uint32(0), uint32(1)),
	Entry("sltu is unsigned", insts.OpSLTU, uint32(0xFFFFFFFF), uint32(0), uint32(0)),
	Entry("xor", insts.OpXORI, uint32(0xF0), uint32(0xFF), uint32(0x0F)),
	Entry("or", insts.OpOR, uint32(0xF0), uint32(0x0F), uint32(0xFF)),
	Entry("and", insts.OpANDI, uint32(0xF0), uint32(0x3C), uint32(0x30)),
	Entry("unknown", insts.OpUnknown, uint32(1), uint32(1), uint32(0)),
)

var _ = Describe("Diff", func() {
	It("should return nil for equal states", func() {
		s := emu.State{PC: 4}
		Expect(emu.Diff(s, s)).To(BeNil())
	})

	It("should name exactly the differing fields", func() {
		predicted := emu.State{PC: 8}.WithReg(3, 10)
		actual := emu.State{PC: 12}.WithReg(3, 11)

		diffs := emu.Diff(predicted, actual)

		Expect(diffs).To(Equal([]emu.FieldDiff{
			{Field: "x3", Predicted: 10, Actual: 11},
			{Field: "pc", Predicted: 8, Actual: 12},
		}))
		Expect(diffs[0].String()).To(ContainSubstring("x3"))
	})
})

var _ = Describe("StateFromUints", func() {
	It("should truncate values to 32 bits", func() {
		regs := make([]uint64, insts.NumRegs)
		regs[1] = 0x1_0000_0005

		s, err := emu.StateFromUints(regs, 0x1_0000_0004)

		Expect(err).NotTo(HaveOccurred())
		Expect(s.Regs[1]).To(Equal(uint32(5)))
		Expect(s.PC).To(Equal(uint32(4)))
	})

	It("should reject a register file of the wrong size", func() {
		_, err := emu.StateFromUints(make([]uint64, 4), 0)
		Expect(err).To(HaveOccurred())
	})
})
