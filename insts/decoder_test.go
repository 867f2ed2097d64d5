package insts_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/coreverif/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("Register-register ALU", func() {
		// ADD x3, x1, x2 -> 0x002081B3
		It("should decode ADD x3, x1, x2", func() {
			inst := decoder.Decode(0x002081B3)

			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.Format).To(Equal(insts.FormatR))
			Expect(inst.Rd).To(Equal(uint8(3)))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Rs2).To(Equal(uint8(2)))
		})

		// SUB x3, x1, x2 -> 0x402081B3
		It("should decode SUB x3, x1, x2", func() {
			inst := decoder.Decode(0x402081B3)

			Expect(inst.Op).To(Equal(insts.OpSUB))
			Expect(inst.Format).To(Equal(insts.FormatR))
		})

		It("should reject an unused funct7", func() {
			inst := decoder.Decode(0x202081B3)

			Expect(inst.Op).To(Equal(insts.OpUnknown))
			Expect(inst.Format).To(Equal(insts.FormatUnknown))
		})
	})

	Describe("Register-immediate ALU", func() {
		// ADDI x1, x1, 42 -> 0x02A08093
		It("should decode ADDI x1, x1, 42", func() {
			inst := decoder.Decode(0x02A08093)

			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Format).To(Equal(insts.FormatI))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int32(42)))
		})

		// ADDI x1, x0, -1 -> 0xFFF00093
		It("should sign-extend the immediate", func() {
			inst := decoder.Decode(0xFFF00093)

			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Imm).To(Equal(int32(-1)))
		})

		// SRAI x5, x6, 3 -> 0x40335293
		It("should decode SRAI x5, x6, 3", func() {
			inst := decoder.Decode(0x40335293)

			Expect(inst.Op).To(Equal(insts.OpSRAI))
			Expect(inst.Rd).To(Equal(uint8(5)))
			Expect(inst.Rs1).To(Equal(uint8(6)))
			Expect(inst.Imm).To(Equal(int32(3)))
		})

		It("should reject SLLI with a non-zero funct7", func() {
			inst := decoder.Decode(0x40331293)
			Expect(inst.Op).To(Equal(insts.OpUnknown))
		})
	})

	Describe("Upper immediate and loads", func() {
		// LUI x7, 0x12345 -> 0x123453B7
		It("should decode LUI", func() {
			inst := decoder.Decode(0x123453B7)

			Expect(inst.Op).To(Equal(insts.OpLUI))
			Expect(inst.Format).To(Equal(insts.FormatU))
			Expect(inst.Rd).To(Equal(uint8(7)))
			Expect(inst.Imm).To(Equal(int32(0x12345000)))
		})

		// LW x4, -8(x2) -> 0xFF812203
		It("should decode LW", func() {
			inst := decoder.Decode(0xFF812203)

			Expect(inst.Op).To(Equal(insts.OpLW))
			Expect(inst.Format).To(Equal(insts.FormatLoad))
			Expect(inst.IsLoad()).To(BeTrue())
			Expect(inst.Rd).To(Equal(uint8(4)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int32(-8)))
		})

		It("should reject other load widths", func() {
			// LB x4, 0(x2)
			inst := decoder.Decode(0x00010203)
			Expect(inst.Op).To(Equal(insts.OpUnknown))
		})
	})

	It("should keep the raw word", func() {
		Expect(decoder.Decode(0xFFFFFFFF).Word).To(Equal(uint32(0xFFFFFFFF)))
	})
})

var _ = Describe("Encode", func() {
	It("should produce the reference encodings", func() {
		Expect(insts.MustEncode(insts.OpADD, 3, 1, 2, 0).Word).To(Equal(uint32(0x002081B3)))
		Expect(insts.MustEncode(insts.OpSUB, 3, 1, 2, 0).Word).To(Equal(uint32(0x402081B3)))
		Expect(insts.MustEncode(insts.OpADDI, 1, 1, 0, 42).Word).To(Equal(uint32(0x02A08093)))
		Expect(insts.MustEncode(insts.OpSRAI, 5, 6, 0, 3).Word).To(Equal(uint32(0x40335293)))
		Expect(insts.MustEncode(insts.OpLUI, 7, 0, 0, 0x12345000).Word).To(Equal(uint32(0x123453B7)))
		Expect(insts.MustEncode(insts.OpLW, 4, 2, 0, -8).Word).To(Equal(uint32(0xFF812203)))
	})

	DescribeTable("should reject invalid operands",
		func(op insts.Op, rd, rs1, rs2 uint8, imm int32) {
			_, err := insts.Encode(op, rd, rs1, rs2, imm)
			Expect(errors.Is(err, insts.ErrInvalidInstruction)).To(BeTrue())
		},
		Entry("unknown op", insts.OpUnknown, uint8(1), uint8(1), uint8(1), int32(0)),
		Entry("register 32", insts.OpADD, uint8(32), uint8(1), uint8(1), int32(0)),
		Entry("immediate too large", insts.OpADDI, uint8(1), uint8(1), uint8(0), int32(2048)),
		Entry("immediate too small", insts.OpLW, uint8(1), uint8(1), uint8(0), int32(-2049)),
		Entry("shift amount 32", insts.OpSLLI, uint8(1), uint8(1), uint8(0), int32(32)),
		Entry("negative shift", insts.OpSRLI, uint8(1), uint8(1), uint8(0), int32(-1)),
		Entry("LUI low bits", insts.OpLUI, uint8(1), uint8(0), uint8(0), int32(0x123)),
	)

	It("should panic in MustEncode on invalid operands", func() {
		Expect(func() { insts.MustEncode(insts.OpADDI, 1, 1, 0, 5000) }).To(Panic())
	})
})
