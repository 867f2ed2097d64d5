package hdl_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/coreverif/hdl"
)

var _ = Describe("Signal", func() {
	var (
		bundle *hdl.Bundle
		sig    *hdl.Signal
	)

	BeforeEach(func() {
		bundle = hdl.NewBundle("dut")
		sig = bundle.NewSignal("inst_data", 32)
	})

	It("should read unresolved signals as zero", func() {
		v, resolved := sig.Value()
		Expect(resolved).To(BeFalse())
		Expect(v).To(BeZero())
		Expect(sig.Uint()).To(BeZero())
		Expect(sig.String()).To(Equal("inst_data=X"))
	})

	It("should defer writes until commit", func() {
		sig.Set(0x1234)

		Expect(sig.Uint()).To(BeZero())
		Expect(sig.Pending()).To(BeTrue())
		Expect(bundle.Pending()).To(Equal(1))

		Expect(bundle.Commit()).To(Equal(1))
		Expect(sig.Uint()).To(Equal(uint64(0x1234)))
		Expect(sig.Pending()).To(BeFalse())
	})

	It("should keep the last write before a commit", func() {
		sig.Set(1)
		sig.Set(2)

		Expect(bundle.Pending()).To(Equal(1))
		bundle.Commit()
		Expect(sig.Uint()).To(Equal(uint64(2)))
	})

	It("should truncate values to the signal width", func() {
		flag := bundle.NewSignal("inst_valid", 1)
		flag.Set(3)
		sig.Set(0x1_0000_0001)
		bundle.Commit()

		Expect(flag.Uint()).To(Equal(uint64(1)))
		Expect(sig.Uint()).To(Equal(uint64(1)))
	})

	It("should count only changed signals on commit", func() {
		sig.Set(5)
		bundle.Commit()

		sig.Set(5)
		Expect(bundle.Commit()).To(BeZero())
	})

	It("should drive booleans", func() {
		flag := bundle.NewSignal("rst", 1)
		flag.SetBool(true)
		bundle.Commit()
		Expect(flag.Bool()).To(BeTrue())

		flag.SetBool(false)
		bundle.Commit()
		Expect(flag.Bool()).To(BeFalse())
	})
})

var _ = Describe("Bundle", func() {
	var bundle *hdl.Bundle

	BeforeEach(func() {
		bundle = hdl.NewBundle("dut")
	})

	It("should look up signals by name", func() {
		s := bundle.NewSignal("inst_req", 1)

		found, err := bundle.Signal("inst_req")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeIdenticalTo(s))
	})

	It("should fail on unknown names", func() {
		_, err := bundle.Signal("nope")
		Expect(errors.Is(err, hdl.ErrUnknownSignal)).To(BeTrue())

		_, err = bundle.Array("nope")
		Expect(errors.Is(err, hdl.ErrUnknownSignal)).To(BeTrue())
	})

	It("should reject duplicate and malformed signals", func() {
		bundle.NewSignal("rst", 1)
		Expect(func() { bundle.NewSignal("rst", 1) }).To(Panic())
		Expect(func() { bundle.NewSignal("wide", 65) }).To(Panic())
	})

	It("should create arrays of element signals", func() {
		regs := bundle.NewArray("register_file", 4, 32)

		Expect(regs.Len()).To(Equal(4))
		Expect(regs.At(2).Name()).To(Equal("register_file[2]"))

		regs.At(1).Set(7)
		bundle.Commit()

		Expect(regs.Uints()).To(Equal([]uint64{0, 7, 0, 0}))

		found, err := bundle.Array("register_file")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeIdenticalTo(regs))
	})

	It("should list names in order", func() {
		bundle.NewSignal("rst", 1)
		bundle.NewSignal("data_req", 1)

		Expect(bundle.Names()).To(Equal([]string{"data_req", "rst"}))
	})
})
