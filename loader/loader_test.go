package loader_test

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/coreverif/insts"
	"github.com/sarchlab/coreverif/loader"
)

const (
	addi = 0x00500093 // addi x1, x0, 5
	add  = 0x00108133 // add x2, x1, x1
)

var _ = Describe("Loader", func() {
	var tempDir string

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()
	})

	Describe("ParseHex", func() {
		It("should parse words with and without prefix", func() {
			prog, err := loader.ParseHex(strings.NewReader(
				"# program\n0x00500093\n\n00108133 // add\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Len()).To(Equal(2))
			Expect(prog.Instructions[0].Op).To(Equal(insts.OpADDI))
			Expect(prog.Instructions[1].Op).To(Equal(insts.OpADD))
			Expect(prog.EntryPoint).To(Equal(uint32(0)))
		})

		It("should name the line of a malformed word", func() {
			_, err := loader.ParseHex(strings.NewReader("0x00500093\nzz\n"))
			Expect(err).To(MatchError(ContainSubstring("line 2")))
		})

		It("should reject unsupported instructions", func() {
			_, err := loader.ParseHex(strings.NewReader("0x00000073\n"))
			Expect(errors.Is(err, loader.ErrUnsupportedInstruction)).To(BeTrue())
		})
	})

	Describe("Load", func() {
		It("should load a hex file", func() {
			path := filepath.Join(tempDir, "prog.hex")
			Expect(os.WriteFile(path, []byte("00500093\n"), 0644)).To(Succeed())

			prog, err := loader.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Len()).To(Equal(1))
		})

		It("should load an RV32 ELF file", func() {
			path := filepath.Join(tempDir, "prog.elf")
			createRV32ELF(path, 0x1000, 243, addi, add)

			prog, err := loader.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.EntryPoint).To(Equal(uint32(0x1000)))
			Expect(prog.Len()).To(Equal(2))
			Expect(prog.Instructions[0].Word).To(Equal(uint32(addi)))
			Expect(prog.Instructions[1].String()).To(Equal("add x2, x1, x1"))
		})

		It("should reject an ELF for another machine", func() {
			path := filepath.Join(tempDir, "x86.elf")
			createRV32ELF(path, 0x1000, 3, addi)

			_, err := loader.Load(path)
			Expect(err).To(MatchError(ContainSubstring("not a RISC-V")))
		})

		It("should fail for a missing file", func() {
			_, err := loader.Load(filepath.Join(tempDir, "missing"))
			Expect(err).To(HaveOccurred())
		})
	})
})

// createRV32ELF writes an ELF32 executable with one R+X PT_LOAD segment.
func createRV32ELF(path string, addr uint32, machine uint16, words ...uint32) {
	const ehsize, phsize = 52, 32

	code := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(code[4*i:], w)
	}

	h := make([]byte, ehsize)
	copy(h[0:4], []byte{0x7f, 'E', 'L', 'F'})
	h[4] = 1 // ELFCLASS32
	h[5] = 1 // little endian
	h[6] = 1
	binary.LittleEndian.PutUint16(h[16:18], 2) // ET_EXEC
	binary.LittleEndian.PutUint16(h[18:20], machine)
	binary.LittleEndian.PutUint32(h[20:24], 1)
	binary.LittleEndian.PutUint32(h[24:28], addr)
	binary.LittleEndian.PutUint32(h[28:32], ehsize)
	binary.LittleEndian.PutUint16(h[40:42], ehsize)
	binary.LittleEndian.PutUint16(h[42:44], phsize)
	binary.LittleEndian.PutUint16(h[44:46], 1)
	binary.LittleEndian.PutUint16(h[46:48], 40)

	ph := make([]byte, phsize)
	binary.LittleEndian.PutUint32(ph[0:4], 1) // PT_LOAD
	binary.LittleEndian.PutUint32(ph[4:8], ehsize+phsize)
	binary.LittleEndian.PutUint32(ph[8:12], addr)
	binary.LittleEndian.PutUint32(ph[12:16], addr)
	binary.LittleEndian.PutUint32(ph[16:20], uint32(len(code)))
	binary.LittleEndian.PutUint32(ph[20:24], uint32(len(code)))
	binary.LittleEndian.PutUint32(ph[24:28], 0x5) // PF_R | PF_X
	binary.LittleEndian.PutUint32(ph[28:32], 4)

	data := append(append(h, ph...), code...)
	Expect(os.WriteFile(path, data, 0644)).To(Succeed())
}
