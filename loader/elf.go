package loader

import (
	"debug/elf"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/sarchlab/coreverif/insts"
)

// LoadELF reads the executable segments of an RV32 ELF binary. Segments are
// concatenated in address order; the entry point must lie inside the first
// one.
func LoadELF(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open ELF file")
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, errors.New("not a 32-bit ELF file")
	}

	if f.Machine != elf.EM_RISCV {
		return nil, errors.Errorf(
			"not a RISC-V ELF file (machine type: %v)", f.Machine)
	}

	if f.Data != elf.ELFDATA2LSB {
		return nil, errors.New("not a little-endian ELF file")
	}

	prog := &Program{EntryPoint: uint32(f.Entry)}
	decoder := insts.NewDecoder()

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD || phdr.Flags&elf.PF_X == 0 {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, errors.Wrapf(err,
					"failed to read segment at 0x%x", phdr.Vaddr)
			}
			if uint64(n) != phdr.Filesz {
				return nil, errors.Errorf(
					"short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		if len(data)%4 != 0 {
			return nil, errors.Errorf(
				"segment at 0x%x is not a whole number of words", phdr.Vaddr)
		}

		for off := 0; off < len(data); off += 4 {
			word := binary.LittleEndian.Uint32(data[off:])
			inst, err := decode(decoder, word)
			if err != nil {
				return nil, errors.Wrapf(err,
					"at 0x%x", phdr.Vaddr+uint64(off))
			}
			prog.Instructions = append(prog.Instructions, inst)
		}
	}

	return prog, nil
}
