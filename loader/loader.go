// Package loader reads directed instruction programs.
//
// Two formats are accepted: a text file with one hexadecimal instruction
// word per line, and a 32-bit little-endian RISC-V ELF executable whose
// executable PT_LOAD segments hold the program.
package loader

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sarchlab/coreverif/insts"
)

// ErrUnsupportedInstruction is returned when a word outside the supported
// instruction subset is found in a program.
var ErrUnsupportedInstruction = errors.New("unsupported instruction")

var elfMagic = []byte{0x7f, 'E', 'L', 'F'}

// Program is a loaded instruction sequence.
type Program struct {
	// EntryPoint is the address of the first instruction. Hex programs start
	// at 0.
	EntryPoint uint32
	// Instructions in program order.
	Instructions []*insts.Instruction
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.Instructions)
}

// Load reads a program, detecting the format from the file contents.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open program")
	}
	defer func() { _ = f.Close() }()

	magic := make([]byte, len(elfMagic))
	n, _ := io.ReadFull(f, magic)
	if n == len(elfMagic) && bytes.Equal(magic, elfMagic) {
		return LoadELF(path)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "failed to rewind program")
	}

	return ParseHex(f)
}

// ParseHex parses one instruction word per line. Blank lines and text after
// '#' or "//" are ignored. The 0x prefix is optional.
func ParseHex(r io.Reader) (*Program, error) {
	prog := &Program{}
	decoder := insts.NewDecoder()

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++

		text := scanner.Text()
		if i := strings.Index(text, "#"); i >= 0 {
			text = text[:i]
		}
		if i := strings.Index(text, "//"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		text = strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
		word, err := strconv.ParseUint(text, 16, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}

		inst, err := decode(decoder, uint32(word))
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}

		prog.Instructions = append(prog.Instructions, inst)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read program")
	}

	return prog, nil
}

func decode(decoder *insts.Decoder, word uint32) (*insts.Instruction, error) {
	inst := decoder.Decode(word)
	if inst.Op == insts.OpUnknown {
		return nil, errors.Wrapf(ErrUnsupportedInstruction, "0x%08x", word)
	}
	return inst, nil
}
