package tb

import (
	"fmt"

	"github.com/sarchlab/coreverif/insts"
	"github.com/sarchlab/coreverif/kernel"
)

// DefaultSequenceLength is the number of items a RandomSequence generates
// when Count is zero.
const DefaultSequenceLength = 25

// Sequence produces stimulus items and hands them to a sequencer.
type Sequence interface {
	Name() string
	Body(p *kernel.Process, seqr *Sequencer) error
}

// RandomSequence generates Count random instructions.
type RandomSequence struct {
	Count     int
	Generator *insts.Generator
}

// NewRandomSequence creates a random sequence of count items seeded with
// seed.
func NewRandomSequence(count int, seed uint64) *RandomSequence {
	return &RandomSequence{
		Count:     count,
		Generator: insts.NewGenerator(seed),
	}
}

// Name returns the sequence name.
func (s *RandomSequence) Name() string {
	return "random_sequence"
}

// Body randomizes and sends one item at a time.
func (s *RandomSequence) Body(p *kernel.Process, seqr *Sequencer) error {
	count := s.Count
	if count == 0 {
		count = DefaultSequenceLength
	}

	for i := 0; i < count; i++ {
		item := NewInstItem(fmt.Sprintf("item_%d", i))

		seqr.StartItem(p, item)
		if err := item.Randomize(s.Generator); err != nil {
			return err
		}
		seqr.FinishItem(p, item)
	}

	return nil
}

// ProgramSequence sends a fixed list of instructions in order.
type ProgramSequence struct {
	Program []*insts.Instruction
}

// Name returns the sequence name.
func (s *ProgramSequence) Name() string {
	return "program_sequence"
}

// Body sends every instruction of the program.
func (s *ProgramSequence) Body(p *kernel.Process, seqr *Sequencer) error {
	for i, inst := range s.Program {
		item := NewDirectedItem(fmt.Sprintf("prog_%d", i), inst)

		seqr.StartItem(p, item)
		seqr.FinishItem(p, item)
	}

	return nil
}
