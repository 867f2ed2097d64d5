package tb

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/coreverif/insts"
)

// ErrAlreadyRandomized is returned when an item is randomized twice.
var ErrAlreadyRandomized = errors.New("item already randomized")

// InstItem is one stimulus item: a single instruction to drive into the
// core.
type InstItem struct {
	Name        string
	Instruction *insts.Instruction

	randomized bool
	done       bool
}

// NewInstItem creates an empty item.
func NewInstItem(name string) *InstItem {
	return &InstItem{Name: name}
}

// NewDirectedItem creates an item carrying a given instruction.
func NewDirectedItem(name string, inst *insts.Instruction) *InstItem {
	return &InstItem{Name: name, Instruction: inst, randomized: true}
}

// Randomize draws the instruction from gen. An item is randomized at most
// once.
func (i *InstItem) Randomize(gen *insts.Generator) error {
	if i.randomized {
		return errors.Wrap(ErrAlreadyRandomized, i.Name)
	}

	i.Instruction = gen.Next()
	i.randomized = true

	return nil
}

// Done reports whether the driver has finished with the item.
func (i *InstItem) Done() bool {
	return i.done
}

func (i *InstItem) String() string {
	if i.Instruction == nil {
		return i.Name + ": <empty>"
	}
	return i.Name + ": " + i.Instruction.String()
}
