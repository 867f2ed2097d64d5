package tb

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/coreverif/kernel"
)

// ErrNoItem is returned by ItemDone when no item is with the driver.
var ErrNoItem = errors.New("no item in progress")

// Sequencer hands stimulus items from sequences to the driver one at a
// time. A sequence's FinishItem returns only after the driver called
// ItemDone for that item.
type Sequencer struct {
	name     string
	handoff  *kernel.Queue[*InstItem]
	itemDone *kernel.Event

	current        *InstItem
	outstanding    int
	maxOutstanding int
	completed      int
}

// NewSequencer creates a sequencer on s.
func NewSequencer(s *kernel.Scheduler, name string) *Sequencer {
	return &Sequencer{
		name:     name,
		handoff:  kernel.NewQueue[*InstItem](s, name+".handoff", 1),
		itemDone: s.NewEvent(name + ".item_done"),
	}
}

// Name returns the sequencer name.
func (s *Sequencer) Name() string {
	return s.name
}

// StartItem waits until the sequencer may accept item.
func (s *Sequencer) StartItem(p *kernel.Process, item *InstItem) {
	for s.outstanding > 0 || s.handoff.Full() {
		p.Await(s.itemDone)
	}
}

// FinishItem hands item to the driver and waits until it is done.
func (s *Sequencer) FinishItem(p *kernel.Process, item *InstItem) {
	s.handoff.Put(p, item)

	s.outstanding++
	if s.outstanding > s.maxOutstanding {
		s.maxOutstanding = s.outstanding
	}

	for !item.done {
		p.Await(s.itemDone)
	}
}

// GetNextItem suspends the driver until an item is available.
func (s *Sequencer) GetNextItem(p *kernel.Process) *InstItem {
	item := s.handoff.Get(p)
	s.current = item
	return item
}

// ItemDone completes the item most recently returned by GetNextItem.
func (s *Sequencer) ItemDone() error {
	if s.current == nil {
		return errors.Wrap(ErrNoItem, s.name)
	}

	s.current.done = true
	s.current = nil
	s.outstanding--
	s.completed++
	s.itemDone.Fire()

	return nil
}

// MaxOutstanding returns the largest number of items that were ever handed
// over but not completed at the same time.
func (s *Sequencer) MaxOutstanding() int {
	return s.maxOutstanding
}

// Completed returns the number of completed items.
func (s *Sequencer) Completed() int {
	return s.completed
}
