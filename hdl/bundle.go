package hdl

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// ErrUnknownSignal is returned when a lookup names a signal that does not
// exist in the bundle.
var ErrUnknownSignal = errors.New("unknown signal")

// Bundle owns a set of signals and arrays and commits their pending writes.
type Bundle struct {
	name    string
	signals map[string]*Signal
	arrays  map[string]*Array
	dirty   []*Signal
}

// NewBundle creates an empty bundle.
func NewBundle(name string) *Bundle {
	return &Bundle{
		name:    name,
		signals: make(map[string]*Signal),
		arrays:  make(map[string]*Array),
	}
}

// Name returns the bundle name.
func (b *Bundle) Name() string {
	return b.name
}

// NewSignal adds a signal. Widths outside 1..64 and duplicate names panic,
// since they can only come from a wrongly built model.
func (b *Bundle) NewSignal(name string, width uint) *Signal {
	if width == 0 || width > 64 {
		panic(fmt.Sprintf("hdl: signal %q has invalid width %d", name, width))
	}
	if _, found := b.signals[name]; found {
		panic(fmt.Sprintf("hdl: signal %q already exists in %s", name, b.name))
	}

	s := &Signal{name: name, width: width, bundle: b}
	b.signals[name] = s

	return s
}

// NewArray adds an array of n signals named name[0] .. name[n-1].
func (b *Bundle) NewArray(name string, n int, width uint) *Array {
	if _, found := b.arrays[name]; found {
		panic(fmt.Sprintf("hdl: array %q already exists in %s", name, b.name))
	}

	a := &Array{name: name, elems: make([]*Signal, n)}
	for i := range a.elems {
		a.elems[i] = b.NewSignal(fmt.Sprintf("%s[%d]", name, i), width)
	}
	b.arrays[name] = a

	return a
}

// Signal looks up a signal by name.
func (b *Bundle) Signal(name string) (*Signal, error) {
	s, found := b.signals[name]
	if !found {
		return nil, errors.Wrapf(ErrUnknownSignal, "%s: %q", b.name, name)
	}
	return s, nil
}

// Array looks up an array by name.
func (b *Bundle) Array(name string) (*Array, error) {
	a, found := b.arrays[name]
	if !found {
		return nil, errors.Wrapf(ErrUnknownSignal, "%s: array %q", b.name, name)
	}
	return a, nil
}

// Names lists all signal names in lexical order.
func (b *Bundle) Names() []string {
	names := make([]string, 0, len(b.signals))
	for n := range b.signals {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Commit applies every pending write in the order the signals were first
// written and returns how many signals changed value.
func (b *Bundle) Commit() int {
	changed := 0
	for _, s := range b.dirty {
		if s.commit() {
			changed++
		}
	}
	b.dirty = b.dirty[:0]
	return changed
}

// Pending returns the number of signals with an uncommitted write.
func (b *Bundle) Pending() int {
	return len(b.dirty)
}
