// Package hdl provides named bit-vector signals shared between the testbench
// and the simulated core.
//
// Writes to a signal are deferred. A write records the next value and the
// new value becomes visible only when the owning Bundle is committed, which
// the clock does once every process woken by an edge has suspended again.
// This gives the non-blocking assignment semantics of an HDL simulator: all
// readers at one edge observe the values from before that edge.
//
// A signal that has never been committed is unresolved. Reading it with Uint
// yields 0, the same way an undriven (X/Z) net converts to an integer.
package hdl

import (
	"fmt"
)

// Signal is a named bit vector of at most 64 bits.
type Signal struct {
	name     string
	width    uint
	value    uint64
	resolved bool

	next    uint64
	pending bool
	bundle  *Bundle
}

// Name returns the signal name.
func (s *Signal) Name() string {
	return s.name
}

// Width returns the number of bits of the signal.
func (s *Signal) Width() uint {
	return s.width
}

// Value returns the committed value and whether it is resolved.
func (s *Signal) Value() (uint64, bool) {
	return s.value, s.resolved
}

// Uint returns the committed value as a plain integer. Unresolved signals
// read as 0.
func (s *Signal) Uint() uint64 {
	if !s.resolved {
		return 0
	}
	return s.value
}

// Bool reports whether the committed value is non-zero.
func (s *Signal) Bool() bool {
	return s.Uint() != 0
}

// Set schedules v (truncated to the signal width) as the next value. The
// last Set before a commit wins.
func (s *Signal) Set(v uint64) {
	s.next = v & s.mask()
	if s.pending {
		return
	}
	s.pending = true
	s.bundle.dirty = append(s.bundle.dirty, s)
}

// SetBool schedules 1 for true and 0 for false.
func (s *Signal) SetBool(b bool) {
	if b {
		s.Set(1)
		return
	}
	s.Set(0)
}

// Pending reports whether a write is waiting for the next commit.
func (s *Signal) Pending() bool {
	return s.pending
}

func (s *Signal) commit() bool {
	changed := !s.resolved || s.value != s.next
	s.value = s.next
	s.resolved = true
	s.pending = false
	return changed
}

func (s *Signal) mask() uint64 {
	if s.width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << s.width) - 1
}

func (s *Signal) String() string {
	if !s.resolved {
		return fmt.Sprintf("%s=X", s.name)
	}
	return fmt.Sprintf("%s=0x%x", s.name, s.value)
}

// Array is a fixed-size ordered group of equally wide signals, such as a
// register file exposed as a whitebox view.
type Array struct {
	name  string
	elems []*Signal
}

// Name returns the array name.
func (a *Array) Name() string {
	return a.name
}

// Len returns the number of elements.
func (a *Array) Len() int {
	return len(a.elems)
}

// At returns the i-th element.
func (a *Array) At(i int) *Signal {
	return a.elems[i]
}

// Uints returns the committed values of all elements, unresolved ones as 0.
func (a *Array) Uints() []uint64 {
	out := make([]uint64, len(a.elems))
	for i, e := range a.elems {
		out[i] = e.Uint()
	}
	return out
}
