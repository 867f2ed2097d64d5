// Package kernel runs logically concurrent simulation processes on a single
// thread of control.
//
// Each process is backed by a goroutine, but a process only executes while it
// holds the scheduler baton. The scheduler hands the baton to one ready
// process at a time and takes it back when that process suspends (awaiting an
// Event or a Queue) or returns. Processes woken by the same Event resume in
// the order they started waiting, so the order in which processes are spawned
// fixes the order in which they observe a clock edge.
//
// A process that returns a non-nil error (or panics) is fatal: the scheduler
// records the first such error and stops resuming processes.
package kernel

import (
	"runtime"

	"github.com/pkg/errors"
)

// Scheduler owns the ready list and the baton.
type Scheduler struct {
	ready   []*Process
	procs   []*Process
	current *Process
	yield   chan struct{}
	kill    chan struct{}
	closed  bool
	err     error
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		yield: make(chan struct{}),
		kill:  make(chan struct{}),
	}
}

// Spawn creates a process and appends it to the ready list. The body starts
// executing at the next Settle.
func (s *Scheduler) Spawn(name string, body func(p *Process) error) *Process {
	if s.closed {
		panic("kernel: spawn on a closed scheduler")
	}

	p := &Process{
		name:  name,
		sched: s,
		wake:  make(chan struct{}),
		state: stateReady,
	}
	p.finished = s.NewEvent(name + ".finished")

	go p.run(body)

	s.procs = append(s.procs, p)
	s.ready = append(s.ready, p)

	return p
}

// Settle resumes ready processes until none is left or a process failed.
// It returns the first fatal error.
func (s *Scheduler) Settle() error {
	for len(s.ready) > 0 && s.err == nil {
		p := s.ready[0]
		s.ready[0] = nil
		s.ready = s.ready[1:]

		s.resume(p)
	}

	return s.err
}

// Err returns the first fatal process error, if any.
func (s *Scheduler) Err() error {
	return s.err
}

// Current returns the process holding the baton, or nil between processes.
func (s *Scheduler) Current() *Process {
	return s.current
}

// Ready returns the number of processes waiting to be resumed.
func (s *Scheduler) Ready() int {
	return len(s.ready)
}

// Processes returns every process spawned so far, in spawn order.
func (s *Scheduler) Processes() []*Process {
	return s.procs
}

// Close terminates every suspended process. The scheduler cannot be used
// afterwards.
func (s *Scheduler) Close() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.kill)
}

func (s *Scheduler) resume(p *Process) {
	s.current = p
	p.state = stateRunning
	p.wake <- struct{}{}
	<-s.yield
	s.current = nil
}

func (s *Scheduler) fail(p *Process, err error) {
	if s.err != nil {
		return
	}
	s.err = errors.WithMessagef(err, "process %s", p.name)
}

type procState int

const (
	stateReady procState = iota
	stateRunning
	stateWaiting
	stateDone
)

// Process is one cooperative thread of simulation.
type Process struct {
	name     string
	sched    *Scheduler
	wake     chan struct{}
	state    procState
	killed   bool
	err      error
	finished *Event
}

// Name returns the process name.
func (p *Process) Name() string {
	return p.name
}

// Done reports whether the process body has returned.
func (p *Process) Done() bool {
	return p.state == stateDone
}

// Err returns the error the body returned.
func (p *Process) Err() error {
	return p.err
}

// Finished is fired once when the process body returns.
func (p *Process) Finished() *Event {
	return p.finished
}

// Await suspends p until e fires.
func (p *Process) Await(e *Event) {
	p.mustHoldBaton()
	e.waiters = append(e.waiters, p)
	p.suspend()
}

// Join suspends p until other has finished.
func (p *Process) Join(other *Process) {
	if other.Done() {
		return
	}
	p.Await(other.finished)
}

func (p *Process) run(body func(p *Process) error) {
	var err error

	defer func() {
		if p.killed {
			return
		}
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
		p.finish(err)
	}()

	if !p.park() {
		return
	}

	err = body(p)
}

func (p *Process) finish(err error) {
	p.state = stateDone
	p.err = err
	if err != nil {
		p.sched.fail(p, err)
	}
	p.finished.Fire()
	p.sched.yield <- struct{}{}
}

func (p *Process) suspend() {
	p.state = stateWaiting
	p.sched.yield <- struct{}{}
	if !p.park() {
		runtime.Goexit()
	}
}

func (p *Process) park() bool {
	select {
	case <-p.wake:
		return true
	case <-p.sched.kill:
		p.killed = true
		return false
	}
}

func (p *Process) mustHoldBaton() {
	if p.sched.current != p {
		panic("kernel: process " + p.name + " suspended without holding the baton")
	}
}
