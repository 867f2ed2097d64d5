package kernel

import (
	"github.com/pkg/errors"
	"github.com/sarchlab/akita/v4/sim"
)

// ErrMaxCycles is returned when a clock reaches its cycle limit while still
// running.
var ErrMaxCycles = errors.New("cycle limit reached")

// HookPosRisingEdge marks a rising clock edge, after the sequential logic
// updated. The hook item is the cycle number.
var HookPosRisingEdge = &sim.HookPos{Name: "RisingEdge"}

// HookPosFallingEdge marks a falling clock edge. The hook item is the cycle
// number.
var HookPosFallingEdge = &sim.HookPos{Name: "FallingEdge"}

// Sequential is logic updated on every rising clock edge, such as the core
// under verification.
type Sequential interface {
	Tick()
}

// Committer applies deferred signal writes.
type Committer interface {
	Commit() int
}

type edgeEvent struct {
	*sim.EventBase
	rising bool
}

// Clock is the core clock. Each half period is one event on an akita engine.
//
// On a rising edge the clock ticks its sequential logic, then wakes the
// processes awaiting RisingEdge. On a falling edge it wakes the processes
// awaiting FallingEdge. After the woken processes settle, pending signal
// writes are committed.
type Clock struct {
	sim.HookableBase

	name      string
	engine    sim.Engine
	freq      sim.Freq
	sched     *Scheduler
	rising    *Event
	falling   *Event
	logic     []Sequential
	commits   []Committer
	maxCycles uint64

	halfCycles uint64
	cycle      uint64
	stopped    bool
	err        error
}

// ClockOption configures a Clock.
type ClockOption func(*Clock)

// WithMaxCycles stops the clock with ErrMaxCycles after n cycles. Zero means
// no limit.
func WithMaxCycles(n uint64) ClockOption {
	return func(c *Clock) {
		c.maxCycles = n
	}
}

// NewClock creates a clock that schedules its edges on engine.
func NewClock(
	name string,
	engine sim.Engine,
	freq sim.Freq,
	sched *Scheduler,
	opts ...ClockOption,
) *Clock {
	c := &Clock{
		name:    name,
		engine:  engine,
		freq:    freq,
		sched:   sched,
		rising:  sched.NewEvent(name + ".rising"),
		falling: sched.NewEvent(name + ".falling"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the clock name.
func (c *Clock) Name() string {
	return c.name
}

// RisingEdge returns the event fired on every rising edge.
func (c *Clock) RisingEdge() *Event {
	return c.rising
}

// FallingEdge returns the event fired on every falling edge.
func (c *Clock) FallingEdge() *Event {
	return c.falling
}

// Scheduler returns the scheduler the clock drives.
func (c *Clock) Scheduler() *Scheduler {
	return c.sched
}

// Cycle returns the number of rising edges so far.
func (c *Clock) Cycle() uint64 {
	return c.cycle
}

// Register adds sequential logic. Logic is ticked in registration order.
func (c *Clock) Register(l Sequential) {
	c.logic = append(c.logic, l)
}

// Attach adds a signal owner whose writes are committed after every edge.
func (c *Clock) Attach(cm Committer) {
	c.commits = append(c.commits, cm)
}

// Stop makes the current edge the last one.
func (c *Clock) Stop() {
	c.stopped = true
}

// Stopped reports whether Stop was called.
func (c *Clock) Stopped() bool {
	return c.stopped
}

// FallingEdges suspends p for n falling edges.
func (c *Clock) FallingEdges(p *Process, n int) {
	for i := 0; i < n; i++ {
		p.Await(c.falling)
	}
}

// Run settles the processes spawned so far, then runs the engine until the
// clock stops. It returns the first fatal process error, or ErrMaxCycles.
func (c *Clock) Run() error {
	err := c.sched.Settle()
	c.commit()
	if err != nil {
		return err
	}

	if !c.stopped {
		c.scheduleNext()
	}

	if err := c.engine.Run(); err != nil {
		return errors.Wrap(err, "engine")
	}

	return c.err
}

// Handle processes one clock edge.
func (c *Clock) Handle(e sim.Event) error {
	edge, ok := e.(*edgeEvent)
	if !ok {
		return errors.Errorf("%s: cannot handle event %T", c.name, e)
	}

	pos := HookPosFallingEdge
	if edge.rising {
		pos = HookPosRisingEdge
		c.cycle++
		for _, l := range c.logic {
			l.Tick()
		}
		c.rising.Fire()
	} else {
		c.falling.Fire()
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    pos,
		Item:   c.cycle,
	})

	err := c.sched.Settle()
	c.commit()

	switch {
	case err != nil:
		c.err = err
	case c.stopped:
	case c.maxCycles > 0 && c.cycle >= c.maxCycles && !edge.rising:
		c.err = errors.Wrapf(ErrMaxCycles, "%s after %d cycles", c.name, c.cycle)
	default:
		c.scheduleNext()
	}

	return c.err
}

func (c *Clock) commit() {
	for _, cm := range c.commits {
		cm.Commit()
	}
}

func (c *Clock) scheduleNext() {
	c.halfCycles++

	half := float64(c.freq.Period()) / 2
	t := sim.VTimeInSec(float64(c.halfCycles) * half)

	c.engine.Schedule(&edgeEvent{
		EventBase: sim.NewEventBase(t, c),
		rising:    c.halfCycles%2 == 1,
	})
}
