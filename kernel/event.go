package kernel

// Event is a one-shot wake-up point. Every process waiting when the event
// fires becomes ready, in the order it started waiting. Processes that await
// the event afterwards wait for the next firing.
type Event struct {
	name    string
	sched   *Scheduler
	waiters []*Process
	fired   uint64
}

// NewEvent creates an event bound to the scheduler.
func (s *Scheduler) NewEvent(name string) *Event {
	return &Event{name: name, sched: s}
}

// Name returns the event name.
func (e *Event) Name() string {
	return e.name
}

// Fire makes all current waiters ready.
func (e *Event) Fire() {
	e.fired++

	for _, p := range e.waiters {
		p.state = stateReady
		e.sched.ready = append(e.sched.ready, p)
	}
	e.waiters = e.waiters[:0]
}

// Count returns how many times the event has fired.
func (e *Event) Count() uint64 {
	return e.fired
}

// Waiting returns the number of processes currently waiting.
func (e *Event) Waiting() int {
	return len(e.waiters)
}
