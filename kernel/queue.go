package kernel

import "github.com/pkg/errors"

// ErrQueueFull is returned by PutNoWait on a full bounded queue.
var ErrQueueFull = errors.New("queue full")

// Queue is a FIFO channel between processes. A capacity of 0 makes the queue
// unbounded. Get suspends while the queue is empty and Put suspends while a
// bounded queue is full.
type Queue[T any] struct {
	name     string
	capacity int
	items    []T
	notEmpty *Event
	notFull  *Event
}

// NewQueue creates a queue. Capacity 0 means unbounded.
func NewQueue[T any](s *Scheduler, name string, capacity int) *Queue[T] {
	if capacity < 0 {
		panic("kernel: negative queue capacity")
	}

	return &Queue[T]{
		name:     name,
		capacity: capacity,
		notEmpty: s.NewEvent(name + ".not_empty"),
		notFull:  s.NewEvent(name + ".not_full"),
	}
}

// Name returns the queue name.
func (q *Queue[T]) Name() string {
	return q.name
}

// Capacity returns the bound, 0 for unbounded.
func (q *Queue[T]) Capacity() int {
	return q.capacity
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Empty reports whether the queue holds no item.
func (q *Queue[T]) Empty() bool {
	return len(q.items) == 0
}

// Full reports whether a Put would suspend.
func (q *Queue[T]) Full() bool {
	return q.capacity > 0 && len(q.items) >= q.capacity
}

// Put appends v, suspending p while the queue is full.
func (q *Queue[T]) Put(p *Process, v T) {
	for q.Full() {
		p.Await(q.notFull)
	}
	q.push(v)
}

// PutNoWait appends v or returns ErrQueueFull.
func (q *Queue[T]) PutNoWait(v T) error {
	if q.Full() {
		return errors.Wrap(ErrQueueFull, q.name)
	}
	q.push(v)
	return nil
}

// Get removes the oldest item, suspending p while the queue is empty.
func (q *Queue[T]) Get(p *Process) T {
	for q.Empty() {
		p.Await(q.notEmpty)
	}
	return q.pop()
}

// GetNoWait removes the oldest item if there is one.
func (q *Queue[T]) GetNoWait() (T, bool) {
	if q.Empty() {
		var zero T
		return zero, false
	}
	return q.pop(), true
}

// Peek returns the oldest item without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	if q.Empty() {
		var zero T
		return zero, false
	}
	return q.items[0], true
}

func (q *Queue[T]) push(v T) {
	q.items = append(q.items, v)
	q.notEmpty.Fire()
}

func (q *Queue[T]) pop() T {
	var zero T

	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	q.notFull.Fire()

	return v
}
