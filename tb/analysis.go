package tb

import "github.com/sarchlab/coreverif/kernel"

// Subscriber receives the values written to an analysis port.
type Subscriber[T any] interface {
	Write(v T)
}

// AnalysisPort broadcasts every written value to its subscribers, in
// connection order. Writing never blocks.
type AnalysisPort[T any] struct {
	name        string
	subscribers []Subscriber[T]
}

// NewAnalysisPort creates a port with no subscribers.
func NewAnalysisPort[T any](name string) *AnalysisPort[T] {
	return &AnalysisPort[T]{name: name}
}

// Name returns the port name.
func (ap *AnalysisPort[T]) Name() string {
	return ap.name
}

// Connect adds a subscriber.
func (ap *AnalysisPort[T]) Connect(s Subscriber[T]) {
	ap.subscribers = append(ap.subscribers, s)
}

// Write publishes v.
func (ap *AnalysisPort[T]) Write(v T) {
	for _, s := range ap.subscribers {
		s.Write(v)
	}
}

// AnalysisFIFO is an unbounded FIFO subscriber.
type AnalysisFIFO[T any] struct {
	q *kernel.Queue[T]
}

// NewAnalysisFIFO creates an empty FIFO on s.
func NewAnalysisFIFO[T any](s *kernel.Scheduler, name string) *AnalysisFIFO[T] {
	return &AnalysisFIFO[T]{q: kernel.NewQueue[T](s, name, 0)}
}

// Write appends v.
func (f *AnalysisFIFO[T]) Write(v T) {
	// An unbounded queue never reports full.
	_ = f.q.PutNoWait(v)
}

// TryGet pops the oldest value if there is one.
func (f *AnalysisFIFO[T]) TryGet() (T, bool) {
	return f.q.GetNoWait()
}

// Get suspends p until a value is available and pops it.
func (f *AnalysisFIFO[T]) Get(p *kernel.Process) T {
	return f.q.Get(p)
}

// Len returns the number of buffered values.
func (f *AnalysisFIFO[T]) Len() int {
	return f.q.Len()
}
