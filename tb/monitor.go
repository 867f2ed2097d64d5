package tb

import (
	"io"
	"log"

	"github.com/pkg/errors"

	"github.com/sarchlab/coreverif/bfm"
	"github.com/sarchlab/coreverif/kernel"
)

var (
	// ErrUnknownStream is returned by NewMonitor for an undefined stream.
	ErrUnknownStream = errors.New("unknown stream")

	// ErrStreamType is returned by NewMonitor when the monitor's value type
	// is not the type the stream carries.
	ErrStreamType = errors.New("monitor type does not match stream")
)

// Stream selects which BFM output a monitor observes.
type Stream int

// Streams.
const (
	CommandStream Stream = iota
	ResultStream
)

func (s Stream) String() string {
	switch s {
	case CommandStream:
		return "command"
	case ResultStream:
		return "result"
	default:
		return "unknown"
	}
}

// Monitor republishes every value of one BFM stream on its analysis port.
type Monitor[T any] struct {
	AP *AnalysisPort[T]

	name      string
	stream    Stream
	source    func(p *kernel.Process) T
	logger    *log.Logger
	verbose   bool
	count     int
	published *kernel.Event
}

func newMonitor[T any](
	s *kernel.Scheduler,
	name string,
	stream Stream,
	source func(p *kernel.Process) T,
) *Monitor[T] {
	return &Monitor[T]{
		AP:        NewAnalysisPort[T](name + ".ap"),
		name:      name,
		stream:    stream,
		source:    source,
		logger:    log.New(io.Discard, "", 0),
		published: s.NewEvent(name + ".published"),
	}
}

// NewMonitor creates a monitor of one BFM stream. CommandStream carries
// bfm.RawCommand values and ResultStream carries emu.State values.
func NewMonitor[T any](b *bfm.BFM, stream Stream) (*Monitor[T], error) {
	var source any
	switch stream {
	case CommandStream:
		source = b.GetCommand
	case ResultStream:
		source = b.GetResult
	default:
		return nil, errors.Wrapf(ErrUnknownStream, "stream %d", int(stream))
	}

	fn, ok := source.(func(*kernel.Process) T)
	if !ok {
		return nil, errors.Wrapf(ErrStreamType, "%v stream", stream)
	}

	return newMonitor(b.Clock().Scheduler(), stream.String()+"_monitor",
		stream, fn), nil
}

// SetLogger sets the logger. Observations are only logged when verbose.
func (m *Monitor[T]) SetLogger(l *log.Logger, verbose bool) {
	m.logger = l
	m.verbose = verbose
}

// Name returns the monitor name.
func (m *Monitor[T]) Name() string {
	return m.name
}

// Stream returns the observed stream.
func (m *Monitor[T]) Stream() Stream {
	return m.stream
}

// Count returns the number of published values.
func (m *Monitor[T]) Count() int {
	return m.count
}

// Published fires after every publication.
func (m *Monitor[T]) Published() *kernel.Event {
	return m.published
}

// Run forwards values forever.
func (m *Monitor[T]) Run(p *kernel.Process) error {
	for {
		v := m.source(p)

		if m.verbose {
			m.logger.Printf("%s: %v", m.name, v)
		}

		m.count++
		m.AP.Write(v)
		m.published.Fire()
	}
}
