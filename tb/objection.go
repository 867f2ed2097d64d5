package tb

import "github.com/pkg/errors"

// ErrNoObjection is returned when dropping an objection that was never
// raised.
var ErrNoObjection = errors.New("no objection raised")

// Objection keeps the simulation running while at least one participant
// still has work. When the last objection is dropped, onZero is called.
type Objection struct {
	count  int
	raised int
	onZero func()
}

// NewObjection creates an objection counter.
func NewObjection(onZero func()) *Objection {
	return &Objection{onZero: onZero}
}

// Raise adds one objection.
func (o *Objection) Raise() {
	o.count++
	o.raised++
}

// Drop removes one objection.
func (o *Objection) Drop() error {
	if o.count == 0 {
		return ErrNoObjection
	}

	o.count--
	if o.count == 0 && o.onZero != nil {
		o.onZero()
	}

	return nil
}

// Outstanding returns the number of raised but not dropped objections.
func (o *Objection) Outstanding() int {
	return o.count
}

// Raised returns how many objections were ever raised.
func (o *Objection) Raised() int {
	return o.raised
}
