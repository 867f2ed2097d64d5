package tb

import (
	"io"
	"log"

	"github.com/sarchlab/coreverif/bfm"
	"github.com/sarchlab/coreverif/emu"
	"github.com/sarchlab/coreverif/kernel"
)

// Driver pulls items from a sequencer and drives them through the BFM. In
// active mode it also collects one state snapshot per item and publishes it
// on AP.
type Driver struct {
	AP *AnalysisPort[emu.State]

	bfm     *bfm.BFM
	seqr    *Sequencer
	passive bool
	logger  *log.Logger

	sent      int
	published int
}

// NewDriver creates a driver. A passive driver leaves the results to a
// result monitor.
func NewDriver(b *bfm.BFM, seqr *Sequencer, passive bool) *Driver {
	return &Driver{
		AP:      NewAnalysisPort[emu.State]("driver.ap"),
		bfm:     b,
		seqr:    seqr,
		passive: passive,
		logger:  log.New(io.Discard, "", 0),
	}
}

// SetLogger sets the diagnostic logger.
func (d *Driver) SetLogger(l *log.Logger) {
	d.logger = l
}

// Sent returns the number of instructions handed to the BFM.
func (d *Driver) Sent() int {
	return d.sent
}

// Published returns the number of snapshots published on AP.
func (d *Driver) Published() int {
	return d.published
}

// Run resets the core, starts the BFM and then serves items forever.
func (d *Driver) Run(p *kernel.Process) error {
	if err := d.bfm.Reset(p); err != nil {
		return err
	}
	if err := d.bfm.Start(); err != nil {
		return err
	}

	for {
		item := d.seqr.GetNextItem(p)

		d.bfm.SendInstruction(p, item.Instruction)
		d.sent++
		d.logger.Printf("driver: sent %s", item)

		if !d.passive {
			d.publish(d.bfm.GetResult(p))
		}

		if err := d.seqr.ItemDone(); err != nil {
			return err
		}
	}
}

// Drain collects the snapshot that follows the last instruction's
// retirement. It does nothing in passive mode.
func (d *Driver) Drain(p *kernel.Process) {
	if d.passive || d.sent == 0 {
		return
	}

	d.publish(d.bfm.GetResult(p))
}

func (d *Driver) publish(state emu.State) {
	d.published++
	d.AP.Write(state)
}
