package bfm

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/coreverif/hdl"
)

// Signal names on the core's bus.
const (
	SignalRst          = "rst"
	SignalInstReq      = "inst_req"
	SignalInstValid    = "inst_valid"
	SignalInstData     = "inst_data"
	SignalInstAddr     = "inst_addr"
	SignalDataReq      = "data_req"
	SignalDataAddr     = "data_addr"
	SignalRData        = "rdata"
	SignalDataValid    = "data_valid"
	SignalRegisterFile = "register_file"
)

// Pins are the core signals the BFM drives and samples.
//
// The BFM driver process is the only writer of Rst, InstValid, InstData,
// RData and DataValid. The samplers only read.
type Pins struct {
	Rst       *hdl.Signal
	InstReq   *hdl.Signal
	InstValid *hdl.Signal
	InstData  *hdl.Signal
	InstAddr  *hdl.Signal
	DataReq   *hdl.Signal
	DataAddr  *hdl.Signal
	RData     *hdl.Signal
	DataValid *hdl.Signal

	// RegisterFile is the whitebox view into the core's registers.
	RegisterFile *hdl.Array
}

// PinsFrom resolves the pins by name in b.
func PinsFrom(b *hdl.Bundle) (*Pins, error) {
	pins := &Pins{}

	signals := []struct {
		name string
		dst  **hdl.Signal
	}{
		{SignalRst, &pins.Rst},
		{SignalInstReq, &pins.InstReq},
		{SignalInstValid, &pins.InstValid},
		{SignalInstData, &pins.InstData},
		{SignalInstAddr, &pins.InstAddr},
		{SignalDataReq, &pins.DataReq},
		{SignalDataAddr, &pins.DataAddr},
		{SignalRData, &pins.RData},
		{SignalDataValid, &pins.DataValid},
	}

	for _, s := range signals {
		sig, err := b.Signal(s.name)
		if err != nil {
			return nil, errors.Wrap(err, "bfm pins")
		}
		*s.dst = sig
	}

	regs, err := b.Array(SignalRegisterFile)
	if err != nil {
		return nil, errors.Wrap(err, "bfm pins")
	}
	pins.RegisterFile = regs

	return pins, nil
}
