// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package hwpipe

import (
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// I2CComponent is a component backed by a device at a fixed address on an
// I2C bus.
type I2CComponent struct {
	*Component

	addr uint16
	bus  string

	busc i2c.BusCloser
	dev  *i2c.Dev
}

// NewI2CComponent constructs an I2CComponent with the given name for the
// device at addr.
//
// The device is looked up on the first available bus unless overridden with
// [WithBus]. All [ComponentOption]s are also accepted.
func NewI2CComponent(name string, addr uint16, options ...I2COption) *I2CComponent {
	d := &I2CComponent{
		Component: NewComponent(name),
		addr:      addr,
	}
	for _, o := range options {
		o.applyI2COption(d)
	}
	return d
}

// Addr returns the device address on the bus.
func (d *I2CComponent) Addr() uint16 {
	return d.addr
}

// Init opens the channel pipes and the I2C bus.
//
// Unlike pin setup there is no partial success to degrade to — a missing
// bus fails Init, with the pipes removed again on the way out.
func (d *I2CComponent) Init() error {
	if d.Initialized() {
		return errors.Wrap(ErrAlreadyInitialized, d.Name())
	}
	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "initializing host drivers")
	}
	if err := d.Component.Init(); err != nil {
		return err
	}
	busc, err := i2creg.Open(d.bus)
	if err != nil {
		d.Component.Cleanup()
		return errors.Wrapf(err, "opening i2c bus %q", d.bus)
	}
	d.busc = busc
	d.dev = &i2c.Dev{Addr: d.addr, Bus: busc}
	return nil
}

// Cleanup closes the I2C bus and removes the channel pipes.
//
// Idempotent, as for Component.Cleanup.
func (d *I2CComponent) Cleanup() error {
	if !d.Initialized() {
		return nil
	}
	err := d.Component.Cleanup()
	if d.busc != nil {
		if cerr := d.busc.Close(); cerr != nil && err == nil {
			err = cerr
		}
		d.busc = nil
		d.dev = nil
	}
	return err
}

// Tx performs a write followed by a read on the device in a single bus
// transaction.
//
// Either w or r may be nil for a pure read or write.
func (d *I2CComponent) Tx(w, r []byte) error {
	if err := d.checkInit(); err != nil {
		return err
	}
	return d.dev.Tx(w, r)
}

// ReadReg reads len(buf) bytes from the given device register.
func (d *I2CComponent) ReadReg(reg byte, buf []byte) error {
	return d.Tx([]byte{reg}, buf)
}

// WriteReg writes bytes to the given device register.
func (d *I2CComponent) WriteReg(reg byte, data ...byte) error {
	return d.Tx(append([]byte{reg}, data...), nil)
}
