// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package hwpipe

import (
	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
)

// GPIOComponent is a component whose pins are bound to a Linux gpiochip
// through the GPIO character device.
//
// Output pins are requested as outputs driven low, input pins as inputs
// with edge detection on both edges. Edges on input pins are dispatched
// through the embedded [EventRegistry], so handlers added with AddHandler
// and AddGenericHandler fire on pin transitions.
type GPIOComponent struct {
	*Component
	EventRegistry

	chip    string
	outPins []int
	inPins  []int

	// Requested lines by pin, nil unless initialized.
	lines map[int]*gpiocdev.Line
}

// NewGPIOComponent constructs a GPIOComponent with the given name driving
// outPins and watching inPins.
//
// Pins are requested from "gpiochip0" unless overridden with [WithChip].
// All [ComponentOption]s are also accepted.
func NewGPIOComponent(name string, outPins, inPins []int, options ...GPIOOption) *GPIOComponent {
	g := &GPIOComponent{
		Component: NewComponent(name),
		chip:      "gpiochip0",
		outPins:   append([]int(nil), outPins...),
		inPins:    append([]int(nil), inPins...),
	}
	for _, o := range options {
		o.applyGPIOOption(g)
	}
	return g
}

// Init opens the channel pipes and requests the component's pins.
//
// A component still initialized from a previous run is cleaned up first, so
// Init always starts from fresh pipes and line requests.
//
// A pin that cannot be requested, typically because some other consumer
// holds it, is logged and skipped — the remaining pins are still set up and
// the component still initializes. Operations on the unconfigured pin fail
// individually.
func (g *GPIOComponent) Init() error {
	if g.Initialized() {
		if err := g.Cleanup(); err != nil {
			return err
		}
	}
	if err := g.Component.Init(); err != nil {
		return err
	}
	g.lines = make(map[int]*gpiocdev.Line)
	for _, pin := range g.outPins {
		l, err := gpiocdev.RequestLine(g.chip, pin, gpiocdev.AsOutput(0))
		if err != nil {
			g.logger.Error("failed to set up output pin",
				"chip", g.chip, "pin", pin, "err", err)
			continue
		}
		g.lines[pin] = l
	}
	for _, pin := range g.inPins {
		pin := pin
		l, err := gpiocdev.RequestLine(g.chip, pin,
			gpiocdev.AsInput,
			gpiocdev.WithBothEdges,
			gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) {
				g.HandlePin(pin)
			}))
		if err != nil {
			g.logger.Error("failed to set up input pin",
				"chip", g.chip, "pin", pin, "err", err)
			continue
		}
		g.lines[pin] = l
	}
	return nil
}

// Cleanup releases the component's pins and removes the channel pipes.
//
// Output pins are reverted to inputs before release. Idempotent, as for
// Component.Cleanup.
func (g *GPIOComponent) Cleanup() error {
	if !g.Initialized() {
		return nil
	}
	err := g.Component.Cleanup()
	for _, l := range g.lines {
		l.Reconfigure(gpiocdev.AsInput)
		l.Close()
	}
	g.lines = nil
	return err
}

// line returns the requested line for a pin.
func (g *GPIOComponent) line(pin int) (*gpiocdev.Line, error) {
	if err := g.checkInit(); err != nil {
		return nil, err
	}
	l, ok := g.lines[pin]
	if !ok {
		return nil, errors.Errorf("%s: pin %d is not set up", g.Name(), pin)
	}
	return l, nil
}

// SetPin drives an output pin to the given level.
func (g *GPIOComponent) SetPin(pin, level int) error {
	l, err := g.line(pin)
	if err != nil {
		return err
	}
	return l.SetValue(level)
}

// Pin returns the current level of a pin.
func (g *GPIOComponent) Pin(pin int) (int, error) {
	l, err := g.line(pin)
	if err != nil {
		return 0, err
	}
	return l.Value()
}
