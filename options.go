// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package hwpipe

import "log/slog"

// ComponentOption defines the interface required to provide an option to
// NewComponent.
//
// Component options also apply to the component embedded in the hardware
// bound component types, so may be passed to NewGPIOComponent and
// NewI2CComponent as well.
type ComponentOption interface {
	applyComponentOption(*Component)
}

// BaseDirOption defines the directory holding the channel pipes.
type BaseDirOption string

// WithBaseDir returns an option that places the component's pipes in the
// given directory instead of [DefaultBaseDir].
func WithBaseDir(dir string) BaseDirOption {
	return BaseDirOption(dir)
}

func (o BaseDirOption) applyComponentOption(c *Component) {
	c.baseDir = string(o)
}

// ChannelsOption defines the number of channels of a component.
type ChannelsOption int

// WithChannels returns an option that gives the component the given number
// of channels.
//
// With two or more channels each pipe gets a numeric name suffix. A single
// channel component uses the bare component name.
func WithChannels(num int) ChannelsOption {
	return ChannelsOption(num)
}

func (o ChannelsOption) applyComponentOption(c *Component) {
	c.channels = int(o)
}

// OffsetOption defines the numeric suffix of the first channel pipe.
type OffsetOption int

// WithOffset returns an option that starts the channel name suffixes at the
// given value rather than 0.
//
// Only meaningful for multi-channel components.
func WithOffset(offset int) OffsetOption {
	return OffsetOption(offset)
}

func (o OffsetOption) applyComponentOption(c *Component) {
	c.offset = int(o)
}

// LoggerOption defines the logger for a component.
type LoggerOption struct {
	logger *slog.Logger
}

// WithLogger returns an option that routes the component's diagnostics to
// the given logger instead of slog.Default().
func WithLogger(logger *slog.Logger) LoggerOption {
	return LoggerOption{logger}
}

func (o LoggerOption) applyComponentOption(c *Component) {
	c.logger = o.logger
}

// GPIOOption defines the interface required to provide an option to
// NewGPIOComponent.
type GPIOOption interface {
	applyGPIOOption(*GPIOComponent)
}

func (o BaseDirOption) applyGPIOOption(g *GPIOComponent) {
	o.applyComponentOption(g.Component)
}

func (o ChannelsOption) applyGPIOOption(g *GPIOComponent) {
	o.applyComponentOption(g.Component)
}

func (o OffsetOption) applyGPIOOption(g *GPIOComponent) {
	o.applyComponentOption(g.Component)
}

func (o LoggerOption) applyGPIOOption(g *GPIOComponent) {
	o.applyComponentOption(g.Component)
	g.EventRegistry.Log = o.logger
}

// ChipOption defines the gpiochip for a GPIOComponent.
type ChipOption string

// WithChip returns an option that binds the component's pins to the given
// gpiochip instead of "gpiochip0".
//
// The chip may be identified by name, label or path, as for
// gpiocdev.NewChip.
func WithChip(chip string) ChipOption {
	return ChipOption(chip)
}

func (o ChipOption) applyGPIOOption(g *GPIOComponent) {
	g.chip = string(o)
}

// I2COption defines the interface required to provide an option to
// NewI2CComponent.
type I2COption interface {
	applyI2COption(*I2CComponent)
}

func (o BaseDirOption) applyI2COption(d *I2CComponent) {
	o.applyComponentOption(d.Component)
}

func (o ChannelsOption) applyI2COption(d *I2CComponent) {
	o.applyComponentOption(d.Component)
}

func (o OffsetOption) applyI2COption(d *I2CComponent) {
	o.applyComponentOption(d.Component)
}

func (o LoggerOption) applyI2COption(d *I2CComponent) {
	o.applyComponentOption(d.Component)
}

// BusOption defines the I2C bus for an I2CComponent.
type BusOption string

// WithBus returns an option that attaches the component to the given I2C
// bus instead of the first available.
//
// The bus may be identified by name, bus number or alias, as for
// i2creg.Open.
func WithBus(name string) BusOption {
	return BusOption(name)
}

func (o BusOption) applyI2COption(d *I2CComponent) {
	d.bus = string(o)
}
