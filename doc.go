// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

/*
Package hwpipe lets separate processes control and observe the hardware
components of a single-board computer through named pipes instead of linking
against a hardware driver directly.

Each hardware component — an LED, a sensor, a motor controller — is a
[Component] owning one named pipe per data channel. The pipes are created by
[Component.Init] at "<dir>/<name><channel>" (the suffix is omitted for
single-channel components), where dir defaults from the IO_BASE_DIR
environment variable, and are removed again by [Component.Cleanup]. A peer
process writes a command line into a component's input pipe and reads
responses or telemetry lines from its output pipe.

Messages are newline-terminated UTF-8 text lines, each either a single
decimal number or a comma-separated tuple of decimal numbers. The pipes are
non-blocking at both ends — [Component.ReadData] returns no value, rather
than blocking or failing, while no complete line is available, and
reassembles lines that arrive split across pipe writes.

Two capabilities compose onto components:

[EventRegistry] dispatches pin activity to registered callbacks, either per
pin or generically for all pins. It is driven by whatever mechanism the
hardware binding provides — [GPIOComponent] feeds it from edge events on the
GPIO character device.

[LoopedComponent] gives a component an autonomous polling loop, calling a
[Ticker] at a fixed interval between Start and Stop. The loop goroutine
lives for the remainder of the process; Stop only silences it.

Hardware bindings extend the component lifecycle: [GPIOComponent] requests
pins via the GPIO character device uAPI, logging and skipping any pin it
cannot claim rather than failing the whole component, and [I2CComponent]
attaches the component to a device address on an I2C bus.

Pins and pipes are system-wide resources, so components are typically
created by a single daemon process per board.
*/
package hwpipe
