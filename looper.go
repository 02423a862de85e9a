// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package hwpipe

import (
	"sync/atomic"
	"time"
)

// Ticker is the periodic action of a LoopedComponent.
//
// Tick runs on the loop goroutine and must not block — ticks are strictly
// sequential, so a slow tick delays all subsequent polling by its own
// duration.
type Ticker interface {
	Tick()
}

// TickerFunc adapts a plain function to the Ticker interface.
type TickerFunc func()

// Tick calls f.
func (f TickerFunc) Tick() {
	f()
}

// LoopedComponent drives a component with an autonomous fixed-interval
// polling loop.
//
// The loop goroutine is started by the constructor and lives for the
// remainder of the process — Stop silences it but does not terminate it.
// Ticks are only delivered between Start and Stop.
//
// While the loop is running the tick owns the component's protocol I/O;
// other goroutines must limit themselves to Start, Stop and Cleanup.
type LoopedComponent struct {
	*Component

	tick     Ticker
	interval time.Duration

	// Toggled by Start/Stop and polled by the loop goroutine.
	started atomic.Bool
}

// NewLoopedComponent wraps the component with a polling loop calling tick
// at the given interval.
//
// The loop goroutine starts immediately, but delivers no ticks until the
// component is initialized and Start is called.
func NewLoopedComponent(c *Component, interval time.Duration, tick Ticker) *LoopedComponent {
	l := &LoopedComponent{
		Component: c,
		tick:      tick,
		interval:  interval,
	}
	go l.run()
	return l
}

func (l *LoopedComponent) run() {
	for {
		time.Sleep(l.interval)
		if l.started.Load() {
			l.tick.Tick()
		}
	}
}

// Init initializes the underlying component and, if autostart is set,
// starts tick delivery.
func (l *LoopedComponent) Init(autostart bool) error {
	if err := l.Component.Init(); err != nil {
		return err
	}
	if autostart {
		return l.Start()
	}
	return nil
}

// Start enables tick delivery.
//
// Returns ErrNotInitialized if the component has not been initialized.
func (l *LoopedComponent) Start() error {
	if err := l.checkInit(); err != nil {
		return err
	}
	l.started.Store(true)
	return nil
}

// Stop disables tick delivery.
//
// The loop goroutine remains alive, and the component may be started again.
// Stopping an already stopped component is a no-op.
func (l *LoopedComponent) Stop() {
	l.started.Store(false)
}

// Running returns whether ticks are currently being delivered.
func (l *LoopedComponent) Running() bool {
	return l.started.Load()
}

// Cleanup stops tick delivery, then cleans up the underlying component.
func (l *LoopedComponent) Cleanup() error {
	l.Stop()
	return l.Component.Cleanup()
}
