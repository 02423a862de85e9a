// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

package hwpipe

import (
	"log/slog"
	"sync"

	"github.com/pkg/errors"
)

// ErrNoHandler indicates an attempt to remove an event handler that is not
// registered under the given key.
var ErrNoHandler = errors.New("no such handler")

// EventHandler is called with the pin on which activity was detected.
type EventHandler func(pin int)

// registration pairs a handler with the id issued for it.
type registration struct {
	id int
	fn EventHandler
}

// EventRegistry dispatches pin events to registered handlers.
//
// Handlers are registered either for a specific pin or as generic handlers
// receiving events for every pin. Each registration is issued an id, unique
// across the registry for its lifetime, which together with the original
// key identifies the registration for removal.
//
// The registry is an independent capability — embed it in any component
// type whose hardware binding can report pin activity, and have the binding
// call [EventRegistry.HandlePin].
//
// The zero value is an empty registry ready for use. The registry is safe
// for concurrent use, as hardware bindings typically deliver events on
// their own goroutine.
type EventRegistry struct {
	// Log receives diagnostics from handler dispatch.
	//
	// Defaults to slog.Default if nil.
	Log *slog.Logger

	mu      sync.Mutex
	nextID  int
	generic []registration
	pins    map[int][]registration
}

// AddHandler registers a handler for events on the given pin.
//
// Returns the id identifying this registration for RemoveHandler.
func (r *EventRegistry) AddHandler(pin int, fn EventHandler) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	if r.pins == nil {
		r.pins = make(map[int][]registration)
	}
	r.pins[pin] = append(r.pins[pin], registration{id, fn})
	return id
}

// AddGenericHandler registers a handler for events on every pin.
//
// Returns the id identifying this registration for RemoveGenericHandler.
func (r *EventRegistry) AddGenericHandler(fn EventHandler) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.generic = append(r.generic, registration{id, fn})
	return id
}

// RemoveHandler removes the handler registered for the given pin with the
// given id.
//
// Returns ErrNoHandler if no such registration exists. Ids are never
// reissued, so a registration can only be removed once.
func (r *EventRegistry) RemoveHandler(pin int, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	regs, ok := remove(r.pins[pin], id)
	if !ok {
		return errors.Wrapf(ErrNoHandler, "pin %d id %d", pin, id)
	}
	r.pins[pin] = regs
	return nil
}

// RemoveGenericHandler removes the generic handler with the given id.
//
// Returns ErrNoHandler if no such registration exists.
func (r *EventRegistry) RemoveGenericHandler(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	regs, ok := remove(r.generic, id)
	if !ok {
		return errors.Wrapf(ErrNoHandler, "generic id %d", id)
	}
	r.generic = regs
	return nil
}

// remove splices the registration with the given id out of regs.
func remove(regs []registration, id int) ([]registration, bool) {
	for i, reg := range regs {
		if reg.id == id {
			return append(regs[:i:i], regs[i+1:]...), true
		}
	}
	return regs, false
}

// HandlePin dispatches an event on the given pin to all generic handlers,
// then all handlers registered for that pin, in registration order within
// each group.
//
// A handler that panics is recovered and logged, and never prevents
// delivery to the remaining handlers.
//
// HandlePin is called by the hardware binding whenever it detects pin
// activity, on whatever goroutine the binding delivers events.
func (r *EventRegistry) HandlePin(pin int) {
	r.mu.Lock()
	regs := make([]registration, 0, len(r.generic)+len(r.pins[pin]))
	regs = append(regs, r.generic...)
	regs = append(regs, r.pins[pin]...)
	r.mu.Unlock()
	for _, reg := range regs {
		r.dispatch(pin, reg)
	}
}

func (r *EventRegistry) dispatch(pin int, reg registration) {
	defer func() {
		if p := recover(); p != nil {
			log := r.Log
			if log == nil {
				log = slog.Default()
			}
			log.Error("event handler panicked",
				"pin", pin, "id", reg.id, "panic", p)
		}
	}()
	reg.fn(pin)
}
