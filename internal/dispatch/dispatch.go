// Package dispatch implements the packet dispatcher: a process-wide
// mapping from protocol type id to an ordered list of (user, handler)
// subscribers (spec §4.1). Dispatch fans out to every registered handler in
// registration order; a panic in one handler is recovered and logged so it
// never starves the others.
package dispatch

import "log"

// PacketType identifies an incoming protocol message (spec §6).
type PacketType uint8

// Handler processes one fully-reassembled application packet. user is an
// opaque subscriber identity (used only to support Unregister); bytes is
// the packet payload after the type byte.
type Handler func(user interface{}, bytes []byte)

type subscription struct {
	user    interface{}
	handler Handler
}

// Dispatcher is a multi-subscriber (type -> handlers) table.
type Dispatcher struct {
	Logger *log.Logger
	subs   map[PacketType][]subscription
}

// New returns an empty dispatcher.
func New(logger *log.Logger) *Dispatcher {
	return &Dispatcher{Logger: logger, subs: make(map[PacketType][]subscription)}
}

// Register adds handler as a subscriber for typ, tagged with user for later
// Unregister. Order of registration is preserved and is the dispatch order.
func (d *Dispatcher) Register(typ PacketType, user interface{}, handler Handler) {
	d.subs[typ] = append(d.subs[typ], subscription{user: user, handler: handler})
}

// Unregister removes every handler registered under typ for user.
func (d *Dispatcher) Unregister(typ PacketType, user interface{}) {
	subs := d.subs[typ]
	filtered := subs[:0]
	for _, s := range subs {
		if s.user != user {
			filtered = append(filtered, s)
		}
	}
	d.subs[typ] = filtered
}

// Dispatch fans bytes out to every handler registered for typ. A handler
// that panics is recovered and logged; it never prevents the remaining
// handlers from running (spec §4.1: "failure in one handler must not
// starve others").
func (d *Dispatcher) Dispatch(typ PacketType, bytes []byte) {
	for _, s := range d.subs[typ] {
		d.invoke(s, bytes)
	}
}

func (d *Dispatcher) invoke(s subscription, bytes []byte) {
	defer func() {
		if r := recover(); r != nil && d.Logger != nil {
			d.Logger.Printf("dispatch: handler for user %v panicked: %v", s.user, r)
		}
	}()
	s.handler(s.user, bytes)
}

// Count returns the number of handlers registered for typ, for tests and
// diagnostics.
func (d *Dispatcher) Count(typ PacketType) int {
	return len(d.subs[typ])
}
