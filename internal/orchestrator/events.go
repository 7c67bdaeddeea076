package orchestrator

import "encoding/json"

// LifetimeID identifies one Start/End-paired interval of activity.
//
// IDs are assigned by the timeline compiler and increase monotonically within
// a single compiled Timeline. They are not stable across compilations: a
// reconfigure produces a fresh Timeline with a fresh ID sequence.
type LifetimeID uint64

// Event is the closed set of scheduling events a Timeline can carry.
//
// The engine's reducer handles exactly these variants; a compiled Timeline
// can never contain anything else, so event application cannot fail.
type Event interface {
	isEvent()
}

// LifetimeStart opens a lifetime. The matching LifetimeEnd carries the same ID.
type LifetimeStart struct {
	ID   LifetimeID
	Kind LifetimeKind
}

// LifetimeEnd closes the lifetime opened by the LifetimeStart with the same ID.
type LifetimeEnd struct {
	ID LifetimeID
}

// Point is a one-shot marker. It is delivered to the reducer but never
// retained in engine state, so arbitrarily many point events cannot grow
// the active set.
type Point struct {
	Key   string
	Value json.RawMessage
}

func (LifetimeStart) isEvent() {}
func (LifetimeEnd) isEvent()   {}
func (Point) isEvent()         {}

// LifetimeKind describes what a lifetime represents.
//
// Scene is currently the only kind. The set is open by design: adding an
// overlay or ticker kind means adding a variant here, not touching the
// engine or the cursor.
type LifetimeKind interface {
	isLifetimeKind()
}

// SceneKind is a named scene with an opaque UI layout payload.
type SceneKind struct {
	Name   string
	Layout json.RawMessage
}

func (SceneKind) isLifetimeKind() {}

// TimedEvent is an Event anchored at a timeline offset in milliseconds.
type TimedEvent struct {
	At    int64
	Event Event
}
