// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package reorder

import (
	"math"

	"github.com/google/uuid"
)

// ActivationDistance is how far, in pixels, the pointer must travel after
// press-down before a press becomes a drag.
const ActivationDistance = 8

// State is the drag gesture state between events.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// Outcome reports what a single event did.
type Outcome int

const (
	// Ignored means the event did not apply in the current state.
	Ignored Outcome = iota
	// Started means the machine entered Dragging.
	Started
	// Dropped means a drag ended over a different item.
	Dropped
	// Cancelled means a drag ended without a valid target.
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Started:
		return "started"
	case Dropped:
		return "dropped"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Event is one of DragStart, DragEnd or DragCancel.
type Event interface {
	dragEvent()
}

// DragStart is a press-and-move on ActiveID. DX and DY are the pointer
// displacement since press-down.
type DragStart struct {
	ActiveID uuid.UUID
	DX, DY   float64
}

// DragEnd is a pointer release. OverID is nil when released over nothing.
type DragEnd struct {
	OverID *uuid.UUID
}

// DragCancel is an explicit abort, e.g. focus loss or Escape.
type DragCancel struct{}

func (DragStart) dragEvent()  {}
func (DragEnd) dragEvent()    {}
func (DragCancel) dragEvent() {}

// GestureHooks are the callbacks a Gesture invokes. Any may be nil.
type GestureHooks struct {
	OnDragStart func()
	OnDragStop  func()
	OnDrop      func(sourceID, targetID uuid.UUID)
}

// Gesture is the drag state machine for one list. It is not safe for
// concurrent use; the owner serializes events.
type Gesture struct {
	hooks    GestureHooks
	state    State
	activeID uuid.UUID
}

// NewGesture returns an idle machine.
func NewGesture(hooks GestureHooks) *Gesture {
	return &Gesture{hooks: hooks}
}

// State returns the current state.
func (g *Gesture) State() State { return g.state }

// ActiveID returns the id being dragged, or uuid.Nil when idle.
func (g *Gesture) ActiveID() uuid.UUID { return g.activeID }

// Handle advances the machine by one event.
func (g *Gesture) Handle(ev Event) Outcome {
	switch e := ev.(type) {
	case DragStart:
		if g.state != Idle || e.ActiveID == uuid.Nil {
			return Ignored
		}
		if math.Hypot(e.DX, e.DY) <= ActivationDistance {
			return Ignored
		}
		g.state = Dragging
		g.activeID = e.ActiveID
		if g.hooks.OnDragStart != nil {
			g.hooks.OnDragStart()
		}
		return Started

	case DragEnd:
		if g.state != Dragging {
			return Ignored
		}
		source := g.activeID
		g.reset()
		if e.OverID == nil || *e.OverID == source {
			g.stop()
			return Cancelled
		}
		if g.hooks.OnDrop != nil {
			g.hooks.OnDrop(source, *e.OverID)
		}
		g.stop()
		return Dropped

	case DragCancel:
		if g.state != Dragging {
			return Ignored
		}
		g.reset()
		g.stop()
		return Cancelled
	}
	return Ignored
}

func (g *Gesture) reset() {
	g.state = Idle
	g.activeID = uuid.Nil
}

func (g *Gesture) stop() {
	if g.hooks.OnDragStop != nil {
		g.hooks.OnDragStop()
	}
}
