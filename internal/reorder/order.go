// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package reorder implements drag-and-drop reordering of a user-owned list:
// computing the new order, applying it to local state before the database
// confirms it, and persisting positions through a debounced sink that
// collapses bursts of reorders into a single batch of writes.
package reorder

import "github.com/google/uuid"

// Item is an element of an ordered collection. WithPosition must return a
// copy so that reordering never mutates the caller's sequence.
type Item[T any] interface {
	OrderID() uuid.UUID
	WithPosition(position int) T
}

// Position is the persisted rank of one item.
type Position struct {
	ID       uuid.UUID `json:"id"`
	Position int       `json:"position"`
}

// Move returns a new sequence where the item identified by sourceID takes
// the slot currently held by targetID, shifting everything in between by
// one, and every item is renumbered 0..n-1.
//
// When sourceID equals targetID, or either id is missing from seq, seq is
// returned unchanged and changed is false. Drops onto self are common and
// are not errors.
func Move[T Item[T]](seq []T, sourceID, targetID uuid.UUID) (result []T, changed bool) {
	if sourceID == targetID {
		return seq, false
	}

	from, to := -1, -1
	for i, item := range seq {
		switch item.OrderID() {
		case sourceID:
			from = i
		case targetID:
			to = i
		}
	}
	if from < 0 || to < 0 {
		return seq, false
	}

	moved := make([]T, 0, len(seq))
	moved = append(moved, seq[:from]...)
	moved = append(moved, seq[from+1:]...)

	// After removal the target's old index is exactly where the source goes,
	// in both directions.
	moved = append(moved, seq[from])
	copy(moved[to+1:], moved[to:len(moved)-1])
	moved[to] = seq[from]

	for i := range moved {
		moved[i] = moved[i].WithPosition(i)
	}
	return moved, true
}

// Snapshot projects seq to the {id, position} pairs the sink persists.
// Positions are taken from the slice order, not from the items.
func Snapshot[T Item[T]](seq []T) []Position {
	out := make([]Position, len(seq))
	for i, item := range seq {
		out[i] = Position{ID: item.OrderID(), Position: i}
	}
	return out
}
