// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package reorder

import (
	"context"

	"github.com/google/uuid"
)

// List ties a Collection to the Sink that mirrors it.
type List[T Item[T]] struct {
	*Collection[T]
	sink *Sink
}

// NewList returns a list over items whose reorders are persisted by sink.
func NewList[T Item[T]](items []T, sink *Sink) *List[T] {
	return &List[T]{Collection: NewCollection(items), sink: sink}
}

// Sink returns the list's persistence sink.
func (l *List[T]) Sink() *Sink { return l.sink }

// Move reorders the list locally and schedules the new positions. Nothing
// is scheduled when the move is a no-op. The local order stands even if
// scheduling fails because the sink is closed.
//
// Apply and Schedule happen under the collection lock so that the last
// applied order is always the last scheduled one.
func (l *List[T]) Move(sourceID, targetID uuid.UUID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	moved, changed := Move(l.items, sourceID, targetID)
	if !changed {
		return false, nil
	}
	l.items = moved
	l.version++
	return true, l.sink.Schedule(Snapshot(moved))
}

// Close flushes pending positions and stops accepting new ones.
func (l *List[T]) Close(ctx context.Context) FlushResult {
	return l.sink.Close(ctx)
}
