// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package reorder

import (
	"sync"

	"github.com/google/uuid"
)

// Collection is the authoritative in-memory copy of an ordered list. Every
// change is applied immediately; the database is a mirror that may lag and
// is never consulted to roll a change back.
type Collection[T Item[T]] struct {
	mu      sync.RWMutex
	items   []T
	version uint64
}

// NewCollection returns a collection holding a copy of items in the given order.
func NewCollection[T Item[T]](items []T) *Collection[T] {
	return &Collection[T]{items: clone(items)}
}

// Items returns a copy of the current sequence.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clone(c.items)
}

// Version increases by one on every mutation.
func (c *Collection[T]) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Len returns the number of items.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Apply replaces the whole sequence with seq.
func (c *Collection[T]) Apply(seq []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = clone(seq)
	c.version++
}

// Append adds item at the end.
func (c *Collection[T]) Append(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item)
	c.version++
}

// Replace swaps the item with the same id for item, keeping its slot.
// Returns false if no such item exists.
func (c *Collection[T]) Replace(item T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].OrderID() == item.OrderID() {
			c.items[i] = item
			c.version++
			return true
		}
	}
	return false
}

// Remove deletes the item with id. Siblings keep their positions; gaps
// are only closed by the next Move.
func (c *Collection[T]) Remove(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].OrderID() == id {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			c.version++
			return true
		}
	}
	return false
}

// Find returns the item with id.
func (c *Collection[T]) Find(id uuid.UUID) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if item.OrderID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func clone[T any](items []T) []T {
	if items == nil {
		return nil
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}
