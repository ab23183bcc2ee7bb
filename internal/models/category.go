// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// GeneralCategory is the name of the category every user gets at signup.
// Selecting it shows all of the user's notes.
const GeneralCategory = "General"

// Category groups a user's notes. Categories are ordered per user by
// Position, which is dense (0..n-1) after every reorder.
type Category struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderID implements reorder.Item.
func (c Category) OrderID() uuid.UUID { return c.ID }

// WithPosition implements reorder.Item.
func (c Category) WithPosition(position int) Category {
	c.Position = position
	return c
}

// IsGeneral reports whether c is the catch-all "All Notes" category.
func (c Category) IsGeneral() bool {
	return c.Name == GeneralCategory
}

// IsReservedName reports whether name would collide with the General
// category. Case and surrounding space are ignored.
func IsReservedName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), GeneralCategory)
}
