// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Note is a titled rich-text document. Content holds the HTML produced by
// the browser editor.
type Note struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	CategoryID *uuid.UUID `json:"category_id"` // Nil once its category is deleted
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Virtual field populated by handlers.
	Preview string `json:"preview,omitempty"`
}

// DisplayTitle returns the title, or "Untitled" when it is blank.
func (n *Note) DisplayTitle() string {
	if n.Title == "" {
		return "Untitled"
	}
	return n.Title
}

// InCategory reports whether the note is filed under id.
func (n *Note) InCategory(id uuid.UUID) bool {
	return n.CategoryID != nil && *n.CategoryID == id
}
