// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"notea/internal/models"
)

// Validation limits for categories, notes and accounts.
const (
	maxCategoryNameLen = 100
	maxTitleLen        = 300
	maxContentLen      = 200_000
	maxDisplayNameLen  = 100
	minPasswordLen     = 8
	maxPasswordLen     = 72 // bcrypt ignores anything longer
)

// validateCategoryName checks a category name and returns the first error found.
func validateCategoryName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Category name is required."
	}
	if utf8.RuneCountInString(name) > maxCategoryNameLen {
		return "Category name is too long (max 100 characters)."
	}
	if models.IsReservedName(name) {
		return "General is a reserved category name."
	}
	return ""
}

// validateNote checks note inputs. Both fields may be empty.
func validateNote(title, content string) string {
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return "Content is too long (max 200,000 characters)."
	}
	return ""
}

// validateSignup checks signup inputs and returns the first error found.
func validateSignup(email, password, displayName string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "Email is required."
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "Email is not valid."
	}
	if password == "" {
		return "Password is required."
	}
	if len(password) < minPasswordLen {
		return "Password is too short (min 8 characters)."
	}
	if len(password) > maxPasswordLen {
		return "Password is too long (max 72 bytes)."
	}
	if utf8.RuneCountInString(displayName) > maxDisplayNameLen {
		return "Display name is too long (max 100 characters)."
	}
	return ""
}
