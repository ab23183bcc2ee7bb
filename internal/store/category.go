// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"notea/internal/models"
	"notea/internal/reorder"
)

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

var _ reorder.PositionWriter = (*CategoryStore)(nil)

const categoryColumns = `id, user_id, name, is_active, position, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.UserID, &c.Name, &c.IsActive,
		&c.Position, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByUser returns a user's categories ordered by position. Ties, which
// only exist while a batch of position writes is landing, fall back to
// creation order.
func (s *CategoryStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE user_id = $1
		ORDER BY position, created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// Create inserts a new category and returns it.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (user_id, name, is_active, position)
		VALUES ($1, $2, $3, $4)
		RETURNING `+categoryColumns,
		c.UserID, c.Name, c.IsActive, c.Position,
	)
	result, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return result, nil
}

// Rename changes a category's name and returns the updated row. Returns
// nil if the category does not exist.
func (s *CategoryStore) Rename(ctx context.Context, id uuid.UUID, name string) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE categories SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+categoryColumns,
		name, id,
	)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("rename category: %w", err)
	}
	return c, nil
}

// UpdatePosition sets the position of one category. It implements
// reorder.PositionWriter; each call is an independent statement.
func (s *CategoryStore) UpdatePosition(ctx context.Context, id uuid.UUID, position int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE categories SET position = $1, updated_at = $2
		WHERE id = $3
	`, position, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update category position %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update category position %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// SetActive marks id as the user's active category and clears the flag on
// every other category of the same user.
func (s *CategoryStore) SetActive(ctx context.Context, userID, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE categories SET is_active = (id = $2), updated_at = NOW()
		WHERE user_id = $1
	`, userID, id)
	if err != nil {
		return fmt.Errorf("set active category: %w", err)
	}
	return nil
}

// Delete removes a category by ID. Its notes become uncategorized
// (ON DELETE SET NULL); sibling positions are left as they are.
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
