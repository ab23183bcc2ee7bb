// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"notea/internal/models"
)

// NoteStore handles all note-related database operations.
type NoteStore struct {
	db *sql.DB
}

// NewNoteStore creates a new NoteStore with the given database connection.
func NewNoteStore(db *sql.DB) *NoteStore {
	return &NoteStore{db: db}
}

const noteColumns = `id, user_id, category_id, title, content, created_at, updated_at`

func scanNote(scanner interface{ Scan(...any) error }) (*models.Note, error) {
	n := &models.Note{}
	err := scanner.Scan(
		&n.ID, &n.UserID, &n.CategoryID, &n.Title, &n.Content,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// ListByUser returns all notes of a user, most recently updated first.
func (s *NoteStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Note, error) {
	return s.list(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`, userID)
}

// ListByCategory returns a user's notes filed under categoryID.
func (s *NoteStore) ListByCategory(ctx context.Context, userID, categoryID uuid.UUID) ([]models.Note, error) {
	return s.list(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE user_id = $1 AND category_id = $2
		ORDER BY updated_at DESC
	`, userID, categoryID)
}

func (s *NoteStore) list(ctx context.Context, query string, args ...any) ([]models.Note, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

// CountByCategory returns note counts keyed by category for one user.
// Uncategorized notes are not included.
func (s *NoteStore) CountByCategory(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category_id, COUNT(*) FROM notes
		WHERE user_id = $1 AND category_id IS NOT NULL
		GROUP BY category_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("count notes: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan note count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// FindByID retrieves a note by ID. Returns nil if not found.
func (s *NoteStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1`, id)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find note by id: %w", err)
	}
	return n, nil
}

// Create inserts a new note and returns it.
func (s *NoteStore) Create(ctx context.Context, n *models.Note) (*models.Note, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO notes (user_id, category_id, title, content)
		VALUES ($1, $2, $3, $4)
		RETURNING `+noteColumns,
		n.UserID, n.CategoryID, n.Title, n.Content,
	)
	created, err := scanNote(row)
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return created, nil
}

// Update replaces a note's title and content. Returns nil if not found.
func (s *NoteStore) Update(ctx context.Context, id uuid.UUID, title, content string) (*models.Note, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE notes SET title = $1, content = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+noteColumns,
		title, content, id,
	)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	return n, nil
}

// ChangeCategory moves a note to another category. Returns nil if not found.
func (s *NoteStore) ChangeCategory(ctx context.Context, id, categoryID uuid.UUID) (*models.Note, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE notes SET category_id = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+noteColumns,
		categoryID, id,
	)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("change note category: %w", err)
	}
	return n, nil
}

// Delete removes a note by ID.
func (s *NoteStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}
