package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Demo account created by Seed in development.
const (
	SeedEmail    = "demo@notea.local"
	SeedPassword = "demo-password"
)

// Seed populates the database with initial development data: a demo user
// with the General category plus two more categories and a welcome note.
// It does nothing if any user exists.
func Seed(db *sql.DB) error {
	// Check if any users exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var userID string
	err = tx.QueryRow(`
		INSERT INTO users (email, password_hash, display_name)
		VALUES ($1, $2, $3)
		RETURNING id
	`, SeedEmail, string(hash), "Demo").Scan(&userID)
	if err != nil {
		return fmt.Errorf("seed insert user: %w", err)
	}

	var generalID string
	for i, name := range []string{"General", "Work", "Personal"} {
		var id string
		err := tx.QueryRow(`
			INSERT INTO categories (user_id, name, is_active, position)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, userID, name, i == 0, i).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed insert category %s: %w", name, err)
		}
		if i == 0 {
			generalID = id
		}
	}

	_, err = tx.Exec(`
		INSERT INTO notes (user_id, category_id, title, content)
		VALUES ($1, $2, $3, $4)
	`, userID, generalID, "Welcome", "<div>Drag categories in the sidebar to reorder them.</div>")
	if err != nil {
		return fmt.Errorf("seed insert note: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with demo user",
		"email", SeedEmail,
		"password", SeedPassword,
	)
	return nil
}
