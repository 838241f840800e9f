package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Seed populates the database with initial development data: one demo
// user mid-conversation, so a fresh install has something to show in the
// chat UI. It only runs against an empty user_states table.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM user_states").Scan(&count); err != nil {
		return fmt.Errorf("seed check user_states: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	profile := `{"websiteType":"portfolio","colorScheme":"warm minimal","pages":["Home","Gallery","Contact"]}`
	history := `[{"userText":"I want a portfolio site for my photography.","assistantText":"Great choice. Should it feel bright and airy, or dark and dramatic?"}]`

	_, err := db.Exec(`
		INSERT INTO user_states (user_id, profile, history)
		VALUES ($1, $2::jsonb, $3::jsonb)
	`, "demo", profile, history)
	if err != nil {
		return fmt.Errorf("seed insert demo user: %w", err)
	}

	slog.Info("database seeded with demo user", "user", "demo")
	return nil
}
