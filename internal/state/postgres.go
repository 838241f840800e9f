// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"sitesmith/internal/models"
)

// PostgresStore keeps one row per user in the user_states table, with
// profile and history as jsonb columns written by a single upsert. The
// single statement is the atomicity guarantee on this backend.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store over an already-connected database.
// The connection is owned by the caller; Close here is a no-op.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Load returns the stored profile and history for userID, or fresh defaults
// if no row exists.
func (s *PostgresStore) Load(ctx context.Context, userID string) (*models.Profile, models.History, error) {
	var profileJSON, historyJSON []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT profile, history FROM user_states WHERE user_id = $1
	`, userID).Scan(&profileJSON, &historyJSON)
	if err == sql.ErrNoRows {
		return models.DefaultProfile(), models.History{}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load state for %s: %w", userID, err)
	}

	profile := &models.Profile{}
	if err := json.Unmarshal(profileJSON, profile); err != nil {
		return nil, nil, fmt.Errorf("decode profile for %s: %w", userID, err)
	}
	history := models.History{}
	if err := json.Unmarshal(historyJSON, &history); err != nil {
		return nil, nil, fmt.Errorf("decode history for %s: %w", userID, err)
	}
	return profile, history, nil
}

// Save upserts the user's row, replacing profile and history together.
func (s *PostgresStore) Save(ctx context.Context, userID string, profile *models.Profile, history models.History) error {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile for %s: %w", userID, err)
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode history for %s: %w", userID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_states (user_id, profile, history, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id)
		DO UPDATE SET profile = EXCLUDED.profile,
		              history = EXCLUDED.history,
		              updated_at = now()
	`, userID, profileJSON, historyJSON)
	if err != nil {
		return fmt.Errorf("save state for %s: %w", userID, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return nil
}
