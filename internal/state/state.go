// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package state persists each user's profile and conversation history.
// Both halves are committed as one document in one transaction, so a crash
// mid-save can never leave a profile from one turn next to a history from
// another. Two backends exist: a single-file bolt store (default) and a
// PostgreSQL store for deployments that already run a database.
package state

import (
	"context"

	"sitesmith/internal/models"
)

// Store is the profile + history persistence contract. Load materializes
// empty defaults for unknown users instead of returning a not-found error;
// Save replaces both documents atomically.
type Store interface {
	Load(ctx context.Context, userID string) (*models.Profile, models.History, error)
	Save(ctx context.Context, userID string, profile *models.Profile, history models.History) error
	Close() error
}

// document is the stored shape. Keeping profile and history in one encoded
// value is what makes Save atomic on every backend.
type document struct {
	Profile *models.Profile `json:"profile"`
	History models.History  `json:"history"`
}
