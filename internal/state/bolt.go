// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"sitesmith/internal/models"
)

var stateBucket = []byte("user_state")

// BoltStore keeps all user state in a single bolt file, one key per user.
// Every Save is one write transaction, which gives the atomic
// profile+history commit for free.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if needed) the bolt file at path. The open
// itself times out rather than blocking forever on a stale file lock.
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open state db %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(stateBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init state bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Load returns the stored profile and history for userID, or fresh defaults
// if the user has never been seen. A corrupt stored document is an error,
// not a silent reset.
func (s *BoltStore) Load(_ context.Context, userID string) (*models.Profile, models.History, error) {
	var doc document
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(stateBucket)
		if b == nil {
			return nil
		}
		v := b.Get([]byte(userID))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &doc); err != nil {
			return fmt.Errorf("decode state for %s: %w", userID, err)
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if !found || doc.Profile == nil {
		return models.DefaultProfile(), models.History{}, nil
	}
	if doc.History == nil {
		doc.History = models.History{}
	}
	return doc.Profile, doc.History, nil
}

// Save replaces the user's profile and history in one transaction.
func (s *BoltStore) Save(_ context.Context, userID string, profile *models.Profile, history models.History) error {
	enc, err := json.Marshal(document{Profile: profile, History: history})
	if err != nil {
		return fmt.Errorf("encode state for %s: %w", userID, err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(stateBucket)
		if b == nil {
			return fmt.Errorf("state bucket missing")
		}
		return b.Put([]byte(userID), enc)
	})
	if err != nil {
		return fmt.Errorf("save state for %s: %w", userID, err)
	}
	return nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
