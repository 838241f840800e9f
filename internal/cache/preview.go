// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// preview.go caches assembled preview documents so repeated visits to a
// user's site skip reading and stitching the artifact files. Entries are
// invalidated whenever a generation or reset replaces the artifact.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

const (
	// previewKeyPrefix namespaces preview entries in Redis.
	previewKeyPrefix = "preview:"

	// DefaultPreviewTTL bounds staleness even if an invalidation is missed.
	DefaultPreviewTTL = 5 * time.Minute
)

// PreviewCache stores assembled preview documents keyed by user id.
// Implementations are safe for concurrent use; backend failures degrade
// to cache misses, never to errors.
type PreviewCache interface {
	Get(ctx context.Context, userID string) ([]byte, bool)
	Set(ctx context.Context, userID string, doc []byte)
	Invalidate(ctx context.Context, userID string)
}

// RedisPreviewCache shares cached previews across processes.
type RedisPreviewCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPreviewCache creates a preview cache backed by the given client.
func NewRedisPreviewCache(client *redis.Client, ttl time.Duration) *RedisPreviewCache {
	if ttl == 0 {
		ttl = DefaultPreviewTTL
	}
	return &RedisPreviewCache{client: client, ttl: ttl}
}

// Get retrieves the cached document for a user. Returns false on miss.
func (pc *RedisPreviewCache) Get(ctx context.Context, userID string) ([]byte, bool) {
	val, err := pc.client.Get(ctx, previewKeyPrefix+userID).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("preview cache get error", "user", userID, "error", err)
		return nil, false
	}
	slog.Debug("preview cache hit", "user", userID)
	return val, true
}

// Set stores the assembled document with the configured TTL.
func (pc *RedisPreviewCache) Set(ctx context.Context, userID string, doc []byte) {
	if err := pc.client.Set(ctx, previewKeyPrefix+userID, doc, pc.ttl).Err(); err != nil {
		slog.Warn("preview cache set error", "user", userID, "error", err)
	}
}

// Invalidate removes a user's cached document.
func (pc *RedisPreviewCache) Invalidate(ctx context.Context, userID string) {
	if err := pc.client.Del(ctx, previewKeyPrefix+userID).Err(); err != nil {
		slog.Warn("preview cache invalidate error", "user", userID, "error", err)
	}
	slog.Debug("preview cache invalidated", "user", userID)
}

// MemoryPreviewCache is the in-process fallback used when Redis is not
// configured. The LRU has no expiry of its own, so entries carry one.
type MemoryPreviewCache struct {
	entries *lru.Cache[string, memoryPreviewEntry]
	ttl     time.Duration
}

type memoryPreviewEntry struct {
	doc       []byte
	expiresAt time.Time
}

// NewMemoryPreviewCache creates an in-process preview cache holding at
// most size entries.
func NewMemoryPreviewCache(size int, ttl time.Duration) (*MemoryPreviewCache, error) {
	if size <= 0 {
		size = 1024
	}
	if ttl == 0 {
		ttl = DefaultPreviewTTL
	}
	entries, err := lru.New[string, memoryPreviewEntry](size)
	if err != nil {
		return nil, err
	}
	return &MemoryPreviewCache{entries: entries, ttl: ttl}, nil
}

func (mc *MemoryPreviewCache) Get(_ context.Context, userID string) ([]byte, bool) {
	entry, ok := mc.entries.Get(userID)
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		mc.entries.Remove(userID)
		return nil, false
	}
	return entry.doc, true
}

func (mc *MemoryPreviewCache) Set(_ context.Context, userID string, doc []byte) {
	mc.entries.Add(userID, memoryPreviewEntry{
		doc:       doc,
		expiresAt: time.Now().Add(mc.ttl),
	})
}

func (mc *MemoryPreviewCache) Invalidate(_ context.Context, userID string) {
	mc.entries.Remove(userID)
}
