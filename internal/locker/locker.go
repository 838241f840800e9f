// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package locker serializes access to per-user state. Every mutation of a
// user's conversation/profile document or generated site runs inside an
// exclusive lock scoped to (user, resource kind), so concurrent operations
// for the same user never interleave their read-modify-write windows while
// different users proceed fully in parallel.
package locker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Kind is the lock granularity unit. A user's conversation+profile document
// and their generated site are independent resources: a chat turn and a site
// regeneration may run concurrently, two chat turns may not.
type Kind string

const (
	// ProfileHistory guards the combined profile + conversation document.
	ProfileHistory Kind = "profile"
	// Artifact guards the generated site blobs.
	Artifact Kind = "artifact"
)

// ErrTimeout is returned when a lock could not be acquired within the
// configured wait. Callers should surface it as retryable.
var ErrTimeout = errors.New("lock acquisition timed out")

// SharedLocker extends mutual exclusion across processes that share the same
// storage. Implementations must expire abandoned locks so a crashed holder
// never deadlocks the resource.
type SharedLocker interface {
	// Acquire blocks until the shared lock for key is held, the wait is
	// exhausted, or ctx is done. On success it returns a release func.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// entry is one keyed semaphore. refs counts goroutines currently holding or
// waiting on it; an entry is only removed from the map at refs == 0, so a
// removed entry can have no waiters.
type entry struct {
	sem  chan struct{}
	refs int
}

// Manager hands out per-(user, kind) exclusive locks. In-process exclusion
// uses a semaphore map guarded by one coarse mutex; an optional SharedLocker
// adds cross-process exclusion on top. The in-process gate also means at most
// one goroutine per process contends for the shared lock of a given key.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry
	wait    time.Duration
	shared  SharedLocker
}

// NewManager creates a lock manager. wait bounds every acquisition; shared
// may be nil for single-process deployments.
func NewManager(wait time.Duration, shared SharedLocker) *Manager {
	return &Manager{
		entries: make(map[string]*entry),
		wait:    wait,
		shared:  shared,
	}
}

// WithLock runs fn while holding the exclusive lock for (userID, kind). The
// lock is released on every exit path, including a panic inside fn. fn's
// error is returned unmodified; acquisition failures wrap ErrTimeout.
func (m *Manager) WithLock(ctx context.Context, userID string, kind Kind, fn func() error) error {
	key := string(kind) + ":" + userID

	e := m.retain(key)
	defer m.release(key)

	timer := time.NewTimer(m.wait)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
	case <-timer.C:
		return fmt.Errorf("%s: %w", key, ErrTimeout)
	case <-ctx.Done():
		return fmt.Errorf("%s: %w (%v)", key, ErrTimeout, ctx.Err())
	}
	defer func() { <-e.sem }()

	if m.shared != nil {
		release, err := m.shared.Acquire(ctx, key)
		if err != nil {
			return fmt.Errorf("shared %s: %w", key, err)
		}
		defer release()
	}

	return fn()
}

func (m *Manager) retain(key string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	return e
}

func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
}
