package locker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// retryInterval is how often a blocked shared acquisition re-attempts SET NX.
const retryInterval = 100 * time.Millisecond

// unlockScript deletes the lock key only if it still carries our token, so a
// slow holder cannot release a lock that already expired and was re-acquired
// by someone else.
const unlockScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

// RedisLocker implements SharedLocker with expiring advisory locks
// (SET NX PX). The TTL is the crash-recovery bound: a holder that dies
// without releasing blocks the resource for at most ttl. It must comfortably
// exceed the longest operation that runs under the lock.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisLocker creates a shared locker on the given client. ttl is the
// lock expiry; wait bounds each acquisition.
func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, wait: wait}
}

// Acquire polls SET NX until the lock is obtained or the wait runs out.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	rkey := "lock:" + key
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, rkey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("setnx %s: %w", rkey, err)
		}
		if ok {
			return func() { l.unlock(rkey, token) }, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w (%v)", ErrTimeout, ctx.Err())
		case <-time.After(retryInterval):
		}
	}
}

// unlock runs on its own context: the request context may already be
// canceled by the time the lock is released.
func (l *RedisLocker) unlock(rkey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	l.client.Eval(ctx, unlockScript, []string{rkey}, token)
}
