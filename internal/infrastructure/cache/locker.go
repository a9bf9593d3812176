package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Locker hands out short-lived exclusive locks. TryLock never waits: ok is
// false when another holder owns the key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// RedisLocker is a distributed Locker backed by redislock
type RedisLocker struct {
	client *redislock.Client
	prefix string
}

// NewRedisLocker creates a Locker on the shared Redis client
func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: redislock.New(client), prefix: "aquapet:lock:"}
}

// TryLock obtains key for ttl
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	lock, err := l.client.Obtain(ctx, l.prefix+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}
	return func() {
		// the lock may already have expired; nothing to do then
		_ = lock.Release(context.WithoutCancel(ctx))
	}, true, nil
}

// LocalLocker is a process-local Locker for single-instance deployments
type LocalLocker struct {
	mu     sync.Mutex
	leases map[string]time.Time
}

// NewLocalLocker creates a LocalLocker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{leases: make(map[string]time.Time)}
}

// TryLock obtains key unless an unexpired lease exists
func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if until, held := l.leases[key]; held && now.Before(until) {
		return nil, false, nil
	}
	expiry := now.Add(ttl)
	l.leases[key] = expiry

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.leases[key] == expiry {
			delete(l.leases, key)
		}
	}, true, nil
}

var (
	_ Locker = (*RedisLocker)(nil)
	_ Locker = (*LocalLocker)(nil)
)
