package lock

import (
	"context"
	"sync"
	"time"
)

// Lock is a held lock. Unlock is safe to call after the TTL has passed.
type Lock interface {
	Unlock(ctx context.Context) error
}

// Locker hands out short-lived named locks. TryLock never blocks: ok is
// false when somebody else holds key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (Lock, bool, error)
}

// LocalLocker serves a single replica when no redis is configured.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]localEntry
	next uint64
	now  func() time.Time
}

type localEntry struct {
	token   uint64
	expires time.Time
}

type localLock struct {
	l     *LocalLocker
	key   string
	token uint64
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]localEntry), now: time.Now}
}

func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (Lock, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if e, ok := l.held[key]; ok && now.Before(e.expires) {
		return nil, false, nil
	}
	l.next++
	l.held[key] = localEntry{token: l.next, expires: now.Add(ttl)}
	return &localLock{l: l, key: key, token: l.next}, true, nil
}

func (ll *localLock) Unlock(_ context.Context) error {
	ll.l.mu.Lock()
	defer ll.l.mu.Unlock()
	if e, ok := ll.l.held[ll.key]; ok && e.token == ll.token {
		delete(ll.l.held, ll.key)
	}
	return nil
}
