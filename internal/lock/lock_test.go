package lock

import (
	"context"
	"testing"
	"time"
)

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()
	now := time.Unix(1700000000, 0)
	l.now = func() time.Time { return now }

	first, ok, err := l.TryLock(ctx, "lock:page/en-US/index", time.Second)
	if err != nil || !ok {
		t.Fatalf("first TryLock = %v, %v", ok, err)
	}
	if _, ok, _ := l.TryLock(ctx, "lock:page/en-US/index", time.Second); ok {
		t.Fatal("second TryLock succeeded while held")
	}
	if _, ok, _ := l.TryLock(ctx, "lock:page/fr/index", time.Second); !ok {
		t.Fatal("unrelated key was blocked")
	}

	now = now.Add(2 * time.Second)
	second, ok, _ := l.TryLock(ctx, "lock:page/en-US/index", time.Second)
	if !ok {
		t.Fatal("expired lock was not released")
	}

	// The stale holder must not release the new holder's lock.
	_ = first.Unlock(ctx)
	if _, ok, _ := l.TryLock(ctx, "lock:page/en-US/index", time.Second); ok {
		t.Fatal("stale unlock released the current lock")
	}
	_ = second.Unlock(ctx)
	if _, ok, _ := l.TryLock(ctx, "lock:page/en-US/index", time.Second); !ok {
		t.Fatal("lock not released by its holder")
	}
}
