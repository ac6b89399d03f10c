package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultLockTTL = 10 * time.Second

// ErrLockNotAcquired is returned by Locker.Acquire when the wait elapses.
var ErrLockNotAcquired = errors.New("lock not acquired")

// lockStore is the subset of Client used by locks.
type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
}

// Locker hands out short lived exclusive leases keyed by name.
type Locker struct {
	store lockStore
	ttl   time.Duration
	wait  time.Duration
	step  time.Duration
}

// LockOptions configure lease duration and how long Acquire keeps retrying.
type LockOptions struct {
	TTL   time.Duration
	Wait  time.Duration
	Retry time.Duration
}

func NewLocker(store lockStore, opts LockOptions) (*Locker, error) {
	if store == nil {
		return nil, errors.New("redis client required for lock")
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultLockTTL
	}
	if opts.Retry <= 0 {
		opts.Retry = 50 * time.Millisecond
	}
	return &Locker{store: store, ttl: opts.TTL, wait: opts.Wait, step: opts.Retry}, nil
}

// Lease is a held lock; Release is safe to call more than once.
type Lease struct {
	store lockStore
	key   string
	owner string
}

// Acquire polls SETNX until it wins or the wait budget (or ctx) runs out.
func (l *Locker) Acquire(ctx context.Context, key string) (*Lease, error) {
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	owner := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.store.SetNX(ctx, key, owner, l.ttl)
		if err != nil {
			return nil, fmt.Errorf("setnx %s: %w", key, err)
		}
		if ok {
			return &Lease{store: l.store, key: key, owner: owner}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrLockNotAcquired
		}

		timer := time.NewTimer(l.step)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Release frees the lock only if this lease still owns it.
func (l *Lease) Release(ctx context.Context) error {
	if l == nil || l.owner == "" {
		return nil
	}
	if _, err := l.store.CompareAndDelete(ctx, l.key, l.owner); err != nil {
		return fmt.Errorf("release lock %s: %w", l.key, err)
	}
	l.owner = ""
	return nil
}
