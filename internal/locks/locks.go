package locks

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/orders-backend/pkg/errors"
	"github.com/angelmondragon/orders-backend/pkg/logger"
	"github.com/angelmondragon/orders-backend/pkg/redis"
)

// UserLocker serializes cart mutations and confirmation for one user.
type UserLocker interface {
	Lock(ctx context.Context, userID uuid.UUID) (unlock func(), err error)
}

type acquirer interface {
	Acquire(ctx context.Context, key string) (*redis.Lease, error)
}

type keyer interface {
	CartLockKey(userID string) string
}

// RedisLocker shares the lock between API replicas.
type RedisLocker struct {
	locker acquirer
	keys   keyer
	logg   *logger.Logger
}

func NewRedisLocker(locker acquirer, keys keyer, logg *logger.Logger) (*RedisLocker, error) {
	if locker == nil {
		return nil, errors.New("redis locker required")
	}
	if keys == nil {
		return nil, errors.New("lock key builder required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &RedisLocker{locker: locker, keys: keys, logg: logg}, nil
}

func (l *RedisLocker) Lock(ctx context.Context, userID uuid.UUID) (func(), error) {
	lease, err := l.locker.Acquire(ctx, l.keys.CartLockKey(userID.String()))
	if err != nil {
		if errors.Is(err, redis.ErrLockNotAcquired) {
			return nil, pkgerrors.CartBusy()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire cart lock")
	}
	return func() {
		// release on a fresh context so a cancelled request still frees the key
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			// the key expires on its own after the lock TTL
			l.logg.Error(l.logg.WithField(ctx, "user_id", userID.String()), "cart lock release failed", err)
		}
	}, nil
}

// LocalLocker is an in-process lock for single replica dev runs and tests.
// Entries are dropped once no caller holds or waits on them.
type LocalLocker struct {
	mu    sync.Mutex
	users map[uuid.UUID]*userLock
}

type userLock struct {
	sync.Mutex
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{users: map[uuid.UUID]*userLock{}}
}

func (l *LocalLocker) Lock(ctx context.Context, userID uuid.UUID) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	m, ok := l.users[userID]
	if !ok {
		m = &userLock{}
		l.users[userID] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			m.Unlock()
			l.mu.Lock()
			m.refs--
			if m.refs == 0 {
				delete(l.users, userID)
			}
			l.mu.Unlock()
		})
	}, nil
}
