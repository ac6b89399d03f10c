package locks

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/orders-backend/pkg/errors"
	"github.com/angelmondragon/orders-backend/pkg/logger"
	"github.com/angelmondragon/orders-backend/pkg/redis"
)

type stubAcquirer struct {
	err  error
	keys []string
}

func (s *stubAcquirer) Acquire(_ context.Context, key string) (*redis.Lease, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return nil, s.err
	}
	return &redis.Lease{}, nil
}

type stubKeys struct{}

func (stubKeys) CartLockKey(userID string) string { return "orders:lock:cart:" + userID }

func TestRedisLockerUsesCartKey(t *testing.T) {
	acq := &stubAcquirer{}
	locker, err := NewRedisLocker(acq, stubKeys{}, nil)
	require.NoError(t, err)

	userID := uuid.New()
	unlock, err := locker.Lock(context.Background(), userID)
	require.NoError(t, err)
	unlock()

	assert.Equal(t, []string{"orders:lock:cart:" + userID.String()}, acq.keys)
}

func TestRedisLockerMapsContention(t *testing.T) {
	locker, err := NewRedisLocker(&stubAcquirer{err: redis.ErrLockNotAcquired}, stubKeys{}, nil)
	require.NoError(t, err)

	_, err = locker.Lock(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeBusy))
	assert.True(t, pkgerrors.As(err).Retryable())
}

func TestRedisLockerMapsRedisFailure(t *testing.T) {
	locker, err := NewRedisLocker(&stubAcquirer{err: errors.New("dial tcp: refused")}, stubKeys{}, nil)
	require.NoError(t, err)

	_, err = locker.Lock(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestLocalLockerSerializesSameUser(t *testing.T) {
	locker := NewLocalLocker()
	userID := uuid.New()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), userID)
			if err != nil {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
}

func TestLocalLockerIndependentUsers(t *testing.T) {
	locker := NewLocalLocker()
	unlockA, err := locker.Lock(context.Background(), uuid.New())
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := locker.Lock(context.Background(), uuid.New())
	require.NoError(t, err)
	unlockB()
}

type brokenStore struct{}

func (brokenStore) SetNX(context.Context, string, any, time.Duration) (bool, error) {
	return true, nil
}

func (brokenStore) CompareAndDelete(context.Context, string, string) (bool, error) {
	return false, errors.New("connection reset")
}

func TestRedisLockerLogsReleaseFailure(t *testing.T) {
	acq, err := redis.NewLocker(brokenStore{}, redis.LockOptions{})
	require.NoError(t, err)
	var buf bytes.Buffer
	locker, err := NewRedisLocker(acq, stubKeys{}, logger.New(logger.Options{ServiceName: "test", Output: &buf}))
	require.NoError(t, err)

	userID := uuid.New()
	unlock, err := locker.Lock(context.Background(), userID)
	require.NoError(t, err)
	unlock()

	out := buf.String()
	assert.Contains(t, out, "cart lock release failed")
	assert.Contains(t, out, "connection reset")
	assert.Contains(t, out, userID.String())
}

func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.users)
}

func TestLocalLockerForgetsReleasedUsers(t *testing.T) {
	locker := NewLocalLocker()
	userID := uuid.New()

	unlock, err := locker.Lock(context.Background(), userID)
	require.NoError(t, err)

	acquired := make(chan func())
	go func() {
		second, err := locker.Lock(context.Background(), userID)
		if err == nil {
			acquired <- second
		}
	}()
	require.Eventually(t, func() bool {
		locker.mu.Lock()
		defer locker.mu.Unlock()
		return locker.users[userID] != nil && locker.users[userID].refs == 2
	}, time.Second, time.Millisecond)

	unlock()
	unlock()
	second := <-acquired
	assert.Equal(t, 1, locker.size())
	second()
	assert.Zero(t, locker.size())

	for i := 0; i < 50; i++ {
		release, err := locker.Lock(context.Background(), uuid.New())
		require.NoError(t, err)
		release()
	}
	assert.Zero(t, locker.size())
}
