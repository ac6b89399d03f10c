package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	keys       map[string]bool
	setNXError error
	lastTTL    time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{keys: map[string]bool{}}
}

func (f *fakeStore) SetNX(_ context.Context, key string, _ any, ttl time.Duration) (bool, error) {
	f.lastTTL = ttl
	if f.setNXError != nil {
		return false, f.setNXError
	}
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "orders:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.keys, k)
	}
	return nil
}

func TestClaimOnlyOnce(t *testing.T) {
	store := newFakeStore()
	manager, err := NewManager(store, 24*time.Hour)
	require.NoError(t, err)

	ok, err := manager.Claim(context.Background(), "order-confirmation", "o-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, store.keys["orders:idempotency:done:order-confirmation:o-1"])
	assert.Equal(t, 24*time.Hour, store.lastTTL)

	ok, err = manager.Claim(context.Background(), "order-confirmation", "o-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReleaseAllowsRetry(t *testing.T) {
	store := newFakeStore()
	manager, err := NewManager(store, time.Hour)
	require.NoError(t, err)

	_, err = manager.Claim(context.Background(), "s", "id")
	require.NoError(t, err)
	require.NoError(t, manager.Release(context.Background(), "s", "id"))

	ok, err := manager.Claim(context.Background(), "s", "id")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClaimValidation(t *testing.T) {
	_, err := NewManager(nil, time.Hour)
	require.Error(t, err)
	_, err = NewManager(newFakeStore(), -time.Second)
	require.Error(t, err)

	manager, err := NewManager(newFakeStore(), time.Hour)
	require.NoError(t, err)
	_, err = manager.Claim(context.Background(), "", "id")
	require.Error(t, err)
	_, err = manager.Claim(context.Background(), "scope", " ")
	require.Error(t, err)
}

func TestClaimSurfacesStoreError(t *testing.T) {
	store := newFakeStore()
	store.setNXError = errors.New("redis down")
	manager, err := NewManager(store, time.Hour)
	require.NoError(t, err)

	_, err = manager.Claim(context.Background(), "s", "id")
	require.EqualError(t, err, "redis down")
}
