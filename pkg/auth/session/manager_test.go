package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("sess:%s", accessID)
}

func TestHasSessionAndRevoke(t *testing.T) {
	store := newMockStore()
	store.data["sess:abc"] = "refresh"
	manager := &Manager{store: store, keyer: store}

	ok, err := manager.HasSession(context.Background(), "abc")
	if err != nil || !ok {
		t.Fatalf("expected active session, got ok=%v err=%v", ok, err)
	}

	if err := manager.Revoke(context.Background(), "abc"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	ok, err = manager.HasSession(context.Background(), "abc")
	if err != nil || ok {
		t.Fatalf("expected revoked session, got ok=%v err=%v", ok, err)
	}
}

func TestHasSessionPropagatesStoreErrors(t *testing.T) {
	store := newMockStore()
	store.err = errors.New("redis down")
	manager := &Manager{store: store, keyer: store}

	if _, err := manager.HasSession(context.Background(), "abc"); err == nil {
		t.Fatal("expected store error")
	}
	if _, err := manager.HasSession(context.Background(), " "); err == nil {
		t.Fatal("expected blank id error")
	}
}
