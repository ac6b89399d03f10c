package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orders-backend/pkg/metrics"
)

type memoryClaims struct {
	claimed  map[string]bool
	released []string
	err      error
}

func (m *memoryClaims) Claim(_ context.Context, scope, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	key := scope + ":" + id
	if m.claimed[key] {
		return false, nil
	}
	m.claimed[key] = true
	return true, nil
}

func (m *memoryClaims) Release(_ context.Context, scope, id string) error {
	key := scope + ":" + id
	delete(m.claimed, key)
	m.released = append(m.released, key)
	return nil
}

type countingNotifier struct {
	calls int
	err   error
}

func (c *countingNotifier) Notify(context.Context, Notification) error {
	c.calls++
	return c.err
}

func TestIdempotentNotifierSendsOncePerOrder(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewNotifierMetrics(reg)
	inner := &countingNotifier{}
	n, err := NewIdempotentNotifier(inner, &memoryClaims{claimed: map[string]bool{}}, "log", m, nil)
	require.NoError(t, err)

	msg := sample()
	require.NoError(t, n.Notify(context.Background(), msg))
	require.NoError(t, n.Notify(context.Background(), msg))

	assert.Equal(t, 1, inner.calls)
	count, err := testutil.GatherAndCount(reg, "orders_notifications_deduplicated_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIdempotentNotifierReleasesOnFailure(t *testing.T) {
	claims := &memoryClaims{claimed: map[string]bool{}}
	inner := &countingNotifier{err: errors.New("smtp down")}
	n, err := NewIdempotentNotifier(inner, claims, "log", nil, nil)
	require.NoError(t, err)

	msg := sample()
	require.ErrorContains(t, n.Notify(context.Background(), msg), "smtp down")
	assert.Equal(t, []string{ConfirmationScope + ":" + claimID(msg)}, claims.released)

	inner.err = nil
	require.NoError(t, n.Notify(context.Background(), msg))
	assert.Equal(t, 2, inner.calls)
}

func TestIdempotentNotifierClaimFailure(t *testing.T) {
	inner := &countingNotifier{}
	n, err := NewIdempotentNotifier(inner, &memoryClaims{err: errors.New("redis down")}, "log", nil, nil)
	require.NoError(t, err)

	require.Error(t, n.Notify(context.Background(), sample()))
	assert.Zero(t, inner.calls)
}

func TestIdempotentNotifierKeysByDestination(t *testing.T) {
	inner := &countingNotifier{}
	n, err := NewIdempotentNotifier(inner, &memoryClaims{claimed: map[string]bool{}}, "log", nil, nil)
	require.NoError(t, err)

	first := sample()
	second := first
	second.Destination = "other@example.com"

	require.NoError(t, n.Notify(context.Background(), first))
	require.NoError(t, n.Notify(context.Background(), second))
	require.NoError(t, n.Notify(context.Background(), first))
	assert.Equal(t, 2, inner.calls)
}
