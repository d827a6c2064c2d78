package redisclient

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("STREAM_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STREAM_TEST_REDIS_ADDR not set")
	}
	native := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, native.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = native.Close() })
	return Wrap(native)
}

func TestLeaseLifecycle(t *testing.T) {
	cli := newTestClient(t)
	ctx := context.Background()
	key := "stream:test:lease:" + uuid.NewString()

	ok, err := cli.AcquireLease(ctx, key, "owner-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cli.AcquireLease(ctx, key, "owner-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	holder, err := cli.LeaseHolder(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "owner-a", holder)

	released, err := cli.ReleaseLease(ctx, key, "owner-b")
	require.NoError(t, err)
	assert.False(t, released)

	refreshed, err := cli.RefreshLease(ctx, key, "owner-a", 2*time.Minute)
	require.NoError(t, err)
	assert.True(t, refreshed)

	released, err = cli.ReleaseLease(ctx, key, "owner-a")
	require.NoError(t, err)
	assert.True(t, released)

	holder, err = cli.LeaseHolder(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, holder)
}
