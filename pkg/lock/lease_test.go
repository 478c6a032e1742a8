package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	return s, client
}

func TestLease_AcquireRelease(t *testing.T) {
	_, client := setupTestRedis(t)
	leaser := NewLeaser(client, "test:lease:", 10*time.Second)
	ctx := context.Background()

	lease := leaser.NewLease("mining")

	ok, err := lease.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// 第二个租约抢占同一个 key 应失败
	other := leaser.NewLease("mining")
	ok, err = other.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// 非持有者无法释放
	err = other.Release(ctx)
	assert.ErrorIs(t, err, ErrLeaseNotHeld)

	// 持有者释放后可再次抢占
	err = lease.Release(ctx)
	require.NoError(t, err)

	ok, err = other.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLease_Extend(t *testing.T) {
	s, client := setupTestRedis(t)
	leaser := NewLeaser(client, "test:lease:", time.Second)
	ctx := context.Background()

	lease := leaser.NewLease("mining")
	ok, err := lease.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	err = lease.Extend(ctx, time.Minute)
	require.NoError(t, err)

	// 过期后续期失败
	s.FastForward(2 * time.Minute)
	err = lease.Extend(ctx, time.Minute)
	assert.ErrorIs(t, err, ErrLeaseNotHeld)
}

func TestLeaser_WithLease(t *testing.T) {
	_, client := setupTestRedis(t)
	leaser := NewLeaser(client, "test:lease:", 10*time.Second)
	ctx := context.Background()

	called := false
	err := leaser.WithLease(ctx, "mining", func(ctx context.Context) error {
		called = true

		// 租约持有期间其他抢占应失败
		inner := leaser.WithLease(ctx, "mining", func(ctx context.Context) error {
			return nil
		})
		assert.ErrorIs(t, inner, ErrLeaseUnavailable)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	// 执行完毕后租约已释放
	err = leaser.WithLease(ctx, "mining", func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)
}

func TestLeaser_WithLease_PropagatesError(t *testing.T) {
	_, client := setupTestRedis(t)
	leaser := NewLeaser(client, "test:lease:", 10*time.Second)

	want := errors.New("boom")
	err := leaser.WithLease(context.Background(), "mining", func(ctx context.Context) error {
		return want
	})
	assert.ErrorIs(t, err, want)
}

func TestLeaser_DefaultTTL(t *testing.T) {
	_, client := setupTestRedis(t)
	leaser := NewLeaser(client, "test:lease:", 0)
	assert.Equal(t, 30*time.Second, leaser.ttl)
}
