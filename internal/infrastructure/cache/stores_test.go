package cache

import (
	"context"
	"testing"
	"time"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_Lifecycle(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	ok, err := store.Reserve(ctx, "checkout-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Reserve(ctx, "checkout-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "second reservation is rejected")

	result, err := store.Result(ctx, "checkout-1")
	require.NoError(t, err)
	assert.Empty(t, result, "pending key has no result")

	require.NoError(t, store.Complete(ctx, "checkout-1", "order-id", time.Hour))
	result, err = store.Result(ctx, "checkout-1")
	require.NoError(t, err)
	assert.Equal(t, "order-id", result)

	ok, _ = store.Reserve(ctx, "checkout-1", time.Hour)
	assert.False(t, ok, "completed key stays reserved")
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	ok, _ := store.Reserve(ctx, "k", time.Hour)
	require.True(t, ok)
	require.NoError(t, store.Release(ctx, "k"))

	ok, err := store.Reserve(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "released key can be reserved again")
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	ok, _ := store.Reserve(ctx, "a", time.Minute)
	require.True(t, ok)
	ok, _ = store.Reserve(ctx, "b", time.Hour)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = store.Reserve(ctx, "a", time.Minute)
	assert.True(t, ok, "expired key can be reserved")

	now = now.Add(2 * time.Minute)
	store.cleanup()
	assert.Equal(t, 1, store.Size())
}

func TestInMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestInMemoryTokenStore(t *testing.T) {
	store := NewInMemoryTokenStore()
	defer store.Close()
	ctx := context.Background()

	token, err := NewToken(32)
	require.NoError(t, err)
	assert.Len(t, token, 43)

	require.NoError(t, store.Put(ctx, "reset", token, "user-1", time.Minute))

	_, err = store.Take(ctx, "oauth", token)
	assert.ErrorIs(t, err, ErrTokenNotFound, "namespaces are separate")

	v, err := store.Take(ctx, "reset", token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", v)

	_, err = store.Take(ctx, "reset", token)
	assert.ErrorIs(t, err, ErrTokenNotFound, "tokens are single use")
}

func TestNewStores_WithoutRedisUsesMemory(t *testing.T) {
	stores, err := NewStores(context.Background(), configWithoutRedis())
	require.NoError(t, err)
	defer stores.Close()

	assert.IsType(t, &InMemoryIdempotencyStore{}, stores.Idempotency)
	assert.IsType(t, &InMemoryTokenStore{}, stores.Tokens)
	assert.NoError(t, stores.Ping(context.Background()))
}

func TestNewStores_UnreachableRedis(t *testing.T) {
	cfg := configWithoutRedis()
	cfg.Host = "127.0.0.1"
	cfg.Port = 1

	_, err := NewStores(context.Background(), cfg, WithInMemoryFallback(false))
	assert.Error(t, err)

	stores, err := NewStores(context.Background(), cfg)
	require.NoError(t, err)
	defer stores.Close()
	assert.IsType(t, &InMemoryTokenStore{}, stores.Tokens)
}

func configWithoutRedis() config.RedisConfig {
	return config.RedisConfig{}
}
