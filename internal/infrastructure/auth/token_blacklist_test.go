package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist_Revoke(t *testing.T) {
	b := NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, b.Revoke(ctx, "jti-1", time.Hour))

	revoked, err := b.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = b.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryTokenBlacklist_EntriesExpire(t *testing.T) {
	b := NewInMemoryTokenBlacklist()
	now := time.Now()
	b.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, b.Revoke(ctx, "jti", time.Minute))
	now = now.Add(2 * time.Minute)

	revoked, err := b.IsRevoked(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.Empty(t, b.jtis)
}

func TestInMemoryTokenBlacklist_NonPositiveTTLIsIgnored(t *testing.T) {
	b := NewInMemoryTokenBlacklist()
	require.NoError(t, b.Revoke(context.Background(), "jti", 0))
	revoked, _ := b.IsRevoked(context.Background(), "jti")
	assert.False(t, revoked)
}

func TestInMemoryTokenBlacklist_RevokeUser(t *testing.T) {
	b := NewInMemoryTokenBlacklist()
	now := time.Now()
	b.now = func() time.Time { return now }
	ctx := context.Background()

	revoked, err := b.IsUserRevoked(ctx, "user-1", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, revoked, "no revocation recorded")

	require.NoError(t, b.RevokeUser(ctx, "user-1", time.Hour))

	revoked, _ = b.IsUserRevoked(ctx, "user-1", now.Add(-time.Hour))
	assert.True(t, revoked, "older token")
	revoked, _ = b.IsUserRevoked(ctx, "user-1", now.Add(-time.Millisecond))
	assert.True(t, revoked, "issued just before")
	revoked, _ = b.IsUserRevoked(ctx, "user-1", now.Add(5*time.Millisecond))
	assert.False(t, revoked, "login in the same second after revocation")
	revoked, _ = b.IsUserRevoked(ctx, "user-1", now.Add(2*time.Second))
	assert.False(t, revoked, "token issued after revocation")
	revoked, _ = b.IsUserRevoked(ctx, "user-2", now.Add(-time.Hour))
	assert.False(t, revoked, "other user")
}
