package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/poinmhs/backend/internal/infrastructure/auth"
	"github.com/poinmhs/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestInMemoryTokenBlacklist_AddToBlacklist(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-1", time.Hour))

	revoked, err := blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = blacklist.IsBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryTokenBlacklist_Expiration(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.AddToBlacklist(ctx, "short", time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	revoked, err := blacklist.IsBlacklisted(ctx, "short")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryTokenBlacklist_ZeroTTLIsIgnored(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.AddToBlacklist(ctx, "expired", 0))

	revoked, err := blacklist.IsBlacklisted(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryTokenBlacklist_UserTokenInvalidation(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()
	issued := time.Now().Add(-time.Hour)

	invalidated, err := blacklist.IsUserTokenInvalidated(ctx, "user-1", issued)
	require.NoError(t, err)
	assert.False(t, invalidated)

	require.NoError(t, blacklist.AddUserTokensToBlacklist(ctx, "user-1", 24*time.Hour))

	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "user-1", issued)
	require.NoError(t, err)
	assert.True(t, invalidated)

	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "user-1", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, invalidated, "tokens issued after the revocation stay valid")

	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "user-2", issued)
	require.NoError(t, err)
	assert.False(t, invalidated)
}

func TestNewTokenBlacklist_FallsBackToMemory(t *testing.T) {
	bl, err := auth.NewTokenBlacklist(config.RedisConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &auth.InMemoryTokenBlacklist{}, bl)
}

func TestNewTokenBlacklist_UnreachableRedis(t *testing.T) {
	_, err := auth.NewTokenBlacklist(config.RedisConfig{Host: "127.0.0.1", Port: 1}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestTokenBlacklist_Interfaces(t *testing.T) {
	var _ auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	var _ auth.TokenBlacklist = (*auth.RedisTokenBlacklist)(nil)
}
