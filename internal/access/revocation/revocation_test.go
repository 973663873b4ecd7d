package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTRL_RevokeAndCheck(t *testing.T) {
	trl := NewInMemoryTRL()
	ctx := context.Background()

	revoked, err := trl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "unknown JTI should not be revoked")

	require.NoError(t, trl.RevokeToken(ctx, "jti-1", time.Hour))

	revoked, err = trl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// Other tokens unaffected
	revoked, err = trl.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryTRL_ExpiredEntryNotRevoked(t *testing.T) {
	trl := NewInMemoryTRL()
	ctx := context.Background()

	// TTL in the past: the token has already expired on its own
	require.NoError(t, trl.RevokeToken(ctx, "jti-old", -time.Minute))

	revoked, err := trl.IsRevoked(ctx, "jti-old")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryTRL_ReRevokeExtendsTTL(t *testing.T) {
	trl := NewInMemoryTRL()
	ctx := context.Background()

	require.NoError(t, trl.RevokeToken(ctx, "jti-1", -time.Minute))
	require.NoError(t, trl.RevokeToken(ctx, "jti-1", time.Hour))

	revoked, err := trl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}
