package auth_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/marsops/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist_RevokeSingleToken(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.AddToBlacklist(ctx, "session-jti-legal-01", time.Hour))

	revoked, err := blacklist.IsBlacklisted(ctx, "session-jti-legal-01")
	require.NoError(t, err)
	assert.True(t, revoked)

	// Other sessions stay valid.
	revoked, err = blacklist.IsBlacklisted(ctx, "session-jti-legal-02")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryTokenBlacklist_EntryExpires(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.AddToBlacklist(ctx, "short-lived-jti", time.Millisecond))

	time.Sleep(10 * time.Millisecond)

	// The token itself expired by now, so the blacklist entry goes too.
	revoked, err := blacklist.IsBlacklisted(ctx, "short-lived-jti")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryTokenBlacklist_ForceLogoutCutoff(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	issuedBefore := time.Now().Add(-time.Hour)

	// No cutoff recorded yet.
	invalidated, err := blacklist.IsUserTokenInvalidated(ctx, "user-ops-1", issuedBefore)
	require.NoError(t, err)
	assert.False(t, invalidated)

	require.NoError(t, blacklist.AddUserTokensToBlacklist(ctx, "user-ops-1", time.Hour))

	// The old session predates the cutoff and must be rejected.
	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "user-ops-1", issuedBefore)
	require.NoError(t, err)
	assert.True(t, invalidated)

	// A token issued after the cutoff survives, so the user can log
	// straight back in.
	issuedAfter := time.Now().Add(time.Second)
	time.Sleep(2 * time.Millisecond)
	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "user-ops-1", issuedAfter)
	require.NoError(t, err)
	assert.False(t, invalidated)

	// Other users are untouched by the force-logout.
	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "user-ops-2", issuedBefore)
	require.NoError(t, err)
	assert.False(t, invalidated)
}

func TestInMemoryTokenBlacklist_ManyRevocations(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		jti := fmt.Sprintf("bulk-jti-%d", i)
		require.NoError(t, blacklist.AddToBlacklist(ctx, jti, time.Hour))
	}

	for i := 0; i < 10; i++ {
		jti := fmt.Sprintf("bulk-jti-%d", i)
		revoked, err := blacklist.IsBlacklisted(ctx, jti)
		require.NoError(t, err)
		assert.True(t, revoked, "token %s should be revoked", jti)
	}

	revoked, err := blacklist.IsBlacklisted(ctx, "never-revoked")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryTokenBlacklist_ConcurrentRevocation(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			jti := fmt.Sprintf("concurrent-jti-%d", n)
			_ = blacklist.AddToBlacklist(ctx, jti, time.Hour)
			_, _ = blacklist.IsBlacklisted(ctx, jti)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		revoked, err := blacklist.IsBlacklisted(ctx, fmt.Sprintf("concurrent-jti-%d", i))
		require.NoError(t, err)
		assert.True(t, revoked)
	}
}

func TestTokenBlacklist_Implementations(t *testing.T) {
	var _ auth.TokenBlacklist = (*auth.InMemoryTokenBlacklist)(nil)
	var _ auth.TokenBlacklist = (*auth.RedisTokenBlacklist)(nil)
	var _ auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
}
