package memory

import (
	"context"
	"testing"
	"time"

	"nft-storefront/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSessionRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(config.SessionConfig{TTL: time.Hour, CleanupInterval: time.Hour}, zap.NewNop())

	_, found, err := repo.GetChainID(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.SetChainID(ctx, "s1", 369))
	chainID, found, err := repo.GetChainID(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(369), chainID)
	assert.Equal(t, 1, repo.Count())
}

func TestSessionRepositoryExpires(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(config.SessionConfig{TTL: 20 * time.Millisecond, CleanupInterval: time.Hour}, zap.NewNop())

	require.NoError(t, repo.SetChainID(ctx, "s1", 1))
	time.Sleep(40 * time.Millisecond)

	_, found, err := repo.GetChainID(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSessionRepositoryTypeMismatchIsAMiss(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(config.SessionConfig{TTL: time.Hour, CleanupInterval: time.Hour}, zap.NewNop())
	repo.cache.Set(sessionKeyPrefix+"s1", "not-an-id", time.Hour)

	_, found, err := repo.GetChainID(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, repo.Count())
}

func TestTouchMissingSessionIsNoop(t *testing.T) {
	repo := NewSessionRepository(config.SessionConfig{TTL: time.Hour, CleanupInterval: time.Hour}, zap.NewNop())
	require.NoError(t, repo.Touch(context.Background(), "ghost"))
	assert.Equal(t, 0, repo.Count())
}
