package memory

import (
	"context"
	"fmt"
	"time"

	"nft-storefront/internal/config"
	domainRepo "nft-storefront/internal/domain/repository"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainRepo.SessionRepository = (*SessionRepository)(nil)

const sessionKeyPrefix = "session_chain_v1_"

// SessionRepository implements domainRepo.SessionRepository using the go-cache in-memory library.
// Entries expire after the configured TTL unless touched.
type SessionRepository struct {
	cache  *cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewSessionRepository creates a new in-memory session store.
func NewSessionRepository(cfg config.SessionConfig, logger *zap.Logger) *SessionRepository {
	ttl := cfg.GetTTL()
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	cleanup := cfg.GetCleanupInterval()

	logger.Info("Initialized go-cache for session storage",
		zap.Duration("ttl", ttl),
		zap.Duration("cleanupInterval", cleanup),
	)

	return &SessionRepository{
		cache:  cache.New(ttl, cleanup),
		ttl:    ttl,
		logger: logger.Named("MemorySessionStorage"),
	}
}

// GetChainID returns the chain selected by the session.
func (r *SessionRepository) GetChainID(_ context.Context, sessionID string) (int64, bool, error) {
	key := sessionKeyPrefix + sessionID
	x, found := r.cache.Get(key)
	if !found {
		r.logger.Debug("Session cache miss", zap.String("key", key))
		return 0, false, nil
	}
	chainID, ok := x.(int64)
	if !ok {
		r.logger.Warn("Session cache data type mismatch for key",
			zap.String("key", key), zap.String("type", fmt.Sprintf("%T", x)),
		)
		r.cache.Delete(key)
		return 0, false, nil
	}
	return chainID, true, nil
}

// SetChainID records the session's chain and restarts its expiry.
func (r *SessionRepository) SetChainID(_ context.Context, sessionID string, chainID int64) error {
	key := sessionKeyPrefix + sessionID
	r.cache.Set(key, chainID, r.ttl)
	r.logger.Debug("Session cache set", zap.String("key", key), zap.Int64("chainId", chainID))
	return nil
}

// Touch restarts the expiry of an existing session entry.
func (r *SessionRepository) Touch(ctx context.Context, sessionID string) error {
	chainID, found, err := r.GetChainID(ctx, sessionID)
	if err != nil || !found {
		return err
	}
	return r.SetChainID(ctx, sessionID, chainID)
}

// Count returns the number of live sessions with a selection.
func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
